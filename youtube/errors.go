package youtube

import (
	"errors"
	"fmt"
)

// Sentinel errors for subscription fetching.
var (
	// ErrNoCredential is returned by operations that need a credential when
	// none is available. FetchAll and Unsubscribe treat it as a no-op instead.
	ErrNoCredential = errors.New("youtube: no credential")
	// ErrPageLimit indicates pagination reached the configured page bound
	// while the provider still reported more pages.
	ErrPageLimit = errors.New("youtube: page limit reached")
	// ErrChannelNotFound indicates a channel lookup returned no item.
	ErrChannelNotFound = errors.New("youtube: channel not found")
)

// FetchError reports a failed pagination request. Page is 1-based.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("youtube: fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
