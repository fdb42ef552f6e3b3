// Package storage persists the small set of string-keyed records ytlists keeps
// between runs and tells every open context when one of them changes.
//
// The layout mirrors browser local storage: each record is an independent
// string value under a fixed key, and a missing key means "no value" rather
// than an empty string. Writers go through Records, which publishes a
// ChangeEvent after every successful write so other contexts sharing the same
// backend can reconcile.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Well-known record keys.
const (
	// KeyAccessToken holds the bearer credential as a plain string.
	KeyAccessToken = "youtube_access_token"
	// KeyUserInfo holds the cached profile as a JSON object.
	KeyUserInfo = "youtube_user_info"
	// KeyLists holds the list collection as a JSON object of name to channel array.
	KeyLists = "lists"
)

// Sentinel errors for common storage conditions.
var (
	// ErrInvalidInput indicates an invalid key or value was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates the backing document could not be decoded.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
	// ErrClosed indicates the notifier or backend has been closed.
	ErrClosed = errors.New("storage: closed")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s %s: %v\n", storErr.Op, storErr.Entity, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "remove", "lock", "publish").
	Op string
	// Entity is the entity type ("record", "store", "file", "event").
	Entity string
	// ID is the record key or path if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Backend is a string-keyed record store.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys returns every key currently present.
	Keys(ctx context.Context) ([]string, error)
}

// ChangeEvent describes a write to one record.
type ChangeEvent struct {
	// Key is the record that changed.
	Key string `json:"key"`
	// Value is the new value. Only meaningful when Present is true.
	Value string `json:"value,omitempty"`
	// Present is false when the record was removed.
	Present bool `json:"present"`
	// Origin identifies the context that performed the write.
	Origin string `json:"origin"`
	// At is when the write was observed.
	At time.Time `json:"at"`
}

// Handler receives change events.
type Handler func(ChangeEvent)

// Notifier fans change events out to subscribers.
type Notifier interface {
	// Publish delivers ev to every current subscriber.
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe registers h and returns a function that removes it.
	Subscribe(h Handler) (cancel func())
}
