package ytlists

import (
	"ytlists/auth"
	ythttp "ytlists/http"
	"ytlists/lists"
	"ytlists/storage"
	"ytlists/youtube"
)

// Type aliases for convenient error handling.
type (
	// FetchError reports the subscription page that failed.
	FetchError = youtube.FetchError
	// ListError describes a rejected list operation.
	ListError = lists.ListError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
	// HTTPError is a non-2xx response from the provider.
	HTTPError = ythttp.HTTPError
	// RateLimitError is a 429 response from the provider.
	RateLimitError = ythttp.RateLimitError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrCredentialRejected indicates the provider refused the credential.
	ErrCredentialRejected = auth.ErrCredentialRejected
	// ErrNoToken indicates a redirect carried no access token.
	ErrNoToken = auth.ErrNoToken

	// ErrNoCredential indicates an operation needs a signed-in user.
	ErrNoCredential = youtube.ErrNoCredential
	// ErrPageLimit indicates pagination stopped at the configured bound.
	ErrPageLimit = youtube.ErrPageLimit
	// ErrChannelNotFound indicates a channel lookup returned nothing.
	ErrChannelNotFound = youtube.ErrChannelNotFound

	// ErrNameTooShort indicates a list name below the minimum length.
	ErrNameTooShort = lists.ErrNameTooShort
	// ErrListExists indicates a list with the same name exists.
	ErrListExists = lists.ErrListExists
	// ErrInvalidChannel indicates a channel without an id.
	ErrInvalidChannel = lists.ErrInvalidChannel

	// ErrStorageCorrupt indicates a stored record could not be decoded.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring the store's file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsUnauthorized reports whether err means the credential was refused.
func IsUnauthorized(err error) bool {
	return auth.IsUnauthorized(err)
}
