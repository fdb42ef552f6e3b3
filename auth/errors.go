package auth

import (
	"errors"
	"fmt"

	ythttp "ytlists/http"
)

var (
	// ErrCredentialRejected indicates the provider refused the stored
	// credential. The session is not cleared automatically; the caller decides
	// whether to log out and prompt a new login.
	ErrCredentialRejected = errors.New("auth: credential rejected")
	// ErrNoToken indicates a redirect carried no access_token.
	ErrNoToken = errors.New("auth: redirect carries no access token")
)

// IsUnauthorized reports whether err means the credential was refused.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrCredentialRejected) || ythttp.IsUnauthorized(err)
}

// ClassifyError marks a 401 failure with ErrCredentialRejected so callers can
// test for it with errors.Is. Other errors are returned unchanged.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, ErrCredentialRejected) || !ythttp.IsUnauthorized(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCredentialRejected, err)
}
