package ytlists

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReexportedErrorsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &FetchError{Page: 2, Err: &HTTPError{StatusCode: http.StatusUnauthorized}})

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Page)
	assert.True(t, IsUnauthorized(err))

	assert.False(t, IsUnauthorized(&HTTPError{StatusCode: http.StatusForbidden}))
	assert.ErrorIs(t, &ListError{Op: "create", Name: "ab", Err: ErrNameTooShort}, ErrNameTooShort)
}
