package lists

import (
	"errors"
	"fmt"
)

// Validation failures. They are always returned wrapped in *ListError and
// never change the collection.
var (
	ErrNameTooShort   = errors.New("lists: name must be at least 3 characters")
	ErrListExists     = errors.New("lists: a list with this name already exists")
	ErrInvalidChannel = errors.New("lists: channel has no id")
)

// ListError describes a rejected list operation.
type ListError struct {
	Op   string
	Name string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("lists: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a user-facing validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameTooShort) || errors.Is(err, ErrListExists) || errors.Is(err, ErrInvalidChannel)
}
