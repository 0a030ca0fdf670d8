package pm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a referenced id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authenticated actor disallowed by role or tenancy.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a uniqueness violation such as a duplicate email or
	// a duplicate project name within a company.
	ErrConflict = errors.New("resource conflict")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
