package crawler

import (
	"errors"
	"fmt"
)

// ErrMissingRequiredField is returned by the nonprofit handler when the
// name or description is absent or empty. The record is skipped.
var ErrMissingRequiredField = errors.New("missing required field")

// ErrUnknownPage is returned by Dispatch for a page kind without a handler.
// Such pages are dropped.
var ErrUnknownPage = errors.New("unknown page")

// FieldError names the field a record is missing.
type FieldError struct {
	Field string
	URL   string
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q on %s", ErrMissingRequiredField, e.Field, e.URL)
}

// Unwrap returns ErrMissingRequiredField.
func (e *FieldError) Unwrap() error {
	return ErrMissingRequiredField
}
