package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStorage means the transaction did not commit and nothing was recorded.
	ErrStorage = errors.New("storage failure")
)

// ValidationError is returned for malformed input: empty handles, unknown
// enum values, bad periods or limits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Reason: err.Error()}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
