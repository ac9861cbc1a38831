package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports a caller contract violation. It is never retried.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

// Invalid builds a ValidationError
func Invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CollaboratorError wraps a failed fetch from an external store
type CollaboratorError struct {
	Branch string
	Err    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator unavailable (%s): %v", e.Branch, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
