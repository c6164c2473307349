// Package domain defines the core recurrence entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or missing.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidPattern is returned when a recurrence pattern is not one of
	// the supported values.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")

	// ErrInvalidInterval is returned when a recurrence interval is below 1.
	// Intervals are never silently clamped.
	ErrInvalidInterval = errors.New("recurrence interval must be at least 1")

	// ErrInvalidInstanceStatus is returned when an instance status is not valid.
	ErrInvalidInstanceStatus = errors.New("invalid instance status")
)

// ValidationError carries field-level context for a validation failure so
// callers can surface it next to the offending input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
