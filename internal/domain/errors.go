package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request is invalid but no single field is at fault.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateRegistration is returned when the (event, user) pair is already registered.
	ErrDuplicateRegistration = errors.New("user is already registered for this event")
	// ErrTokenExpired is returned by token verifiers for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports an invalid value for a named request field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field with the given message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
