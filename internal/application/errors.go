package application

import (
	"errors"

	"github.com/example/roombooking/internal/booking"
)

var (
	// ErrUnauthorized is returned when the acting principal may not perform an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when an insert collides with an existing resource.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token has passed its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrRemote is returned when the backing data source failed and local state
	// was left unchanged; the caller may retry the action.
	ErrRemote = errors.New("application: data source unavailable")
)

// ValidationError captures field level validation issues that callers can
// surface inline on the offending form field.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// newValidationError wraps the validator's field map in the service error type.
func newValidationError(fields booking.FieldErrors) *ValidationError {
	vErr := &ValidationError{FieldErrors: make(map[string]string, len(fields))}
	for field, message := range fields {
		vErr.FieldErrors[field] = message
	}
	return vErr
}
