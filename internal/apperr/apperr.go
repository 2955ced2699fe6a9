// Package apperr defines the error taxonomy shared by the service and
// handler layers. Handlers map these onto HTTP statuses; everything else
// is treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role does not permit
	// the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCapacityExceeded is returned when an event has no remaining
	// capacity.
	ErrCapacityExceeded = errors.New("event is fully booked")

	// ErrAlreadyBooked is returned when the same user books the same
	// event twice.
	ErrAlreadyBooked = errors.New("already booked for this event")

	// ErrEmailTaken is returned when registering with an email that
	// already has an account.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validation builds a ValidationError for the given field.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
