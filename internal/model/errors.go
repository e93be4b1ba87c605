package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// Tournament errors
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentFull     = errors.New("tournament is full")

	// Registration errors
	ErrAlreadyRegistered    = errors.New("already registered for this tournament")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Role errors
	ErrForbidden = errors.New("action not permitted for this role")
)

// ValidationError reports input that failed validation
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
