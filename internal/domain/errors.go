package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when a request carries no credential.
	ErrUnauthorized = errors.New("no token provided")
	// ErrInvalidToken is returned for malformed, expired or badly signed credentials.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for credentials invalidated by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already in use")
	// ErrUserNotFound indicates no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrPoolNotFound indicates the question pool could not be loaded.
	ErrPoolNotFound = errors.New("question pool not found")
)

// ValidationError carries a human-readable message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateResponses checks a finalized response set.
func ValidateResponses(responses []Answer) error {
	if len(responses) == 0 {
		return Invalidf("\"responses\" must contain at least 1 item")
	}
	for i, r := range responses {
		if r.QuestionID == "" {
			return Invalidf("\"responses[%d].questionId\" is not allowed to be empty", i)
		}
		if r.Domain == "" {
			return Invalidf("\"responses[%d].domain\" is not allowed to be empty", i)
		}
		if r.Value < MinValue || r.Value > MaxValue {
			return Invalidf("\"responses[%d].value\" must be between %d and %d", i, MinValue, MaxValue)
		}
	}
	return nil
}
