package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for post operations
var (
	// ErrNotFound is returned when the post does not exist in the store
	ErrNotFound = errors.New("post not found")

	// ErrStoreUnavailable is returned when the store failed, timed out or could not be reached.
	// The feed has been rolled back when this is returned from a mutation.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrSessionClosed is returned when the repository was closed before the
	// operation's result could be applied
	ErrSessionClosed = errors.New("session closed")
)

// ValidationError represents a validation error with field context.
// Validation happens before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNotFound checks if error indicates the post is missing
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if error indicates a store failure
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
