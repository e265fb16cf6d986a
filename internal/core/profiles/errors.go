package profiles

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an editor operation is not allowed in the current state
	ErrInvalidState = errors.New("operation not allowed in current editor state")

	// ErrStoreUnavailable is returned when the store failed, timed out or could not be reached
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// ValidationError represents a validation error with field context
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

// IsStoreUnavailable checks if error indicates a store failure
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
