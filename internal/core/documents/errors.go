package documents

import (
	"errors"
	"fmt"

	"Tutter/internal/core/docstore"
)

var (
	// ErrUnknownCollection is returned for collections the service does not serve
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrForbidden is returned when the principal may not write the document
	ErrForbidden = errors.New("not authorized to modify this document")

	// ErrNotFound is returned when the document does not exist
	ErrNotFound = docstore.ErrNotFound

	// ErrConflict is returned when creating a document whose id is taken
	ErrConflict = docstore.ErrConflict
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
