package docstore

import "errors"

// Typed errors returned by every Store implementation.
// Callers use errors.Is() instead of matching on messages.
var (
	// ErrNotFound indicates the document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a document with the same id already exists
	ErrConflict = errors.New("document already exists")

	// ErrUnavailable indicates the store could not be reached or failed to answer
	ErrUnavailable = errors.New("document store unavailable")

	// ErrInvalidCollection indicates an empty or unknown collection name
	ErrInvalidCollection = errors.New("invalid collection")
)

// IsNotFound reports whether err means the document is missing
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
