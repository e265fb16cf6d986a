package docstore

import "context"

// Store is the document service consumed by the feed client.
// Implementations: MemoryStore, the HTTP client in internal/remote,
// and the Postgres and SQLite repositories in internal/db.
type Store interface {
	// Query returns the documents of a collection matching filter,
	// in the order the store received them.
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// GetByID returns a single document or ErrNotFound.
	GetByID(ctx context.Context, collection, id string) (*Document, error)

	// Create stores a new document and returns its id.
	// If id is empty the store assigns one. Returns ErrConflict if id is taken.
	Create(ctx context.Context, collection, id string, fields Fields) (string, error)

	// UpdateFields merges fields into an existing document.
	// Returns ErrNotFound if the document does not exist.
	UpdateFields(ctx context.Context, collection, id string, fields Fields) error

	// DeleteByID removes a document. Returns ErrNotFound if it does not exist.
	DeleteByID(ctx context.Context, collection, id string) error
}
