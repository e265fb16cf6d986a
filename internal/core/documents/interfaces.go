package documents

import (
	"context"

	"Tutter/internal/core/changes"
	"Tutter/internal/core/docstore"
)

// Publisher receives committed writes
type Publisher interface {
	Publish(ev changes.Event) changes.Event
}

// Service exposes generic document CRUD to authenticated principals.
// Every method takes the caller's principal id.
type Service interface {
	Query(ctx context.Context, principal, collection string, filter docstore.Filter) ([]docstore.Document, error)
	Get(ctx context.Context, principal, collection, id string) (*docstore.Document, error)
	Create(ctx context.Context, principal, collection, id string, fields docstore.Fields) (*docstore.Document, error)
	Update(ctx context.Context, principal, collection, id string, fields docstore.Fields) (*docstore.Document, error)
	Delete(ctx context.Context, principal, collection, id string) error
}
