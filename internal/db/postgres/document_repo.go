package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"Tutter/internal/core/docstore"
)

type postgresDocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepository creates a PostgreSQL-backed document store
func NewDocumentRepository(db *sql.DB) docstore.Store {
	return &postgresDocumentRepo{db: db}
}

// Query returns documents whose top-level fields equal every filter value, in arrival order
func (r *postgresDocumentRepo) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	if collection == "" {
		return nil, docstore.ErrInvalidCollection
	}

	where, args, err := buildFilterClause(filter, 2)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, fields
		FROM documents
		WHERE collection = $1` + where + `
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, append([]any{collection}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query documents: %w", docstore.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	docs := []docstore.Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: failed to scan document: %w", docstore.ErrUnavailable, err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating documents: %w", docstore.ErrUnavailable, err)
	}

	return docs, nil
}

// GetByID retrieves a single document
func (r *postgresDocumentRepo) GetByID(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if collection == "" {
		return nil, docstore.ErrInvalidCollection
	}

	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get document: %w", docstore.ErrUnavailable, err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: id, Fields: fields}, nil
}

// Create inserts a new document, assigning a UUID when id is empty
func (r *postgresDocumentRepo) Create(ctx context.Context, collection, id string, fields docstore.Fields) (string, error) {
	if collection == "" {
		return "", docstore.ErrInvalidCollection
	}
	if id == "" {
		id = uuid.NewString()
	}

	body, err := encodeFields(fields)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO documents (collection, id, fields, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING id
	`

	var stored string
	err = r.db.QueryRowContext(ctx, query, collection, id, body).Scan(&stored)
	// ON CONFLICT DO NOTHING returns no rows for an existing id
	if errors.Is(err, sql.ErrNoRows) {
		return "", docstore.ErrConflict
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert document: %w", docstore.ErrUnavailable, err)
	}

	return stored, nil
}

// UpdateFields merges fields into the top level of the stored document
func (r *postgresDocumentRepo) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if collection == "" {
		return docstore.ErrInvalidCollection
	}

	patch, err := encodeFields(fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET fields = fields || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, collection, id, patch)
	if err != nil {
		return fmt.Errorf("%w: failed to update document: %w", docstore.ErrUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check update result: %w", docstore.ErrUnavailable, err)
	}
	if rowsAffected == 0 {
		return docstore.ErrNotFound
	}

	return nil
}

// DeleteByID removes a document
func (r *postgresDocumentRepo) DeleteByID(ctx context.Context, collection, id string) error {
	if collection == "" {
		return docstore.ErrInvalidCollection
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete document: %w", docstore.ErrUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check delete result: %w", docstore.ErrUnavailable, err)
	}
	if rowsAffected == 0 {
		return docstore.ErrNotFound
	}

	return nil
}

// buildFilterClause renders the filter as an indexed containment check
// followed by one jsonb equality per key, sorted by key. Containment alone
// would match arrays and objects on a subset. Placeholders start at firstArg.
func buildFilterClause(filter docstore.Filter, firstArg int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	whole, err := encodeFields(docstore.Fields(filter))
	if err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, " AND fields @> $%d::jsonb", firstArg)
	args := make([]any, 0, 2*len(keys)+1)
	args = append(args, whole)
	n := firstArg + 1
	for _, k := range keys {
		raw, err := json.Marshal(filter[k])
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter %q: %w", k, err)
		}
		fmt.Fprintf(&b, " AND fields->$%d = $%d::jsonb", n, n+1)
		args = append(args, k, string(raw))
		n += 2
	}
	return b.String(), args, nil
}

func encodeFields(fields docstore.Fields) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}
	return string(raw), nil
}

func decodeFields(raw []byte) (docstore.Fields, error) {
	fields := docstore.Fields{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}
	return fields, nil
}
