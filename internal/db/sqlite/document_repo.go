package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"Tutter/internal/core/docstore"
	"Tutter/internal/db/migrations"
)

// DocumentRepo is a document store in a local SQLite file.
// Fields are stored as JSON text; filters are evaluated in Go.
type DocumentRepo struct {
	db *sql.DB
}

// Ensure DocumentRepo implements docstore.Store
var _ docstore.Store = (*DocumentRepo)(nil)

// Open opens (creating if needed) the database at path and runs migrations.
// Use ":memory:" for a throwaway store.
func Open(path string) (*DocumentRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.UpSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DocumentRepo{db: db}, nil
}

// Close closes the underlying database
func (r *DocumentRepo) Close() error {
	return r.db.Close()
}

// Query returns documents matching filter in arrival order
func (r *DocumentRepo) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	if collection == "" {
		return nil, docstore.ErrInvalidCollection
	}
	normalized, err := docstore.Normalize(docstore.Fields(filter))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY seq ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query documents: %w", docstore.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	docs := []docstore.Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: failed to scan document: %w", docstore.ErrUnavailable, err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		if !docstore.Filter(normalized).Matches(fields) {
			continue
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating documents: %w", docstore.ErrUnavailable, err)
	}
	return docs, nil
}

// GetByID retrieves a single document
func (r *DocumentRepo) GetByID(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if collection == "" {
		return nil, docstore.ErrInvalidCollection
	}
	fields, err := r.load(ctx, r.db, collection, id)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: id, Fields: fields}, nil
}

// Create inserts a new document, assigning a UUID when id is empty
func (r *DocumentRepo) Create(ctx context.Context, collection, id string, fields docstore.Fields) (string, error) {
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

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?) ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, body,
	)
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert document: %w", docstore.ErrUnavailable, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("%w: failed to check insert result: %w", docstore.ErrUnavailable, err)
	}
	if n == 0 {
		return "", docstore.ErrConflict
	}
	return id, nil
}

// UpdateFields merges fields into the stored document inside a transaction
func (r *DocumentRepo) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if collection == "" {
		return docstore.ErrInvalidCollection
	}
	patch, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", docstore.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := r.load(ctx, tx, collection, id)
	if err != nil {
		return err
	}
	body, err := encodeFields(existing.Merge(patch))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET fields = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		body, collection, id,
	); err != nil {
		return fmt.Errorf("%w: failed to update document: %w", docstore.ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit update: %w", docstore.ErrUnavailable, err)
	}
	return nil
}

// DeleteByID removes a document
func (r *DocumentRepo) DeleteByID(ctx context.Context, collection, id string) error {
	if collection == "" {
		return docstore.ErrInvalidCollection
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete document: %w", docstore.ErrUnavailable, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check delete result: %w", docstore.ErrUnavailable, err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *DocumentRepo) load(ctx context.Context, q queryer, collection, id string) (docstore.Fields, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get document: %w", docstore.ErrUnavailable, err)
	}
	return decodeFields(raw)
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

func decodeFields(raw string) (docstore.Fields, error) {
	fields := docstore.Fields{}
	if raw == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}
	return fields, nil
}
