package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Tutter/internal/core/changes"
	"Tutter/internal/core/docstore"
)

const maxIDLength = 128

type documentService struct {
	store     docstore.Store
	schemas   *SchemaSet
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates the document service. publisher may be nil.
func NewService(store docstore.Store, schemas *SchemaSet, publisher Publisher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		store:     store,
		schemas:   schemas,
		publisher: publisher,
		logger:    logger,
	}
}

// Query returns matching documents of a collection
func (s *documentService) Query(ctx context.Context, principal, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	return s.store.Query(ctx, collection, filter)
}

// Get returns a single document
func (s *documentService) Get(ctx context.Context, principal, collection, id string) (*docstore.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := validateID(id, false); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, collection, id)
}

// Create validates and stores a new document
func (s *documentService) Create(ctx context.Context, principal, collection, id string, fields docstore.Fields) (*docstore.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if collection == docstore.CollectionUsers && id == "" {
		id = principal
	}
	if err := validateID(id, true); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, collection, id); err != nil {
		return nil, err
	}

	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, NewValidationError("fields", err.Error())
	}
	if err := s.schemas.Validate(collection, normalized); err != nil {
		return nil, err
	}

	storedID, err := s.store.Create(ctx, collection, id, normalized)
	if err != nil {
		return nil, err
	}

	doc := &docstore.Document{ID: storedID, Fields: normalized}
	s.publish(changes.EventCreate, collection, doc)
	s.logger.Debug("document created", "collection", collection, "id", storedID, "principal", principal)
	return doc, nil
}

// Update merges fields into an existing document after validating the merged result
func (s *documentService) Update(ctx context.Context, principal, collection, id string, fields docstore.Fields) (*docstore.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := validateID(id, false); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, collection, id); err != nil {
		return nil, err
	}

	patch, err := docstore.Normalize(fields)
	if err != nil {
		return nil, NewValidationError("fields", err.Error())
	}

	existing, err := s.store.GetByID(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	merged := existing.Fields.Merge(patch)
	if err := s.schemas.Validate(collection, merged); err != nil {
		return nil, err
	}

	if err := s.store.UpdateFields(ctx, collection, id, patch); err != nil {
		return nil, err
	}

	doc := &docstore.Document{ID: id, Fields: merged}
	s.publish(changes.EventUpdate, collection, doc)
	return doc, nil
}

// Delete removes a document
func (s *documentService) Delete(ctx context.Context, principal, collection, id string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	if err := validateID(id, false); err != nil {
		return err
	}
	if err := s.authorizeWrite(principal, collection, id); err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, collection, id); err != nil {
		return err
	}

	s.publish(changes.EventDelete, collection, &docstore.Document{ID: id})
	s.logger.Debug("document deleted", "collection", collection, "id", id, "principal", principal)
	return nil
}

func (s *documentService) checkCollection(collection string) error {
	if !s.schemas.Has(collection) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return nil
}

// authorizeWrite allows users documents to be written only by their owner
func (s *documentService) authorizeWrite(principal, collection, id string) error {
	if principal == "" {
		return ErrForbidden
	}
	if collection == docstore.CollectionUsers && id != principal {
		return ErrForbidden
	}
	return nil
}

func (s *documentService) publish(eventType changes.EventType, collection string, doc *docstore.Document) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changes.Event{
		Type:       eventType,
		Collection: collection,
		ID:         doc.ID,
		Fields:     doc.Fields.Clone(),
	})
}

func validateID(id string, allowEmpty bool) error {
	if id == "" {
		if allowEmpty {
			return nil
		}
		return NewValidationError("id", "id is required")
	}
	if len(id) > maxIDLength {
		return NewValidationError("id", fmt.Sprintf("must be at most %d characters", maxIDLength))
	}
	if strings.ContainsAny(id, "/ \t\n") {
		return NewValidationError("id", "must not contain slashes or whitespace")
	}
	return nil
}

// IsUnknownCollection checks if error is an unknown collection error
func IsUnknownCollection(err error) bool {
	return errors.Is(err, ErrUnknownCollection)
}
