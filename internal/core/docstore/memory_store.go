package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store.
// Documents are normalized on write and cloned on read, so callers never
// share state with the store.
type MemoryStore struct {
	collections map[string]*memoryCollection
	mu          sync.RWMutex
}

type memoryCollection struct {
	docs  map[string]Fields
	order []string
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) collection(name string, create bool) *memoryCollection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &memoryCollection{docs: make(map[string]Fields)}
		s.collections[name] = c
	}
	return c
}

// Query returns matching documents in insertion order
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := Normalize(Fields(filter))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection(collection, false)
	if c == nil {
		return []Document{}, nil
	}
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		fields := c.docs[id]
		if !Filter(normalized).Matches(fields) {
			continue
		}
		out = append(out, Document{ID: id, Fields: fields.Clone()})
	}
	return out, nil
}

// GetByID returns a copy of the document
func (s *MemoryStore) GetByID(ctx context.Context, collection, id string) (*Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection(collection, false)
	if c == nil {
		return nil, ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: fields.Clone()}, nil
}

// Create stores a new document, assigning a UUID when id is empty
func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields Fields) (string, error) {
	if collection == "" {
		return "", ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, true)
	if _, exists := c.docs[id]; exists {
		return "", ErrConflict
	}
	c.docs[id] = normalized
	c.order = append(c.order, id)
	return id, nil
}

// UpdateFields merges fields into the stored document
func (s *MemoryStore) UpdateFields(ctx context.Context, collection, id string, fields Fields) error {
	if collection == "" {
		return ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, false)
	if c == nil {
		return ErrNotFound
	}
	existing, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	c.docs[id] = existing.Merge(normalized)
	return nil
}

// DeleteByID removes the document
func (s *MemoryStore) DeleteByID(ctx context.Context, collection, id string) error {
	if collection == "" {
		return ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, false)
	if c == nil {
		return ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
