package posts

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"Tutter/internal/core/docstore"
)

// mockStore is a testify mock of docstore.Store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docstore.Document), args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, collection, id string) (*docstore.Document, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docstore.Document), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, collection, id string, fields docstore.Fields) (string, error) {
	args := m.Called(ctx, collection, id, fields)
	return args.String(0), args.Error(1)
}

func (m *mockStore) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *mockStore) DeleteByID(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

// faultyStore wraps a MemoryStore and can fail or block selected calls
type faultyStore struct {
	*docstore.MemoryStore
	failUpdate error
	failDelete error
	failCreate error
	failQuery  error
	gate       chan struct{} // when set, UpdateFields waits on it
	createGate chan struct{} // when set, Create waits on it
	creating   chan string   // when set, Create reports the id before waiting
	queryGate  chan struct{} // when set, Query waits on it after reading
	querying   chan struct{} // when set, Query reports after reading
	mu         sync.Mutex
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: docstore.NewMemoryStore()}
}

func (s *faultyStore) set(fn func(*faultyStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *faultyStore) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	s.mu.Lock()
	err := s.failQuery
	gate := s.queryGate
	querying := s.querying
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	docs, err := s.MemoryStore.Query(ctx, collection, filter)
	if querying != nil {
		querying <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return docs, err
}

func (s *faultyStore) Create(ctx context.Context, collection, id string, fields docstore.Fields) (string, error) {
	s.mu.Lock()
	err := s.failCreate
	gate := s.createGate
	creating := s.creating
	s.mu.Unlock()
	if creating != nil {
		creating <- id
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return s.MemoryStore.Create(ctx, collection, id, fields)
}

func (s *faultyStore) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	s.mu.Lock()
	err := s.failUpdate
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return s.MemoryStore.UpdateFields(ctx, collection, id, fields)
}

func (s *faultyStore) DeleteByID(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	err := s.failDelete
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.DeleteByID(ctx, collection, id)
}

// recordingNotifier collects notified operations
type recordingNotifier struct {
	ops  []string
	errs []error
	mu   sync.Mutex
}

func (n *recordingNotifier) Notify(op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ops = append(n.ops, op)
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) Ops() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ops...)
}

func seedPost(store docstore.Store, id string, p Post) {
	p.ID = id
	if _, err := store.Create(context.Background(), docstore.CollectionPosts, id, p.Fields()); err != nil {
		panic(err)
	}
}
