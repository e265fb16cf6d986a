package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tutter/internal/core/changes"
	"Tutter/internal/core/docstore"
)

func newTestService(t *testing.T) (Service, *docstore.MemoryStore, *changes.Subscription) {
	t.Helper()
	schemas, err := LoadSchemas("")
	require.NoError(t, err)

	hub := changes.NewHub(16, nil)
	sub := hub.Subscribe("")
	t.Cleanup(sub.Close)

	store := docstore.NewMemoryStore()
	return NewService(store, schemas, hub, nil), store, sub
}

func validPost() docstore.Fields {
	return docstore.Fields{"content": "hello", "liked": false, "likeCount": 0, "comments": []string{}}
}

func TestService_CreatePostPublishesEvent(t *testing.T) {
	svc, store, sub := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, "user-1", docstore.CollectionPosts, "p1", validPost())
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)

	_, err = store.GetByID(ctx, docstore.CollectionPosts, "p1")
	require.NoError(t, err)

	ev := <-sub.Events()
	assert.Equal(t, changes.EventCreate, ev.Type)
	assert.Equal(t, "p1", ev.ID)
	assert.Equal(t, "hello", ev.Fields["content"])
}

func TestService_CreateAssignsID(t *testing.T) {
	svc, _, _ := newTestService(t)

	doc, err := svc.Create(context.Background(), "user-1", docstore.CollectionPosts, "", validPost())
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
}

func TestService_SchemaValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		fields     docstore.Fields
		name       string
		collection string
	}{
		{name: "missing content", collection: docstore.CollectionPosts, fields: docstore.Fields{"liked": false, "likeCount": 0, "comments": []string{}}},
		{name: "negative likeCount", collection: docstore.CollectionPosts, fields: docstore.Fields{"content": "x", "liked": false, "likeCount": -1, "comments": []string{}}},
		{name: "unknown field", collection: docstore.CollectionPosts, fields: docstore.Fields{"content": "x", "liked": false, "likeCount": 0, "comments": []string{}, "extra": 1}},
		{name: "bad email", collection: docstore.CollectionUsers, fields: docstore.Fields{"name": "Ann", "email": "nope"}},
		{name: "negative age", collection: docstore.CollectionUsers, fields: docstore.Fields{"name": "Ann", "email": "a@b.co", "age": -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "user-1", tt.collection, "user-1", tt.fields)
			assert.True(t, IsValidationError(err), "got %v", err)
		})
	}
}

func TestService_UsersOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	profile := docstore.Fields{"name": "Ann", "email": "ann@example.com", "age": nil}

	_, err := svc.Create(ctx, "user-1", docstore.CollectionUsers, "user-2", profile)
	assert.ErrorIs(t, err, ErrForbidden)

	doc, err := svc.Create(ctx, "user-1", docstore.CollectionUsers, "", profile)
	require.NoError(t, err)
	assert.Equal(t, "user-1", doc.ID)

	_, err = svc.Update(ctx, "user-2", docstore.CollectionUsers, "user-1", docstore.Fields{"name": "Mallory"})
	assert.ErrorIs(t, err, ErrForbidden)

	// Anyone signed in may read
	got, err := svc.Get(ctx, "user-2", docstore.CollectionUsers, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Fields["name"])

	assert.ErrorIs(t, svc.Delete(ctx, "user-2", docstore.CollectionUsers, "user-1"), ErrForbidden)
}

func TestService_UpdateValidatesMergedDocument(t *testing.T) {
	svc, _, sub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", docstore.CollectionPosts, "p1", validPost())
	require.NoError(t, err)
	<-sub.Events()

	doc, err := svc.Update(ctx, "user-2", docstore.CollectionPosts, "p1", docstore.Fields{"liked": true, "likeCount": 1})
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Fields["content"])
	assert.Equal(t, true, doc.Fields["liked"])

	ev := <-sub.Events()
	assert.Equal(t, changes.EventUpdate, ev.Type)
	assert.Equal(t, "hello", ev.Fields["content"], "update events carry the full document")

	_, err = svc.Update(ctx, "user-2", docstore.CollectionPosts, "p1", docstore.Fields{"likeCount": "many"})
	assert.True(t, IsValidationError(err))

	_, err = svc.Update(ctx, "user-2", docstore.CollectionPosts, "missing", docstore.Fields{"liked": true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeletePublishes(t *testing.T) {
	svc, _, sub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", docstore.CollectionPosts, "p1", validPost())
	require.NoError(t, err)
	<-sub.Events()

	require.NoError(t, svc.Delete(ctx, "user-1", docstore.CollectionPosts, "p1"))
	ev := <-sub.Events()
	assert.Equal(t, changes.EventDelete, ev.Type)

	assert.ErrorIs(t, svc.Delete(ctx, "user-1", docstore.CollectionPosts, "p1"), ErrNotFound)
}

func TestService_RejectsUnknownCollectionAndBadIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, "user-1", "secrets", nil)
	assert.True(t, IsUnknownCollection(err))

	_, err = svc.Get(ctx, "user-1", docstore.CollectionPosts, "")
	assert.True(t, IsValidationError(err))

	_, err = svc.Create(ctx, "user-1", docstore.CollectionPosts, "a/b", validPost())
	assert.True(t, IsValidationError(err))

	_, err = svc.Create(ctx, "", docstore.CollectionPosts, "p1", validPost())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLoadSchemas_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	permissive := []byte(`{"type":"object"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), permissive, 0o600))

	schemas, err := LoadSchemas(dir)
	require.NoError(t, err)

	assert.NoError(t, schemas.Validate(docstore.CollectionPosts, docstore.Fields{"anything": true}))
	// users falls back to the built-in schema
	assert.Error(t, schemas.Validate(docstore.CollectionUsers, docstore.Fields{"anything": true}))
}
