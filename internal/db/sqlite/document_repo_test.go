package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tutter/internal/core/docstore"
	"Tutter/internal/core/posts"
)

func openTestRepo(t *testing.T) *DocumentRepo {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tutter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestDocumentRepo_CRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, docstore.CollectionPosts, "p1", docstore.Fields{"content": "hi", "likeCount": 0})
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	_, err = repo.Create(ctx, docstore.CollectionPosts, "p1", docstore.Fields{})
	assert.ErrorIs(t, err, docstore.ErrConflict)

	require.NoError(t, repo.UpdateFields(ctx, docstore.CollectionPosts, "p1", docstore.Fields{"likeCount": 3}))

	doc, err := repo.GetByID(ctx, docstore.CollectionPosts, "p1")
	require.NoError(t, err)
	assert.Equal(t, "hi", doc.Fields["content"])
	assert.Equal(t, float64(3), doc.Fields["likeCount"])

	require.NoError(t, repo.DeleteByID(ctx, docstore.CollectionPosts, "p1"))
	assert.ErrorIs(t, repo.DeleteByID(ctx, docstore.CollectionPosts, "p1"), docstore.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateFields(ctx, docstore.CollectionPosts, "p1", docstore.Fields{}), docstore.ErrNotFound)
}

func TestDocumentRepo_QueryOrderAndFilter(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Create(ctx, docstore.CollectionPosts, id, docstore.Fields{"liked": id == "b"})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, docstore.CollectionUsers, "u1", docstore.Fields{"name": "Ann"})
	require.NoError(t, err)

	docs, err := repo.Query(ctx, docstore.CollectionPosts, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "b", docs[2].ID)

	docs, err = repo.Query(ctx, docstore.CollectionPosts, docstore.Filter{"liked": true})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)
}

func TestDocumentRepo_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutter.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	_, err = repo.Create(ctx, docstore.CollectionPosts, "p1", docstore.Fields{"content": "kept"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	doc, err := repo.GetByID(ctx, docstore.CollectionPosts, "p1")
	require.NoError(t, err)
	assert.Equal(t, "kept", doc.Fields["content"])
}

func TestDocumentRepo_BacksPostRepository(t *testing.T) {
	store := openTestRepo(t)
	ctx := context.Background()
	repo := posts.NewRepository(store, posts.NewFeed())

	created, err := repo.Create(ctx, "offline post")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, text := range []string{"one", "two", "three"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := repo.AddComment(ctx, created.ID, text)
			assert.NoError(t, err)
		}(text)
	}
	wg.Wait()

	liked, err := repo.ToggleLike(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.ElementsMatch(t, []string{"one", "two", "three"}, loaded[0].Comments)
	assert.True(t, loaded[0].Liked)
}
