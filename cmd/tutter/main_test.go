package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tutter/internal/config"
	"Tutter/internal/core/accounts"
	"Tutter/internal/core/docstore"
	"Tutter/internal/core/posts"
	"Tutter/internal/db/sqlite"
)

func newLocalApp(t *testing.T) (*app, *bytes.Buffer, *sqlite.DocumentRepo) {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "tutter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cfg := config.DefaultConfig()
	out := &bytes.Buffer{}
	return &app{
		out:       out,
		errOut:    io.Discard,
		store:     repo,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:       &cfg,
		principal: localPrincipal,
		local:     true,
	}, out, repo
}

func TestLocalCommands(t *testing.T) {
	a, out, repo := newLocalApp(t)
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "post", []string{"hello", "world"}))
	assert.Contains(t, out.String(), "hello world")

	docs, err := repo.Query(ctx, docstore.CollectionPosts, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	id := docs[0].ID

	require.NoError(t, a.dispatch(ctx, "like", []string{id}))
	require.NoError(t, a.dispatch(ctx, "comment", []string{id, "nice", "post"}))

	doc, err := repo.GetByID(ctx, docstore.CollectionPosts, id)
	require.NoError(t, err)
	p := posts.FromDocument(*doc)
	assert.True(t, p.Liked)
	assert.Equal(t, 1, p.LikeCount)
	assert.Equal(t, []string{"nice post"}, p.Comments)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "feed", nil))
	assert.Contains(t, out.String(), "> nice post")

	require.NoError(t, a.dispatch(ctx, "delete", []string{id}))
	_, err = repo.GetByID(ctx, docstore.CollectionPosts, id)
	assert.True(t, docstore.IsNotFound(err))
}

func TestLocalProfileEdit(t *testing.T) {
	a, out, repo := newLocalApp(t)
	ctx := context.Background()

	err := a.dispatch(ctx, "profile", []string{"edit", "-name", "Ann", "-email", "not-an-email"})
	require.Error(t, err)

	require.NoError(t, a.dispatch(ctx, "profile", []string{"edit", "-name", "Ann", "-email", "ann@example.com", "-age", "30", "-avatar", "🦊"}))
	doc, err := repo.GetByID(ctx, docstore.CollectionUsers, localPrincipal)
	require.NoError(t, err)
	assert.Equal(t, "Ann", doc.Fields["name"])

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "profile", nil))
	assert.Contains(t, out.String(), "🦊 Ann")
	assert.Contains(t, out.String(), "30")
}

func TestLocalCommandsReportNotices(t *testing.T) {
	a, _, _ := newLocalApp(t)
	errOut := &bytes.Buffer{}
	a.errOut = errOut
	ctx := context.Background()

	err := a.dispatch(ctx, "like", []string{"no-such-post"})
	assert.Error(t, err)
	assert.Contains(t, errOut.String(), "notice: ")
	assert.Equal(t, 1, strings.Count(errOut.String(), "notice: "))

	errOut.Reset()
	require.NoError(t, a.dispatch(ctx, "feed", nil))
	assert.Empty(t, errOut.String(), "each session starts without notices")
}

func TestDispatch_Errors(t *testing.T) {
	a, _, _ := newLocalApp(t)
	ctx := context.Background()

	assert.Error(t, a.dispatch(ctx, "frobnicate", nil))
	assert.Error(t, a.dispatch(ctx, "like", nil))
	assert.Error(t, a.dispatch(ctx, "post", []string{"   "}))
	assert.Error(t, a.dispatch(ctx, "watch", nil))
	assert.Error(t, a.dispatch(ctx, "signup", nil))
	assert.Error(t, a.dispatch(ctx, "profile", []string{"edit"}))
}

func TestCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	_, err := loadCredentials(path)
	assert.ErrorIs(t, err, errNotSignedIn)

	require.NoError(t, saveCredentials(path, "http://localhost:8081", &accounts.SessionResponse{
		PrincipalID: "user-1", Username: "ann", Email: "ann@example.com", AccessJwt: "jwt",
	}))

	creds, err := loadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "user-1", creds.PrincipalID)
	assert.Equal(t, "http://localhost:8081", creds.Server)
	assert.Equal(t, "jwt", creds.AccessJwt)

	require.NoError(t, removeCredentials(path))
	require.NoError(t, removeCredentials(path))
	_, err = loadCredentials(path)
	assert.ErrorIs(t, err, errNotSignedIn)
}
