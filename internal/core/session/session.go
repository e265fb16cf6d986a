package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"Tutter/internal/core/changes"
	"Tutter/internal/core/docstore"
	"Tutter/internal/core/notices"
	"Tutter/internal/core/posts"
	"Tutter/internal/core/profiles"
)

var (
	// ErrNoPrincipal is returned when opening a session without a principal id
	ErrNoPrincipal = errors.New("principal id is required")

	// ErrSignedOut is returned when using a session after SignOut
	ErrSignedOut = errors.New("session is signed out")
)

// Options configures a session
type Options struct {
	Logger *slog.Logger
	// StoreTimeout bounds every store call; zero uses the package defaults.
	StoreTimeout time.Duration
	// NoticeCapacity caps the notice list; zero uses notices.DefaultCapacity.
	NoticeCapacity int
}

// Session is the signed-in state of one principal: the feed, its
// repository, the profile editor and the notice list.
type Session struct {
	feed        *posts.Feed
	repo        *posts.Repository
	editor      *profiles.Editor
	notices     *notices.Center
	logger      *slog.Logger
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	principalID string
	mu          sync.Mutex
	signedOut   bool
}

// Open builds a session for principalID and performs the initial load of
// the profile and the feed. Load failures are posted as notices and leave
// the session usable with a blank profile or empty feed.
func Open(ctx context.Context, store docstore.Store, principalID string, opts Options) (*Session, error) {
	if principalID == "" {
		return nil, ErrNoPrincipal
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("principal", principalID)

	center := notices.NewCenter(opts.NoticeCapacity)
	feed := posts.NewFeed()

	repoOpts := []posts.RepositoryOption{posts.WithLogger(logger), posts.WithNotifier(center)}
	editorOpts := []profiles.EditorOption{profiles.WithLogger(logger), profiles.WithNotifier(center)}
	if opts.StoreTimeout > 0 {
		repoOpts = append(repoOpts, posts.WithStoreTimeout(opts.StoreTimeout))
		editorOpts = append(editorOpts, profiles.WithStoreTimeout(opts.StoreTimeout))
	}

	s := &Session{
		feed:        feed,
		repo:        posts.NewRepository(store, feed, repoOpts...),
		editor:      profiles.NewEditor(store, principalID, editorOpts...),
		notices:     center,
		logger:      logger,
		principalID: principalID,
	}

	if err := s.editor.Load(ctx); err != nil {
		logger.Warn("initial profile load failed", "error", err)
	}
	if _, err := s.repo.LoadAll(ctx); err != nil {
		logger.Warn("initial feed load failed", "error", err)
	}

	logger.Info("session opened", "posts", feed.Snapshot().Len())
	return s, nil
}

// PrincipalID returns the signed-in principal
func (s *Session) PrincipalID() string {
	return s.principalID
}

// Feed returns the feed state
func (s *Session) Feed() *posts.Feed {
	return s.feed
}

// Posts returns the post repository
func (s *Session) Posts() *posts.Repository {
	return s.repo
}

// Profile returns the profile editor
func (s *Session) Profile() *profiles.Editor {
	return s.editor
}

// Notices returns the notice list
func (s *Session) Notices() *notices.Center {
	return s.notices
}

// Refresh reloads the feed from the store
func (s *Session) Refresh(ctx context.Context) ([]posts.Post, error) {
	if s.SignedOut() {
		return nil, ErrSignedOut
	}
	return s.repo.LoadAll(ctx)
}

// ApplyChange reconciles a change made by another client. Only posts events
// affect the session; a users event for this principal reloads the profile
// when the editor is not mid-edit.
func (s *Session) ApplyChange(ctx context.Context, ev changes.Event) error {
	if s.SignedOut() {
		return ErrSignedOut
	}

	switch ev.Collection {
	case docstore.CollectionPosts:
		if ev.Type == changes.EventDelete {
			return s.repo.ApplyRemoteDelete(ctx, ev.ID)
		}
		return s.repo.ApplyRemoteUpsert(ctx, ev.Document())
	case docstore.CollectionUsers:
		if ev.ID != s.principalID || s.editor.State() != profiles.Viewing {
			return nil
		}
		err := s.editor.Load(ctx)
		if errors.Is(err, profiles.ErrInvalidState) {
			return nil
		}
		return err
	default:
		return nil
	}
}

// Watch runs follow in the background until SignOut. follow is typically a
// change subscriber feeding ApplyChange. A second call replaces nothing and
// returns false.
func (s *Session) Watch(ctx context.Context, follow func(ctx context.Context) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signedOut || s.stopWatch != nil {
		return false
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.stopWatch = cancel
	s.watchDone = done

	go func() {
		defer close(done)
		if err := follow(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("change watch stopped", "error", err)
		}
	}()
	return true
}

// SignOut stops the watch, closes the repository so in-flight operations
// drop their results, and clears local state. It is safe to call twice.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.signedOut {
		s.mu.Unlock()
		return
	}
	s.signedOut = true
	stop, done := s.stopWatch, s.watchDone
	s.mu.Unlock()

	s.repo.Close()
	if stop != nil {
		stop()
		<-done
	}
	s.feed.ReplaceAll(nil)
	s.notices.Clear()
	s.logger.Info("signed out")
}

// SignedOut reports whether SignOut has been called
func (s *Session) SignedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedOut
}
