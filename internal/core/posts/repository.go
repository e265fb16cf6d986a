package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"Tutter/internal/core/docstore"
)

// DefaultStoreTimeout bounds every store call made by the repository
const DefaultStoreTimeout = 5 * time.Second

// Repository mediates between the local Feed and the document store.
// Mutations are applied to the feed optimistically, persisted, then either
// reconciled with the store's answer or rolled back.
type Repository struct {
	store    docstore.Store
	feed     *Feed
	queue    *keyedQueue
	notifier Notifier
	logger   *slog.Logger
	newID    func() string
	timeout  time.Duration
	closed   atomic.Bool

	createMu sync.Mutex
	creates  createLog
}

// RepositoryOption configures the repository
type RepositoryOption func(*Repository)

// WithStoreTimeout sets the per-call store timeout
func WithStoreTimeout(timeout time.Duration) RepositoryOption {
	return func(r *Repository) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier reports failed operations to n
func WithNotifier(n Notifier) RepositoryOption {
	return func(r *Repository) {
		r.notifier = n
	}
}

// WithIDGenerator replaces the UUID generator used for new posts
func WithIDGenerator(fn func() string) RepositoryOption {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRepository creates a repository writing to feed
func NewRepository(store docstore.Store, feed *Feed, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:   store,
		feed:    feed,
		queue:   newKeyedQueue(),
		logger:  slog.Default(),
		newID:   uuid.NewString,
		timeout: DefaultStoreTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Feed returns the feed this repository writes to
func (r *Repository) Feed() *Feed {
	return r.feed
}

// Close ends the session. Results of in-flight store calls are dropped
// instead of being applied, and new operations fail with ErrSessionClosed.
func (r *Repository) Close() {
	r.createMu.Lock()
	swapped := r.closed.CompareAndSwap(false, true)
	r.createMu.Unlock()

	if swapped {
		r.logger.Debug("post repository closed")
	}
}

// Closed reports whether Close has been called
func (r *Repository) Closed() bool {
	return r.closed.Load()
}

// LoadAll replaces the feed with every post in the store, in store order.
// Creates still in flight, or settled after the query started, are kept at
// the end. On failure the previous feed is kept.
func (r *Repository) LoadAll(ctx context.Context) ([]Post, error) {
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}

	r.beginLoad()
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	docs, err := r.store.Query(callCtx, docstore.CollectionPosts, nil)
	cancel()

	if r.closed.Load() {
		r.endLoad(nil)
		return nil, ErrSessionClosed
	}
	if err != nil {
		r.endLoad(nil)
		err = r.mapStoreError(err)
		r.fail(OpLoadAll, "", err)
		return nil, err
	}

	loaded := make([]Post, 0, len(docs))
	for _, doc := range docs {
		loaded = append(loaded, FromDocument(doc))
	}
	if !r.endLoad(loaded) {
		return nil, ErrSessionClosed
	}

	r.logger.Debug("feed loaded", "posts", len(loaded))
	return r.feed.Posts(), nil
}

// Create validates content, appends a new post optimistically and persists it.
// Once persisted the post is in the feed exactly once, under the id the store assigned.
func (r *Repository) Create(ctx context.Context, content string) (*Post, error) {
	trimmed, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}

	localID := r.newID()
	var post *Post
	var opErr error
	if err := r.queue.Do(ctx, localID, func() {
		post, opErr = r.create(ctx, localID, trimmed)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return post, opErr
}

func (r *Repository) create(ctx context.Context, localID, content string) (*Post, error) {
	optimistic := Post{
		ID:       localID,
		Content:  content,
		Liked:    false,
		Comments: []string{},
	}
	if !r.insertOptimistic(optimistic) {
		return nil, ErrSessionClosed
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	storedID, err := r.store.Create(callCtx, docstore.CollectionPosts, localID, optimistic.Fields())
	cancel()

	if r.closed.Load() {
		r.abortCreate(localID)
		return nil, ErrSessionClosed
	}
	if err != nil {
		r.abortCreate(localID)
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		r.fail(OpCreate, localID, err)
		return nil, err
	}

	if storedID != "" && storedID != localID {
		r.logger.Debug("store assigned post id", "local_id", localID, "store_id", storedID)
		optimistic.ID = storedID
	}
	if !r.commitCreate(localID, optimistic) {
		return nil, ErrSessionClosed
	}

	r.logger.Debug("post created", "post_id", optimistic.ID)
	return &optimistic, nil
}

// ToggleLike flips the liked flag of the persisted post and adjusts likeCount by one.
// Operations on the same post are serialized.
func (r *Repository) ToggleLike(ctx context.Context, postID string) (*Post, error) {
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}

	var post *Post
	var opErr error
	if err := r.queue.Do(ctx, postID, func() {
		post, opErr = r.toggleLike(ctx, postID)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return post, opErr
}

func (r *Repository) toggleLike(ctx context.Context, postID string) (*Post, error) {
	persisted, err := r.read(ctx, postID)
	if err != nil {
		r.fail(OpToggleLike, postID, err)
		return nil, err
	}

	prev, hadLocal := r.feed.Get(postID)
	r.feed.Upsert(persisted)
	optimistic, _ := r.feed.MapLikeToggle(postID)

	err = r.update(ctx, postID, docstore.Fields{
		fieldLiked:     optimistic.Liked,
		fieldLikeCount: optimistic.LikeCount,
	})
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}
	if err != nil {
		r.rollback(postID, prev, hadLocal)
		r.fail(OpToggleLike, postID, err)
		return nil, err
	}

	return &optimistic, nil
}

// AddComment appends text to the persisted comments of the post.
// Operations on the same post are serialized, so concurrent comments are all kept.
func (r *Repository) AddComment(ctx context.Context, postID, text string) (*Post, error) {
	trimmed, err := ValidateComment(text)
	if err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}

	var post *Post
	var opErr error
	if err := r.queue.Do(ctx, postID, func() {
		post, opErr = r.addComment(ctx, postID, trimmed)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return post, opErr
}

func (r *Repository) addComment(ctx context.Context, postID, text string) (*Post, error) {
	persisted, err := r.read(ctx, postID)
	if err != nil {
		r.fail(OpAddComment, postID, err)
		return nil, err
	}

	prev, hadLocal := r.feed.Get(postID)
	r.feed.Upsert(persisted)
	optimistic, _ := r.feed.MapCommentAppend(postID, text)

	err = r.update(ctx, postID, docstore.Fields{
		fieldComments: optimistic.Comments,
	})
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}
	if err != nil {
		r.rollback(postID, prev, hadLocal)
		r.fail(OpAddComment, postID, err)
		return nil, err
	}

	return &optimistic, nil
}

// DeleteByID removes the post locally and from the store.
// A post already missing from the store counts as deleted.
func (r *Repository) DeleteByID(ctx context.Context, postID string) error {
	if r.closed.Load() {
		return ErrSessionClosed
	}

	var opErr error
	if err := r.queue.Do(ctx, postID, func() {
		opErr = r.deleteByID(ctx, postID)
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return opErr
}

func (r *Repository) deleteByID(ctx context.Context, postID string) error {
	r.forgetCreate(postID)
	removed, index, wasLocal := r.feed.RemoveByID(postID)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	err := r.store.DeleteByID(callCtx, docstore.CollectionPosts, postID)
	cancel()

	if r.closed.Load() {
		return ErrSessionClosed
	}
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			r.logger.Info("post already deleted from store", "post_id", postID)
			return nil
		}
		if wasLocal {
			r.feed.InsertAt(index, removed)
		}
		err = r.mapStoreError(err)
		r.fail(OpDelete, postID, err)
		return err
	}

	r.logger.Debug("post deleted", "post_id", postID)
	return nil
}

// ApplyRemoteUpsert reconciles a post created or updated by another client
func (r *Repository) ApplyRemoteUpsert(ctx context.Context, doc docstore.Document) error {
	if r.closed.Load() {
		return ErrSessionClosed
	}
	return r.queue.Do(ctx, doc.ID, func() {
		if r.closed.Load() {
			return
		}
		r.feed.Upsert(FromDocument(doc))
	})
}

// ApplyRemoteDelete reconciles a post deleted by another client
func (r *Repository) ApplyRemoteDelete(ctx context.Context, postID string) error {
	if r.closed.Load() {
		return ErrSessionClosed
	}
	return r.queue.Do(ctx, postID, func() {
		if r.closed.Load() {
			return
		}
		r.forgetCreate(postID)
		r.feed.RemoveByID(postID)
	})
}

// read fetches the persisted post
func (r *Repository) read(ctx context.Context, postID string) (Post, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	doc, err := r.store.GetByID(callCtx, docstore.CollectionPosts, postID)
	cancel()

	if r.closed.Load() {
		return Post{}, ErrSessionClosed
	}
	if err != nil {
		return Post{}, r.mapStoreError(err)
	}
	return FromDocument(*doc), nil
}

func (r *Repository) update(ctx context.Context, postID string, fields docstore.Fields) error {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.UpdateFields(callCtx, docstore.CollectionPosts, postID, fields); err != nil {
		return r.mapStoreError(err)
	}
	return nil
}

// rollback restores the feed entry to what it was before the optimistic mutation.
// A post removed from the feed in the meantime stays removed.
func (r *Repository) rollback(postID string, prev Post, hadLocal bool) {
	if hadLocal {
		r.feed.Replace(prev)
		return
	}
	r.feed.RemoveByID(postID)
}

// mapStoreError converts store errors to the post error taxonomy.
// Timeouts and every non-NotFound failure become ErrStoreUnavailable.
func (r *Repository) mapStoreError(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (r *Repository) fail(op, postID string, err error) {
	if errors.Is(err, ErrSessionClosed) {
		return
	}
	r.logger.Warn("post operation failed", "op", op, "post_id", postID, "error", err)
	if r.notifier != nil {
		r.notifier.Notify(op, err)
	}
}
