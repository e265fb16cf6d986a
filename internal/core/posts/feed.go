package posts

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the feed.
// Posts is in display order and must not be modified by callers.
type Snapshot struct {
	index   map[string]int
	Posts   []Post
	Version uint64
}

// Len returns the number of posts in the snapshot
func (s *Snapshot) Len() int {
	return len(s.Posts)
}

// Find returns the post with the given id
func (s *Snapshot) Find(id string) (Post, bool) {
	i, ok := s.index[id]
	if !ok {
		return Post{}, false
	}
	return s.Posts[i], true
}

// Feed is the local ordered collection of posts.
// Every mutation builds a new Snapshot and publishes it atomically, so readers
// never see a partial update. Writers are serialized by mu.
type Feed struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	f := &Feed{}
	f.current.Store(&Snapshot{index: map[string]int{}, Posts: []Post{}})
	return f
}

// Snapshot returns the current snapshot
func (f *Feed) Snapshot() *Snapshot {
	return f.current.Load()
}

// Posts returns a copy of the posts in display order
func (f *Feed) Posts() []Post {
	snap := f.current.Load()
	out := make([]Post, len(snap.Posts))
	for i, p := range snap.Posts {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the post with the given id
func (f *Feed) Get(id string) (Post, bool) {
	p, ok := f.current.Load().Find(id)
	if !ok {
		return Post{}, false
	}
	return p.Clone(), true
}

// ReplaceAll swaps the whole feed for posts, keeping their order.
// Later duplicates of an id replace earlier ones in place.
func (f *Feed) ReplaceAll(posts []Post) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]Post, 0, len(posts))
	index := make(map[string]int, len(posts))
	for _, p := range posts {
		if i, ok := index[p.ID]; ok {
			next[i] = p.Clone()
			continue
		}
		index[p.ID] = len(next)
		next = append(next, p.Clone())
	}
	f.publish(next, index)
}

// Upsert replaces the post with the same id in place, or appends it
func (f *Feed) Upsert(post Post) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	next := copyPosts(snap.Posts)
	if i, ok := snap.index[post.ID]; ok {
		next[i] = post.Clone()
	} else {
		next = append(next, post.Clone())
	}
	f.publish(next, nil)
}

// Replace overwrites the post with the same id in place.
// Returns false and leaves the feed untouched if the id is missing.
func (f *Feed) Replace(post Post) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	i, ok := snap.index[post.ID]
	if !ok {
		return false
	}
	next := copyPosts(snap.Posts)
	next[i] = post.Clone()
	f.publish(next, snap.index)
	return true
}

// InsertAt puts post at index, clamped to the feed bounds.
// If the id is already present the existing entry is replaced in place.
func (f *Feed) InsertAt(index int, post Post) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	if i, ok := snap.index[post.ID]; ok {
		next := copyPosts(snap.Posts)
		next[i] = post.Clone()
		f.publish(next, nil)
		return
	}

	if index < 0 {
		index = 0
	}
	if index > len(snap.Posts) {
		index = len(snap.Posts)
	}
	next := make([]Post, 0, len(snap.Posts)+1)
	next = append(next, snap.Posts[:index]...)
	next = append(next, post.Clone())
	next = append(next, snap.Posts[index:]...)
	f.publish(next, nil)
}

// RemoveByID removes the post and returns it with its former index
func (f *Feed) RemoveByID(id string) (Post, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	i, ok := snap.index[id]
	if !ok {
		return Post{}, -1, false
	}
	removed := snap.Posts[i]
	next := make([]Post, 0, len(snap.Posts)-1)
	next = append(next, snap.Posts[:i]...)
	next = append(next, snap.Posts[i+1:]...)
	f.publish(next, nil)
	return removed.Clone(), i, true
}

// Rekey changes the id of a post without moving it.
// Returns false if oldID is missing or newID is already taken.
func (f *Feed) Rekey(oldID, newID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	i, ok := snap.index[oldID]
	if !ok {
		return false
	}
	if _, taken := snap.index[newID]; taken {
		return false
	}
	next := copyPosts(snap.Posts)
	next[i].ID = newID
	f.publish(next, nil)
	return true
}

// MapLikeToggle flips liked and moves likeCount by one, never below zero
func (f *Feed) MapLikeToggle(id string) (Post, bool) {
	return f.mapPost(id, func(p *Post) {
		p.Liked = !p.Liked
		if p.Liked {
			p.LikeCount++
		} else if p.LikeCount > 0 {
			p.LikeCount--
		}
	})
}

// MapCommentAppend appends text to the post's comments
func (f *Feed) MapCommentAppend(id, text string) (Post, bool) {
	return f.mapPost(id, func(p *Post) {
		p.Comments = append(p.Comments, text)
	})
}

func (f *Feed) mapPost(id string, fn func(*Post)) (Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.current.Load()
	i, ok := snap.index[id]
	if !ok {
		return Post{}, false
	}
	next := copyPosts(snap.Posts)
	updated := next[i].Clone()
	fn(&updated)
	next[i] = updated
	f.publish(next, snap.index)
	return updated.Clone(), true
}

// publish stores a new snapshot. index may be reused when ids and positions are unchanged.
// Callers must hold mu.
func (f *Feed) publish(posts []Post, index map[string]int) {
	if index == nil {
		index = make(map[string]int, len(posts))
		for i, p := range posts {
			index[p.ID] = i
		}
	}
	prev := f.current.Load()
	f.current.Store(&Snapshot{
		index:   index,
		Posts:   posts,
		Version: prev.Version + 1,
	})
}

func copyPosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	return out
}
