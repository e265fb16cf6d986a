package posts

// createLog tracks creates that a concurrent LoadAll may not see.
// A post is pending from its optimistic insert until its store call settles.
// Posts that settle while a load is running stay in settled until every
// running load has published.
type createLog struct {
	pending []Post
	settled []Post
	loads   int
}

func removePost(posts []Post, id string) []Post {
	for i, p := range posts {
		if p.ID == id {
			return append(posts[:i:i], posts[i+1:]...)
		}
	}
	return posts
}

// insertOptimistic appends the not yet persisted post to the feed.
// Returns false once the repository is closed.
func (r *Repository) insertOptimistic(post Post) bool {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	if r.closed.Load() {
		return false
	}
	r.creates.pending = append(r.creates.pending, post)
	r.feed.Upsert(post)
	return true
}

// commitCreate puts the stored post into the feed under its final id
func (r *Repository) commitCreate(localID string, stored Post) bool {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.creates.pending = removePost(r.creates.pending, localID)
	if r.closed.Load() {
		r.feed.RemoveByID(localID)
		return false
	}
	if stored.ID != localID {
		if !r.feed.Rekey(localID, stored.ID) {
			r.feed.RemoveByID(localID)
		}
	}
	r.feed.Upsert(stored)
	if r.creates.loads > 0 {
		r.creates.settled = append(r.creates.settled, stored)
	}
	return true
}

// abortCreate drops the optimistic post after a failed store call
func (r *Repository) abortCreate(localID string) {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.creates.pending = removePost(r.creates.pending, localID)
	r.feed.RemoveByID(localID)
}

// forgetCreate stops a settled create from being merged into a running load
func (r *Repository) forgetCreate(id string) {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.creates.settled = removePost(r.creates.settled, id)
}

func (r *Repository) beginLoad() {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.creates.loads++
}

// endLoad finishes a load started with beginLoad. When loaded is non-nil the
// feed is replaced by it plus every create the query may have missed.
// Returns false if the repository closed before the feed could be replaced.
func (r *Repository) endLoad(loaded []Post) bool {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.creates.loads--
	defer func() {
		if r.creates.loads == 0 {
			r.creates.settled = nil
		}
	}()

	if loaded == nil {
		return true
	}
	if r.closed.Load() {
		return false
	}

	seen := make(map[string]bool, len(loaded))
	for _, p := range loaded {
		seen[p.ID] = true
	}
	merged := loaded
	for _, group := range [][]Post{r.creates.settled, r.creates.pending} {
		for _, p := range group {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	r.feed.ReplaceAll(merged)
	return true
}
