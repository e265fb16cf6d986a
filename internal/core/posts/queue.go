package posts

import (
	"context"
	"sync"
)

// keyedQueue runs functions one at a time per key, in arrival order.
// Different keys run in parallel.
type keyedQueue struct {
	tails map[string]chan struct{}
	mu    sync.Mutex
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{tails: make(map[string]chan struct{})}
}

// Do waits for earlier work on key to settle, then runs fn.
// If ctx ends while waiting, fn is not run and ctx.Err() is returned; later
// callers still wait for the earlier work.
func (q *keyedQueue) Do(ctx context.Context, key string, fn func()) error {
	done := make(chan struct{})

	q.mu.Lock()
	prev := q.tails[key]
	q.tails[key] = done
	q.mu.Unlock()

	release := func() {
		q.mu.Lock()
		if q.tails[key] == done {
			delete(q.tails, key)
		}
		q.mu.Unlock()
		close(done)
	}

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				release()
			}()
			return ctx.Err()
		}
	}

	defer release()
	fn()
	return nil
}

// pending reports how many keys currently have queued or running work
func (q *keyedQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}
