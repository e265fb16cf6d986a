package notices

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of notices kept before the oldest are dropped
const DefaultCapacity = 50

// Notice is a dismissable message about a failed operation
type Notice struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Message   string    `json:"message"`
}

// ErrNoticeNotFound is returned when dismissing an unknown notice
var ErrNoticeNotFound = errors.New("notice not found")

// Center collects notices for the current session.
// It satisfies posts.Notifier and profiles.Notifier.
type Center struct {
	now      func() time.Time
	notices  []Notice
	capacity int
	mu       sync.Mutex
}

// NewCenter creates a notice center holding at most capacity notices
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Center{capacity: capacity, now: time.Now}
}

// Notify records a failed operation
func (c *Center) Notify(op string, err error) {
	if err == nil {
		return
	}
	c.Post(op, fmt.Sprintf("%s failed: %v", op, err))
}

// Post adds a notice and returns it
func (c *Center) Post(op, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Op:        op,
		Message:   message,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
	if over := len(c.notices) - c.capacity; over > 0 {
		c.notices = append([]Notice(nil), c.notices[over:]...)
	}
	return n
}

// List returns the notices, oldest first
func (c *Center) List() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// Dismiss removes a notice
func (c *Center) Dismiss(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i:i], c.notices[i+1:]...)
			return nil
		}
	}
	return ErrNoticeNotFound
}

// Clear removes every notice
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = nil
}
