package changes

import (
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 64

// Hub fans committed writes out to subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event
// and has its Dropped counter increased.
type Hub struct {
	subs   map[uint64]*Subscription
	logger *slog.Logger
	seq    uint64
	nextID uint64
	buffer int
	mu     sync.Mutex
}

// Subscription receives events for one collection, or all collections when
// the collection is empty.
type Subscription struct {
	hub        *Hub
	ch         chan Event
	collection string
	id         uint64
	dropped    uint64
	closed     bool
}

// NewHub creates a hub with the given per-subscriber buffer
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Publish assigns the next sequence number to ev and delivers it
func (h *Hub) Publish(ev Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev.Seq = h.seq

	for _, sub := range h.subs {
		if sub.collection != "" && sub.collection != ev.Collection {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
			h.logger.Warn("dropping change event for slow subscriber",
				"subscriber", sub.id, "seq", ev.Seq, "dropped", sub.dropped)
		}
	}
	return ev
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe(collection string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		hub:        h,
		id:         h.nextID,
		collection: collection,
		ch:         make(chan Event, h.buffer),
	}
	h.subs[sub.id] = sub
	return sub
}

// Subscribers returns the number of active subscribers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Events returns the channel of delivered events. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Dropped returns how many events this subscriber missed
func (s *Subscription) Dropped() uint64 {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}

// Close unregisters the subscriber and closes its channel
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.hub.subs, s.id)
	close(s.ch)
}
