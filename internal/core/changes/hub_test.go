package changes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tutter/internal/core/docstore"
)

func TestHub_PublishAssignsSequence(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe("")
	defer sub.Close()

	first := hub.Publish(Event{Type: EventCreate, Collection: "posts", ID: "p1"})
	second := hub.Publish(Event{Type: EventDelete, Collection: "posts", ID: "p1"})
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)

	got := <-sub.Events()
	assert.Equal(t, EventCreate, got.Type)
	got = <-sub.Events()
	assert.Equal(t, EventDelete, got.Type)
}

func TestHub_FiltersByCollection(t *testing.T) {
	hub := NewHub(4, nil)
	postsSub := hub.Subscribe("posts")
	defer postsSub.Close()

	hub.Publish(Event{Type: EventUpdate, Collection: "users", ID: "u1"})
	hub.Publish(Event{Type: EventUpdate, Collection: "posts", ID: "p1"})

	got := <-postsSub.Events()
	assert.Equal(t, "p1", got.ID)
	assert.Empty(t, postsSub.Events())
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe("")
	defer sub.Close()

	hub.Publish(Event{ID: "a"})
	hub.Publish(Event{ID: "b"})
	hub.Publish(Event{ID: "c"})

	assert.Equal(t, uint64(2), sub.Dropped())
	assert.Equal(t, "a", (<-sub.Events()).ID)
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe("")
	require.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after close must not panic
	hub.Publish(Event{ID: "x"})
}

func TestEvent_DocumentCopiesFields(t *testing.T) {
	ev := Event{ID: "p1", Fields: docstore.Fields{"content": "hi"}}
	doc := ev.Document()
	doc.Fields["content"] = "changed"
	assert.Equal(t, "hi", ev.Fields["content"])
}
