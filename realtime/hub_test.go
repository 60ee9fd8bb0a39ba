package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	id       string
	capacity int

	mu       sync.Mutex
	messages [][]byte
}

func newFakeSubscriber(id string, capacity int) *fakeSubscriber {
	return &fakeSubscriber{id: id, capacity: capacity}
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) >= f.capacity {
		return false
	}
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func TestHub_JoinLeave(t *testing.T) {
	t.Run("Join is idempotent", func(t *testing.T) {
		hub := NewHub()
		sub := newFakeSubscriber("a", 10)

		hub.Join(sub, "room-1")
		hub.Join(sub, "room-1")

		assert.Equal(t, 1, hub.RoomSize("room-1"))
		assert.Equal(t, 1, hub.Broadcast("room-1", []byte("x")))
		assert.Len(t, sub.received(), 1)
	})

	t.Run("Empty room is ignored", func(t *testing.T) {
		hub := NewHub()
		sub := newFakeSubscriber("a", 10)

		hub.Join(sub, "")
		assert.Equal(t, 0, hub.RoomSize(""))
	})

	t.Run("Leave of a room never joined is a no-op", func(t *testing.T) {
		hub := NewHub()
		sub := newFakeSubscriber("a", 10)
		other := newFakeSubscriber("b", 10)
		hub.Join(other, "room-1")

		hub.Leave(sub, "room-1")
		hub.Leave(sub, "missing")

		assert.Equal(t, 1, hub.RoomSize("room-1"))
	})

	t.Run("Leave stops delivery", func(t *testing.T) {
		hub := NewHub()
		sub := newFakeSubscriber("a", 10)
		hub.Join(sub, "room-1")
		hub.Leave(sub, "room-1")

		assert.Equal(t, 0, hub.Broadcast("room-1", []byte("x")))
		assert.Empty(t, sub.received())
	})

	t.Run("LeaveAll removes every membership", func(t *testing.T) {
		hub := NewHub()
		sub := newFakeSubscriber("a", 10)
		hub.Join(sub, "room-1")
		hub.Join(sub, "room-2")

		hub.LeaveAll(sub)

		assert.Equal(t, 0, hub.RoomSize("room-1"))
		assert.Equal(t, 0, hub.RoomSize("room-2"))
		hub.LeaveAll(sub)
	})
}

func TestHub_Publish(t *testing.T) {
	t.Run("Only members of the room receive the event", func(t *testing.T) {
		hub := NewHub()
		member := newFakeSubscriber("member", 10)
		outsider := newFakeSubscriber("outsider", 10)
		hub.Join(member, "q1")
		hub.Join(outsider, "q2")

		payload := map[string]any{"question_id": "q1", "answers": []string{"a"}}
		require.NoError(t, hub.Publish(context.Background(), "q1", EventNewAnswer, payload))

		got := member.received()
		require.Len(t, got, 1)
		assert.Empty(t, outsider.received())

		var msg Message
		require.NoError(t, json.Unmarshal(got[0], &msg))
		assert.Equal(t, EventNewAnswer, msg.Event)
		assert.JSONEq(t, `{"question_id":"q1","answers":["a"]}`, string(msg.Data))
	})

	t.Run("Publishing to an empty room is fine", func(t *testing.T) {
		hub := NewHub()
		assert.NoError(t, hub.Publish(context.Background(), "nobody", EventNewAnswer, map[string]string{}))
	})

	t.Run("Unencodable payload returns an error", func(t *testing.T) {
		hub := NewHub()
		err := hub.Publish(context.Background(), "q1", EventNewAnswer, make(chan int))
		assert.Error(t, err)
	})

	t.Run("Full subscriber misses the frame without blocking others", func(t *testing.T) {
		hub := NewHub()
		slow := newFakeSubscriber("slow", 0)
		fast := newFakeSubscriber("fast", 10)
		hub.Join(slow, "q1")
		hub.Join(fast, "q1")

		assert.Equal(t, 1, hub.Broadcast("q1", []byte("x")))
		assert.Empty(t, slow.received())
		assert.Len(t, fast.received(), 1)
	})
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := newFakeSubscriber(fmt.Sprintf("sub-%d", i), 100)
			room := fmt.Sprintf("room-%d", i%3)
			for j := 0; j < 50; j++ {
				hub.Join(sub, room)
				hub.Broadcast(room, []byte("x"))
				hub.Leave(sub, room)
			}
			hub.LeaveAll(sub)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, hub.RoomSize(fmt.Sprintf("room-%d", i)))
	}
}
