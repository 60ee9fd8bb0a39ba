package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/metrics"
)

// Subscriber is a connection that can be placed in rooms.
type Subscriber interface {
	ID() string
	// Send queues message without blocking and reports whether it was queued.
	Send(message []byte) bool
}

// Hub is the room registry. Rooms are keyed by the string form of a question id.
// It is safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[Subscriber]struct{}
	memberships map[Subscriber]map[string]struct{}
}

// NewHub returns an empty room registry.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[Subscriber]struct{}),
		memberships: make(map[Subscriber]map[string]struct{}),
	}
}

var hubLog = logging.For("RealtimeHub")

// Join adds sub to room. Joining a room twice is a no-op.
func (h *Hub) Join(sub Subscriber, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Subscriber]struct{})
		h.rooms[room] = members
	}
	members[sub] = struct{}{}

	joined, ok := h.memberships[sub]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[sub] = joined
	}
	joined[room] = struct{}{}
	hubLog.Debugf("Subscriber %s joined room %s.", sub.ID(), room)
}

// Leave removes sub from room. Unknown rooms and non-members are ignored.
func (h *Hub) Leave(sub Subscriber, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, room)
}

// LeaveAll removes sub from every room it joined; called when a connection closes.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.memberships[sub] {
		h.removeLocked(sub, room)
	}
	delete(h.memberships, sub)
}

func (h *Hub) removeLocked(sub Subscriber, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.memberships[sub]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(h.memberships, sub)
		}
	}
}

// RoomSize returns the number of subscribers in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish encodes the event once and queues it for every current member of room.
func (h *Hub) Publish(_ context.Context, room, event string, payload any) error {
	message, err := Encode(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	h.Broadcast(room, message)
	return nil
}

// Broadcast queues an encoded frame for the members of room and returns how many
// subscribers accepted it. Slow subscribers whose queue is full miss the frame.
func (h *Hub) Broadcast(room string, message []byte) int {
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[room]))
	for sub := range h.rooms[room] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	queued := 0
	for _, sub := range members {
		if sub.Send(message) {
			queued++
			metrics.RealtimeDeliveries.WithLabelValues("queued").Inc()
		} else {
			metrics.RealtimeDeliveries.WithLabelValues("dropped").Inc()
			hubLog.Warnf("Dropped message for subscriber %s in room %s: send queue full.", sub.ID(), room)
		}
	}
	return queued
}
