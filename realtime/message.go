// Package realtime implements per-question rooms and pushes events to websocket
// subscribers of a room.
package realtime

import (
	"context"
	"encoding/json"
)

// Event names exchanged over the websocket.
const (
	EventJoinRoom  = "join_room"
	EventLeaveRoom = "leave_room"
	EventNewAnswer = "new_answer"
)

// Message is one websocket frame: {"event": "...", "data": {...}}.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRequest is the payload of join_room and leave_room.
type RoomRequest struct {
	QuestionID string `json:"question_id"`
}

// Publisher delivers an event to every subscriber of a room. Delivery is best-effort:
// there is no acknowledgment and no retry.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// Encode builds the frame for event with payload as its data.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: data})
}
