// Package hub streams dashboard events to websocket viewers.
package hub

import (
	"encoding/json"
	"time"
)

// Message is one pre-encoded JSON frame queued for every viewer.
type Message struct {
	Data []byte
}

func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// Event types sent to dashboard clients.
const (
	EventStrum        = "strum"
	EventBeat         = "beat"
	EventMilestone    = "milestone"
	EventAnnouncement = "announcement"
	EventState        = "state"
)

// Event is the JSON envelope of every dashboard message.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// RawEvent is an Event as decoded by a client, with Data left encoded.
type RawEvent struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ string, data any) Event {
	return Event{Type: typ, Time: time.Now(), Data: data}
}
