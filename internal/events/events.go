package events

import (
	"encoding/json"
	"time"
)

// Event types published by the engine.
const (
	TypePing           = "ping"
	TypeListingsPosted = "listings_posted"
)

// Event is one engine notification pushed to stream subscribers.
type Event struct {
	Type      string          `json:"type"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an Event of the given type carrying data (marshaled to JSON;
// nil for payload-free events like pings).
func New(typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{Type: typ, At: time.Now().UTC(), Data: raw}
}
