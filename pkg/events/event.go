package events

import (
	"encoding/json"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_EXCHANGE_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() json.RawMessage

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the wire envelope shared by all events.
type BaseEvent struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() json.RawMessage {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New wraps data in an envelope of the given type.
func New(eventType string, data any, occurredAt time.Time) (BaseEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return BaseEvent{}, err
	}
	return BaseEvent{Type: eventType, Data: raw, OccurredAt: occurredAt}, nil
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(BaseEvent{
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	})
}

func Decode(raw []byte) (BaseEvent, error) {
	var e BaseEvent
	err := json.Unmarshal(raw, &e)
	return e, err
}
