package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Event is a domain event describing something that happened to an order.
// Events are emitted best-effort after a transition commits; they are a
// notification surface, never a source of truth.
type Event struct {
	ID        string         `json:"id"`
	Key       string         `json:"key"`
	OrderID   uuid.UUID      `json:"order_id"`
	ActorID   *uuid.UUID     `json:"actor_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an event for an order with an auto-generated ID and timestamp.
// Actor may be nil for events raised by automatic transitions.
func New(key string, o *order.Order, actor *order.Actor, payload map[string]any) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		Key:       key,
		OrderID:   o.ID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	if actor != nil {
		id := actor.ID
		e.ActorID = &id
	}
	return e
}

// PayloadString retrieves a string value from the payload, or "" if absent.
func (e *Event) PayloadString(key string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
