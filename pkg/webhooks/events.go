package webhooks

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened.
type EventType string

const (
	// EventRegistrationCreated fires when a social login completes a
	// new member registration.
	EventRegistrationCreated EventType = "registration.created"

	// EventProductCreated fires when a product is submitted for the
	// workflow engine to process.
	EventProductCreated EventType = "product.created"
)

// Event is the payload delivered to the workflow endpoint.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		CreatedAt: time.Now(),
		Data:      data,
	}
}
