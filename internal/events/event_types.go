package events

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered        EventType = "user_registered"
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh ULID.
func New(eventType EventType, userID string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubscriptionPayload payload shared by activation and cancellation.
type SubscriptionPayload struct {
	SubscriptionID string                    `json:"subscription_id"`
	Email          string                    `json:"email,omitempty"`
	Plan           domain.Plan               `json:"plan"`
	Price          float64                   `json:"price"`
	ExpiresAt      time.Time                 `json:"expires_at"`
	Status         domain.SubscriptionStatus `json:"status"`
}
