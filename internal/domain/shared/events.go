package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a match request or a club membership.
const (
	// Match request events
	EventMatchRequestCreated   EventType = "match_request.created"
	EventMatchRequestAccepted  EventType = "match_request.accepted"
	EventMatchRequestDeclined  EventType = "match_request.declined"
	EventMatchRequestCancelled EventType = "match_request.cancelled"
	EventMatchRequestExpired   EventType = "match_request.expired"

	// Membership events
	EventMembershipRequested EventType = "membership.requested"
	EventMembershipApproved  EventType = "membership.approved"
	EventMembershipRejected  EventType = "membership.rejected"

	// Profile events
	EventBoxerProfileUpdated EventType = "boxer.profile_updated"
)

// Event is a domain event ready for publication.
type Event struct {
	Type          EventType      `json:"type"`
	AggregateID   string         `json:"aggregate_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Version       int            `json:"version"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// NewEvent creates a new event.
func NewEvent(eventType EventType, aggregateID string, occurredAt time.Time, payload map[string]any) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  occurredAt.UTC(),
		Version:     1,
		Payload:     payload,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e Event) WithCorrelationID(id string) Event {
	e.CorrelationID = id
	return e
}

// EventPublisher defines the interface for publishing events.
// Publishing happens after the state change is persisted; callers treat
// failures as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
