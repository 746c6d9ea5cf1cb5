// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// EventType identifies a security event emitted by the credential system.
type EventType string

const (
	EventTypeKeyCreated     EventType = "key.created"
	EventTypeKeyRevoked     EventType = "key.revoked"
	EventTypeKeyRenewed     EventType = "key.renewed"
	EventTypeKeyDeleted     EventType = "key.deleted"
	EventTypeLoginSucceeded EventType = "login.succeeded"
	EventTypeLoginFailed    EventType = "login.failed"
	EventTypeUserCreated    EventType = "user.created"
)

// ValidEventTypes contains all valid event types.
var ValidEventTypes = []EventType{
	EventTypeKeyCreated,
	EventTypeKeyRevoked,
	EventTypeKeyRenewed,
	EventTypeKeyDeleted,
	EventTypeLoginSucceeded,
	EventTypeLoginFailed,
	EventTypeUserCreated,
}

// IsValidEventType checks if an event type is valid.
func IsValidEventType(et EventType) bool {
	return slices.Contains(ValidEventTypes, et)
}

// Actor types recorded on security events.
const (
	ActorTypeUser      = "user"
	ActorTypeAnonymous = "anonymous"
)

// SecurityEvent is one entry in the security audit trail.
type SecurityEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	EventType EventType `json:"event_type"`

	// Actor that triggered the event. ActorID is zero for anonymous
	// actors (e.g. a failed login for an unknown email).
	ActorID   int64  `json:"actor_id,omitempty"`
	ActorType string `json:"actor_type"`

	// Subject of the event: the email or service name involved.
	Subject string `json:"subject,omitempty"`

	// KeyID references the service key for key.* events.
	KeyID *int64 `json:"key_id,omitempty"`

	// Privacy-safe client identification: SHA256(IP + daily_salt)[0:16].
	ClientHash string `json:"client_hash,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// SecurityEventResponse is the API shape of an audit trail entry.
type SecurityEventResponse struct {
	ID         string    `json:"id"`
	EventType  EventType `json:"event_type"`
	ActorID    int64     `json:"actor_id,omitempty"`
	ActorType  string    `json:"actor_type"`
	Subject    string    `json:"subject,omitempty"`
	KeyID      *int64    `json:"key_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToResponse converts a SecurityEvent to its API shape.
// The client hash stays internal.
func (e *SecurityEvent) ToResponse() SecurityEventResponse {
	return SecurityEventResponse{
		ID:         e.ID,
		EventType:  e.EventType,
		ActorID:    e.ActorID,
		ActorType:  e.ActorType,
		Subject:    e.Subject,
		KeyID:      e.KeyID,
		OccurredAt: e.OccurredAt,
	}
}
