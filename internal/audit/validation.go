// Package audit provides security event capture and processing.
package audit

import (
	"fmt"

	"github.com/securebridge/securebridge/internal/model"
)

const (
	maxSubjectLength = 254
	clientHashLength = 16
)

// ValidateEventPayload validates security event payload fields.
func ValidateEventPayload(payload EventPayload) error {
	if payload.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if !model.IsValidEventType(model.EventType(payload.EventType)) {
		return fmt.Errorf("unknown event_type %q", payload.EventType)
	}
	if payload.ActorType != model.ActorTypeUser && payload.ActorType != model.ActorTypeAnonymous {
		return fmt.Errorf("unknown actor_type %q", payload.ActorType)
	}
	if payload.ActorType == model.ActorTypeUser && payload.ActorID <= 0 {
		return fmt.Errorf("actor_id is required for user events")
	}
	if len(payload.Subject) > maxSubjectLength {
		return fmt.Errorf("subject too long")
	}
	if payload.ClientHash != "" && (len(payload.ClientHash) != clientHashLength || !isHex(payload.ClientHash)) {
		return fmt.Errorf("client_hash must be %d hex chars", clientHashLength)
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}

func isHex(value string) bool {
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F') {
			continue
		}
		return false
	}
	return true
}
