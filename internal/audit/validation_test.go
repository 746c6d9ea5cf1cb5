package audit

import (
	"testing"
	"time"
)

func TestValidateEventPayload(t *testing.T) {
	valid := EventPayload{
		EventType:  "key.created",
		ActorID:    42,
		ActorType:  "user",
		Subject:    "billing-reporter",
		KeyID:      7,
		ClientHash: "0123456789abcdef",
		OccurredAt: time.Now().UnixMilli(),
	}

	if err := ValidateEventPayload(valid); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	anonymous := EventPayload{
		EventType:  "login.failed",
		ActorType:  "anonymous",
		Subject:    "unknown@example.com",
		OccurredAt: time.Now().UnixMilli(),
	}
	if err := ValidateEventPayload(anonymous); err != nil {
		t.Fatalf("expected valid anonymous payload, got %v", err)
	}

	cases := []struct {
		name    string
		payload EventPayload
	}{
		{"missing_event_type", EventPayload{ActorType: "user", ActorID: 1, OccurredAt: 1}},
		{"unknown_event_type", EventPayload{EventType: "link.clicked", ActorType: "user", ActorID: 1, OccurredAt: 1}},
		{"unknown_actor_type", EventPayload{EventType: "key.created", ActorType: "robot", ActorID: 1, OccurredAt: 1}},
		{"user_without_actor_id", EventPayload{EventType: "key.created", ActorType: "user", OccurredAt: 1}},
		{"invalid_client_hash", EventPayload{EventType: "key.created", ActorType: "user", ActorID: 1, ClientHash: "not-hex", OccurredAt: 1}},
		{"missing_occurred_at", EventPayload{EventType: "key.created", ActorType: "user", ActorID: 1}},
	}

	for _, tc := range cases {
		if err := ValidateEventPayload(tc.payload); err == nil {
			t.Fatalf("expected error for %s", tc.name)
		}
	}
}
