package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/securebridge/securebridge/internal/model"
)

// Publisher creates webhook delivery records for security events.
// It implements audit.Notifier.
type Publisher struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPublisher creates a new webhook publisher.
func NewPublisher(repo *Repository, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		logger: logger.With("component", "webhook.publisher"),
	}
}

// Notify fans a security event out to the owner's subscribed endpoints.
// Anonymous events have no owner and are skipped.
func (p *Publisher) Notify(ctx context.Context, event *model.SecurityEvent) error {
	if event.ActorType != model.ActorTypeUser || event.ActorID <= 0 {
		return nil
	}

	endpoints, err := p.repo.ListActiveEndpointsByOwnerAndEvent(ctx, event.ActorID, event.EventType)
	if err != nil {
		return fmt.Errorf("list active endpoints: %w", err)
	}

	if len(endpoints) == 0 {
		return nil // No webhooks configured
	}

	// Build payload once, reuse for all endpoints
	data := map[string]any{
		"actor_id":   event.ActorID,
		"actor_type": event.ActorType,
	}
	if event.Subject != "" {
		data["subject"] = event.Subject
	}
	if event.KeyID != nil {
		data["key_id"] = *event.KeyID
	}

	payload := model.WebhookPayload{
		EventType: string(event.EventType),
		EventID:   event.ID,
		Timestamp: event.OccurredAt,
		Data:      data,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Create delivery for each endpoint
	now := time.Now()
	for _, endpoint := range endpoints {
		delivery := &model.WebhookDelivery{
			ID:           ulid.Make().String(),
			EndpointID:   endpoint.ID,
			EventID:      event.ID,
			EventType:    event.EventType,
			PayloadJSON:  string(payloadJSON),
			Status:       model.DeliveryStatusPending,
			AttemptCount: 0,
			MaxAttempts:  DefaultMaxAttempts,
			NextRetryAt:  now, // Immediate delivery
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
			p.logger.Warn("failed to create delivery",
				"endpoint_id", endpoint.ID,
				"event_id", event.ID,
				"error", err,
			)
			// Continue with other endpoints
			continue
		}

		p.logger.Debug("webhook delivery created",
			"delivery_id", delivery.ID,
			"endpoint_id", endpoint.ID,
			"event_id", event.ID,
		)
	}

	return nil
}
