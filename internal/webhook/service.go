package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/model"
)

// DefaultEventTypes are the subscriptions applied when a create request
// names none.
var DefaultEventTypes = []model.EventType{
	model.EventTypeKeyCreated,
	model.EventTypeKeyRevoked,
	model.EventTypeKeyRenewed,
	model.EventTypeKeyDeleted,
}

// Service manages webhook endpoint registration for users.
// Signing secrets are generated server-side and stored encrypted.
type Service struct {
	repo   *Repository
	cipher *auth.KeyCipher
	logger *slog.Logger
}

// NewService creates a webhook endpoint service.
func NewService(repo *Repository, cipher *auth.KeyCipher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cipher: cipher,
		logger: logger.With("component", "webhook.service"),
	}
}

// CreateEndpoint registers a new endpoint for the owner and returns the
// plaintext signing secret. The secret is not retrievable afterwards.
func (s *Service) CreateEndpoint(ctx context.Context, ownerID int64, req model.WebhookEndpointCreateRequest) (*model.WebhookEndpoint, string, error) {
	if err := ValidateTargetURL(req.TargetURL); err != nil {
		return nil, "", err
	}

	eventTypes := req.EventTypes
	if len(eventTypes) == 0 {
		eventTypes = append([]model.EventType{}, DefaultEventTypes...)
	}
	for _, et := range eventTypes {
		if !model.IsValidEventType(et) {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidEventType, et)
		}
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, "", fmt.Errorf("generate secret: %w", err)
	}

	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt secret: %w", err)
	}

	now := time.Now().UTC()
	endpoint := &model.WebhookEndpoint{
		ID:              ulid.Make().String(),
		OwnerID:         ownerID,
		TargetURL:       req.TargetURL,
		EncryptedSecret: encrypted,
		Enabled:         true,
		EventTypes:      eventTypes,
		Name:            req.Name,
		Description:     req.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateEndpoint(ctx, endpoint); err != nil {
		return nil, "", err
	}

	s.logger.Info("webhook endpoint registered",
		"endpoint_id", endpoint.ID,
		"owner_id", ownerID,
		"target_host", ExtractHost(endpoint.TargetURL),
	)

	return endpoint, secret, nil
}

// ListEndpoints returns all endpoints owned by the user.
func (s *Service) ListEndpoints(ctx context.Context, ownerID int64) ([]*model.WebhookEndpoint, error) {
	return s.repo.ListEndpointsByOwner(ctx, ownerID)
}

// UpdateEndpoint applies a partial update to an owner's endpoint.
func (s *Service) UpdateEndpoint(ctx context.Context, ownerID int64, endpointID string, req model.WebhookEndpointUpdateRequest) (*model.WebhookEndpoint, error) {
	endpoint, err := s.repo.GetEndpointForOwner(ctx, endpointID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.TargetURL != nil {
		if err := ValidateTargetURL(*req.TargetURL); err != nil {
			return nil, err
		}
		endpoint.TargetURL = *req.TargetURL
	}
	if req.Name != nil {
		endpoint.Name = *req.Name
	}
	if req.Description != nil {
		endpoint.Description = *req.Description
	}
	if req.Enabled != nil {
		endpoint.Enabled = *req.Enabled
	}
	if req.EventTypes != nil {
		for _, et := range *req.EventTypes {
			if !model.IsValidEventType(et) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, et)
			}
		}
		endpoint.EventTypes = *req.EventTypes
	}

	if err := s.repo.UpdateEndpoint(ctx, endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}

// DeleteEndpoint soft-deletes an owner's endpoint.
func (s *Service) DeleteEndpoint(ctx context.Context, ownerID int64, endpointID string) error {
	return s.repo.DeleteEndpoint(ctx, endpointID, ownerID)
}

// ListDeliveries returns delivery history for an owner's endpoint.
func (s *Service) ListDeliveries(ctx context.Context, ownerID int64, endpointID string, statuses []string, limit, offset int) ([]*model.WebhookDelivery, int, error) {
	// Ownership check first; a foreign endpoint reads as absent.
	if _, err := s.repo.GetEndpointForOwner(ctx, endpointID, ownerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListDeliveriesByEndpoint(ctx, endpointID, statuses, limit, offset)
}
