package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/middleware"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/webhook"
)

// WebhookService manages webhook endpoint registration and delivery
// history. Implemented by webhook.Service.
type WebhookService interface {
	CreateEndpoint(ctx context.Context, ownerID int64, req model.WebhookEndpointCreateRequest) (*model.WebhookEndpoint, string, error)
	ListEndpoints(ctx context.Context, ownerID int64) ([]*model.WebhookEndpoint, error)
	UpdateEndpoint(ctx context.Context, ownerID int64, endpointID string, req model.WebhookEndpointUpdateRequest) (*model.WebhookEndpoint, error)
	DeleteEndpoint(ctx context.Context, ownerID int64, endpointID string) error
	ListDeliveries(ctx context.Context, ownerID int64, endpointID string, statuses []string, limit, offset int) ([]*model.WebhookDelivery, int, error)
}

// WebhookHandler handles webhook endpoint registration. Endpoints are
// owner-scoped the same way API keys are.
type WebhookHandler struct {
	logger   *slog.Logger
	webhooks WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(logger *slog.Logger, webhooks WebhookService) *WebhookHandler {
	return &WebhookHandler{
		logger:   logger,
		webhooks: webhooks,
	}
}

// Create handles POST /api/v1/webhooks
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.WebhookEndpointCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	endpoint, secret, err := h.webhooks.CreateEndpoint(ctx, user.ID, req)
	if err != nil {
		h.writeWebhookError(w, r, err, "create")
		return
	}

	// Signing secret is shown once only
	response := model.WebhookEndpointCreateResponse{
		WebhookEndpointResponse: endpoint.ToResponse(),
		Secret:                  secret,
	}
	writeJSON(w, http.StatusCreated, response)
}

// List handles GET /api/v1/webhooks
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	endpoints, err := h.webhooks.ListEndpoints(ctx, user.ID)
	if err != nil {
		h.logger.Error("failed to list webhook endpoints",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list webhooks")
		return
	}

	responses := make([]model.WebhookEndpointResponse, 0, len(endpoints))
	for _, endpoint := range endpoints {
		responses = append(responses, endpoint.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{"webhooks": responses})
}

// Update handles PATCH /api/v1/webhooks/{webhook_id}
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.WebhookEndpointUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	endpoint, err := h.webhooks.UpdateEndpoint(ctx, user.ID, r.PathValue("webhook_id"), req)
	if err != nil {
		h.writeWebhookError(w, r, err, "update")
		return
	}

	writeJSON(w, http.StatusOK, endpoint.ToResponse())
}

// Delete handles DELETE /api/v1/webhooks/{webhook_id}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	webhookID := r.PathValue("webhook_id")
	if err := h.webhooks.DeleteEndpoint(ctx, user.ID, webhookID); err != nil {
		h.writeWebhookError(w, r, err, "delete")
		return
	}

	h.logger.Info("webhook endpoint deleted",
		slog.String("webhook_id", webhookID),
		slog.Int64("owner_id", user.ID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ListDeliveries handles GET /api/v1/webhooks/{webhook_id}/deliveries
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			switch model.DeliveryStatus(s) {
			case model.DeliveryStatusPending, model.DeliveryStatusSuccess,
				model.DeliveryStatusFailed, model.DeliveryStatusExhausted:
				statuses = append(statuses, s)
			default:
				writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Unknown delivery status: "+s)
				return
			}
		}
	}

	deliveries, total, err := h.webhooks.ListDeliveries(ctx, user.ID, r.PathValue("webhook_id"), statuses, limit, offset)
	if err != nil {
		h.writeWebhookError(w, r, err, "list deliveries for")
		return
	}

	responses := make([]model.WebhookDeliveryResponse, 0, len(deliveries))
	for _, delivery := range deliveries {
		responses = append(responses, delivery.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deliveries": responses,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// parsePagination reads limit/offset query parameters, writing a 400 on
// malformed input.
func parsePagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = 50
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Limit must be between 1 and 200")
			return 0, 0, false
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Offset must be non-negative")
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

// writeWebhookError maps webhook service errors. Unknown endpoints and
// endpoints owned by someone else get the same 404.
func (h *WebhookHandler) writeWebhookError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, webhook.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook not found")
	case errors.Is(err, webhook.ErrInvalidEventType):
		writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", err.Error())
	case isTargetURLError(err):
		writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", err.Error())
	default:
		h.logger.Error("webhook operation failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" webhook")
	}
}

func isTargetURLError(err error) bool {
	return errors.Is(err, webhook.ErrInvalidScheme) ||
		errors.Is(err, webhook.ErrPrivateIP) ||
		errors.Is(err, webhook.ErrLocalhostBlocked) ||
		errors.Is(err, webhook.ErrInvalidPort) ||
		errors.Is(err, webhook.ErrInvalidURL) ||
		errors.Is(err, webhook.ErrEmptyHost)
}
