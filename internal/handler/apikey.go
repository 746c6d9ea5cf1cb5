package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/securebridge/securebridge/internal/audit"
	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/middleware"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/service"
)

// APIKeyHandler handles service key management endpoints. All routes
// require a user principal; the owner is always taken from the request
// context, never from the payload.
type APIKeyHandler struct {
	logger *slog.Logger
	keys   *service.APIKeyService
	events *audit.Publisher
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(logger *slog.Logger, keys *service.APIKeyService, events *audit.Publisher) *APIKeyHandler {
	return &APIKeyHandler{
		logger: logger,
		keys:   keys,
		events: events,
	}
}

// publishKeyEvent records a key lifecycle event for the audit trail.
func (h *APIKeyHandler) publishKeyEvent(r *http.Request, eventType model.EventType, actorID, keyID int64, serviceName string) {
	now := time.Now().UTC()
	h.events.PublishAsync(audit.EventPayload{
		EventType:  string(eventType),
		ActorID:    actorID,
		ActorType:  model.ActorTypeUser,
		Subject:    audit.TruncateSubject(serviceName),
		KeyID:      keyID,
		ClientHash: audit.GenerateClientHash(clientIP(r), now),
		OccurredAt: now.UnixMilli(),
	})
}

// Create handles POST /api/v1/keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.APIKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := middleware.ValidateServiceName(req.ServiceName); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_SERVICE_NAME", err.Error())
		return
	}
	if err := middleware.ValidateDescription(req.Description); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DESCRIPTION", err.Error())
		return
	}
	if err := middleware.ValidatePermissions(req.Permissions); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PERMISSIONS", err.Error())
		return
	}

	record, plaintext, err := h.keys.Create(ctx, user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServiceNameRequired):
			writeError(w, http.StatusBadRequest, "INVALID_SERVICE_NAME", "Service name is required")
		case errors.Is(err, service.ErrInvalidTTL):
			writeError(w, http.StatusBadRequest, "INVALID_TTL", err.Error())
		default:
			h.logger.Error("failed to create API key",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(ctx)),
			)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		}
		return
	}

	h.publishKeyEvent(r, model.EventTypeKeyCreated, user.ID, record.ID, record.ServiceName)

	// Plaintext key is shown once only
	response := model.APIKeyCreateResponse{
		APIKeyResponse: record.ToResponse(),
		Key:            plaintext,
	}
	writeJSON(w, http.StatusCreated, response)
}

// List handles GET /api/v1/keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.keys.ListForOwner(ctx, user.ID)
	if err != nil {
		h.logger.Error("failed to list API keys",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{"keys": responses})
}

// Revoke handles DELETE /api/v1/keys/{key_id}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keyID, ok := parseKeyID(w, r)
	if !ok {
		return
	}

	key, err := h.keys.Revoke(ctx, keyID, user.ID)
	if err != nil {
		h.writeKeyError(w, r, err, "revoke")
		return
	}

	h.logger.Info("API key revoked",
		slog.Int64("key_id", key.ID),
		slog.Int64("owner_id", user.ID),
	)

	h.publishKeyEvent(r, model.EventTypeKeyRevoked, user.ID, key.ID, key.ServiceName)

	writeJSON(w, http.StatusOK, key.ToResponse())
}

// Renew handles POST /api/v1/keys/{key_id}/renew
func (h *APIKeyHandler) Renew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keyID, ok := parseKeyID(w, r)
	if !ok {
		return
	}

	var req model.APIKeyRenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	key, err := h.keys.Renew(ctx, keyID, user.ID, req.ExpiresInDays)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTTL) {
			writeError(w, http.StatusBadRequest, "INVALID_TTL", err.Error())
			return
		}
		h.writeKeyError(w, r, err, "renew")
		return
	}

	h.logger.Info("API key renewed",
		slog.Int64("key_id", key.ID),
		slog.Int64("owner_id", user.ID),
		slog.Time("expires_at", key.ExpiresAt),
	)

	h.publishKeyEvent(r, model.EventTypeKeyRenewed, user.ID, key.ID, key.ServiceName)

	writeJSON(w, http.StatusOK, key.ToResponse())
}

// Purge handles DELETE /api/v1/keys/{key_id}/purge
func (h *APIKeyHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keyID, ok := parseKeyID(w, r)
	if !ok {
		return
	}

	if err := h.keys.Delete(ctx, keyID, user.ID); err != nil {
		h.writeKeyError(w, r, err, "purge")
		return
	}

	h.logger.Info("API key deleted",
		slog.Int64("key_id", keyID),
		slog.Int64("owner_id", user.ID),
	)

	h.publishKeyEvent(r, model.EventTypeKeyDeleted, user.ID, keyID, "")

	w.WriteHeader(http.StatusNoContent)
}

// parseKeyID extracts and parses the key_id path parameter, writing a
// 400 on malformed input.
func parseKeyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("key_id")
	keyID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || keyID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Key ID must be a positive integer")
		return 0, false
	}
	return keyID, true
}

// writeKeyError maps service errors for the single-key routes. Unknown
// keys and keys owned by someone else get the same 404.
func (h *APIKeyHandler) writeKeyError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, service.ErrKeyNotFound) {
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found")
		return
	}

	h.logger.Error("API key operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" API key")
}
