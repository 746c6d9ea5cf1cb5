package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/securebridge/securebridge/internal/middleware"
	"github.com/securebridge/securebridge/internal/model"
)

// AuditStore provides read access to recorded security events.
type AuditStore interface {
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*model.SecurityEvent, error)
	ListSecurityEventsByActor(ctx context.Context, actorID int64, limit, offset int) ([]*model.SecurityEvent, error)
}

// AuditHandler serves the security event log. Routes are admin-only;
// the role gate is applied at the router.
type AuditHandler struct {
	logger *slog.Logger
	store  AuditStore
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(logger *slog.Logger, store AuditStore) *AuditHandler {
	return &AuditHandler{
		logger: logger,
		store:  store,
	}
}

// ListEvents handles GET /api/v1/audit/events
func (h *AuditHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	var (
		events []*model.SecurityEvent
		err    error
	)
	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		actorID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || actorID <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Actor ID must be a positive integer")
			return
		}
		events, err = h.store.ListSecurityEventsByActor(ctx, actorID, limit, offset)
	} else {
		events, err = h.store.ListSecurityEvents(ctx, limit, offset)
	}
	if err != nil {
		h.logger.Error("failed to list security events",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list events")
		return
	}

	responses := make([]model.SecurityEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, event.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": responses,
		"limit":  limit,
		"offset": offset,
	})
}
