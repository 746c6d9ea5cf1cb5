package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/securebridge/securebridge/internal/audit"
	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/middleware"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/service"
)

// AuthHandler handles signup, login and token refresh endpoints.
// Events may be nil; publishing is then skipped.
type AuthHandler struct {
	logger *slog.Logger
	svc    *service.AuthService
	events *audit.Publisher
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger *slog.Logger, svc *service.AuthService, events *audit.Publisher) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		svc:    svc,
		events: events,
	}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", err.Error())
		return
	}

	user, err := h.svc.Signup(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Email address is not valid")
		case errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "PASSWORD_TOO_SHORT", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
		default:
			h.logger.Error("signup failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(ctx)),
			)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account")
		}
		return
	}

	now := time.Now().UTC()
	h.events.PublishAsync(audit.EventPayload{
		EventType:  string(model.EventTypeUserCreated),
		ActorID:    user.ID,
		ActorType:  model.ActorTypeUser,
		Subject:    audit.TruncateSubject(user.Email),
		ClientHash: audit.GenerateClientHash(clientIP(r), now),
		OccurredAt: now.UnixMilli(),
	})

	writeJSON(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, pair, err := h.svc.Login(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			now := time.Now().UTC()
			h.events.PublishAsync(audit.EventPayload{
				EventType:  string(model.EventTypeLoginFailed),
				ActorType:  model.ActorTypeAnonymous,
				Subject:    audit.TruncateSubject(req.Email),
				ClientHash: audit.GenerateClientHash(clientIP(r), now),
				OccurredAt: now.UnixMilli(),
			})

			// Same answer for unknown email, wrong password and
			// disabled account
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		h.logger.Error("login failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	now := time.Now().UTC()
	h.events.PublishAsync(audit.EventPayload{
		EventType:  string(model.EventTypeLoginSucceeded),
		ActorID:    user.ID,
		ActorType:  model.ActorTypeUser,
		Subject:    audit.TruncateSubject(user.Email),
		ClientHash: audit.GenerateClientHash(clientIP(r), now),
		OccurredAt: now.UnixMilli(),
	})

	writeJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	pair, err := h.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid or expired refresh token")
			return
		}
		h.logger.Error("token refresh failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh tokens")
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Me handles GET /api/v1/auth/me
// Requires a user principal; the route is guarded by RequireUser.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// clientIP returns the request's client address without the port.
// RealIP middleware has already resolved proxy headers upstream.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
