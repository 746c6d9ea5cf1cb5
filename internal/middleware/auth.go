package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/service"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver *service.Resolver
}

// Authenticate returns a middleware that resolves the request credential
// into a principal. It accepts a JWT access token or a service API key in
// the Authorization header (or X-API-Key), injects the resolved principal
// into the request context, and rejects unauthenticated requests with 401.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			if credential == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_credential"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			principal, err := cfg.Resolver.Resolve(r.Context(), credential)
			if err != nil {
				cfg.Logger.Error("credential resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if principal.IsNone() {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_credential"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential pulls the credential from the request.
// Supports both "Authorization: Bearer <credential>" and "X-API-Key: <key>" headers.
func extractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials"}}`))
}
