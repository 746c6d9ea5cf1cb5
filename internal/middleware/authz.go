package middleware

import (
	"fmt"
	"net/http"

	"github.com/securebridge/securebridge/internal/auth"
)

// RequireUser returns middleware that restricts a route to user principals.
// Must be applied after Authenticate.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal.IsNone() {
				writeAuthzError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !principal.IsUser() {
				writeAuthzError(w, http.StatusForbidden, "FORBIDDEN", "User credentials required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that restricts a route to users holding
// the given role. Must be applied after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal.IsNone() {
				writeAuthzError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !principal.IsUser() || principal.User.Role != role {
				writeAuthzError(w, http.StatusForbidden, "FORBIDDEN",
					fmt.Sprintf("Insufficient permissions. Required role: %s", role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission returns middleware that enforces a service key
// permission. The check is a membership test against the key's
// permission set; user principals never pass, whatever their role.
// Must be applied after Authenticate. If multiple permissions are
// provided, having ANY of them is sufficient.
func RequirePermission(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal.IsNone() {
				writeAuthzError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			for _, perm := range required {
				if principal.HasPermission(perm) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthzError(w, http.StatusForbidden, "FORBIDDEN",
				fmt.Sprintf("Insufficient permissions. Required permission: %s", required[0]))
		})
	}
}

// writeAuthzError writes an authorization error response.
func writeAuthzError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"error":{"code":"%s","message":"%s"}}`, code, message)))
}
