package auth

import (
	"context"

	"github.com/securebridge/securebridge/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// principalContextKey is the context key for the resolved principal.
const principalContextKey contextKey = "principal"

// ContextWithPrincipal adds a resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns a KindNone principal if the auth middleware has not run.
func PrincipalFromContext(ctx context.Context) model.Principal {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	if !ok {
		return model.Principal{}
	}
	return p
}

// UserFromContext returns the authenticated user, or nil for service
// and anonymous callers.
func UserFromContext(ctx context.Context) *model.User {
	p := PrincipalFromContext(ctx)
	if !p.IsUser() {
		return nil
	}
	return p.User
}

// KeyFromContext returns the authenticated service key, or nil for
// user and anonymous callers.
func KeyFromContext(ctx context.Context) *model.APIKey {
	p := PrincipalFromContext(ctx)
	if !p.IsService() {
		return nil
	}
	return p.Key
}
