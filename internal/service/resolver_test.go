package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/model"
)

func newResolverEnv(t *testing.T) (*fakeStore, *AuthService, *APIKeyService, *Resolver) {
	t.Helper()

	store := newFakeStore()
	tokens := newTestTokens(t)
	cipher, err := auth.NewKeyCipher("test-encryption-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	authSvc := NewAuthService(store, tokens, testLogger(), nil)
	keySvc := NewAPIKeyService(store, cipher, testKeyConfig(), testLogger(), nil)
	resolver := NewResolver(store, tokens, keySvc, testLogger(), nil)

	return store, authSvc, keySvc, resolver
}

func TestResolve_EmptyCredential(t *testing.T) {
	t.Parallel()

	_, _, _, resolver := newResolverEnv(t)

	principal, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Errorf("kind = %v, want KindNone", principal.Kind)
	}
}

func TestResolve_AccessToken(t *testing.T) {
	t.Parallel()

	_, authSvc, _, resolver := newResolverEnv(t)

	user := signupUser(t, authSvc, "alice@example.com", "sup3r-secret")
	_, pair, err := authSvc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	principal, err := resolver.Resolve(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !principal.IsUser() {
		t.Fatalf("kind = %v, want KindUser", principal.Kind)
	}
	if principal.User.ID != user.ID {
		t.Errorf("resolved user ID = %d, want %d", principal.User.ID, user.ID)
	}
}

func TestResolve_RefreshTokenIsNotABearerCredential(t *testing.T) {
	t.Parallel()

	_, authSvc, _, resolver := newResolverEnv(t)

	signupUser(t, authSvc, "alice@example.com", "sup3r-secret")
	_, pair, err := authSvc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	principal, err := resolver.Resolve(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Errorf("refresh token should not authenticate a request, got kind %v", principal.Kind)
	}
}

func TestResolve_InactiveUser(t *testing.T) {
	t.Parallel()

	store, authSvc, _, resolver := newResolverEnv(t)

	user := signupUser(t, authSvc, "alice@example.com", "sup3r-secret")
	_, pair, err := authSvc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.setUserActive(user.ID, false)

	principal, err := resolver.Resolve(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Errorf("inactive user should resolve to none, got kind %v", principal.Kind)
	}
}

func TestResolve_ServiceKey(t *testing.T) {
	t.Parallel()

	_, _, keySvc, resolver := newResolverEnv(t)

	created, plaintext, err := keySvc.Create(context.Background(), 1, model.APIKeyCreateRequest{
		ServiceName: "reporting",
		Permissions: []string{model.PermReadData},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	principal, err := resolver.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !principal.IsService() {
		t.Fatalf("kind = %v, want KindService", principal.Kind)
	}
	if principal.Key.ID != created.ID {
		t.Errorf("resolved key ID = %d, want %d", principal.Key.ID, created.ID)
	}
	if !principal.HasPermission(model.PermReadData) {
		t.Error("resolved service principal should carry its permissions")
	}
}

func TestResolve_RevokedServiceKey(t *testing.T) {
	t.Parallel()

	_, _, keySvc, resolver := newResolverEnv(t)

	created, plaintext, err := keySvc.Create(context.Background(), 1, model.APIKeyCreateRequest{
		ServiceName: "reporting",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := keySvc.Revoke(context.Background(), created.ID, 1); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	principal, err := resolver.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Errorf("revoked key should resolve to none, got kind %v", principal.Kind)
	}
}

func TestResolve_Garbage(t *testing.T) {
	t.Parallel()

	_, _, _, resolver := newResolverEnv(t)

	for _, bearer := range []string{"garbage", "sbk_nonexistent", "eyJhbGciOiJIUzI1NiJ9.bad.sig"} {
		principal, err := resolver.Resolve(context.Background(), bearer)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", bearer, err)
		}
		if principal.Kind != model.KindNone {
			t.Errorf("Resolve(%q) kind = %v, want KindNone", bearer, principal.Kind)
		}
	}
}

func TestResolve_PrefixedCredentialFailureIsLogged(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tokens := newTestTokens(t)
	cipher, err := auth.NewKeyCipher("test-encryption-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	keySvc := NewAPIKeyService(store, cipher, testKeyConfig(), logger, nil)
	resolver := NewResolver(store, tokens, keySvc, logger, nil)

	bearer := "sbk_" + strings.Repeat("x", 43)
	principal, err := resolver.Resolve(context.Background(), bearer)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Fatalf("kind = %v, want KindNone", principal.Kind)
	}
	if !strings.Contains(buf.String(), "service key prefix") {
		t.Error("failed verification of a prefixed credential should be logged")
	}
	if strings.Contains(buf.String(), bearer) {
		t.Error("the presented credential must never appear in logs")
	}

	buf.Reset()
	if _, err := resolver.Resolve(context.Background(), "garbage"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if strings.Contains(buf.String(), "service key prefix") {
		t.Error("unprefixed garbage should not trigger the prefix warning")
	}
}

func TestResolve_StoreFaultPropagates(t *testing.T) {
	t.Parallel()

	store, _, keySvc, resolver := newResolverEnv(t)

	_, plaintext, err := keySvc.Create(context.Background(), 1, model.APIKeyCreateRequest{
		ServiceName: "reporting",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fault := errors.New("store unreachable")
	store.failKeyList = fault

	if _, err := resolver.Resolve(context.Background(), plaintext); !errors.Is(err, fault) {
		t.Errorf("store fault should propagate, got %v", err)
	}
}

func TestResolve_EndToEnd(t *testing.T) {
	t.Parallel()

	_, authSvc, keySvc, resolver := newResolverEnv(t)
	ctx := context.Background()

	// User path: signup, login, resolve the access token.
	user := signupUser(t, authSvc, "u1@example.com", "sup3r-secret")
	_, pair, err := authSvc.Login(ctx, model.LoginRequest{Email: "u1@example.com", Password: "sup3r-secret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	principal, err := resolver.Resolve(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !principal.IsUser() || principal.User.ID != user.ID {
		t.Fatal("access token should resolve to the signed-up user")
	}

	// Service path: create a key, resolve it, then revoke it.
	created, plaintext, err := keySvc.Create(ctx, user.ID, model.APIKeyCreateRequest{
		ServiceName: "etl",
		Permissions: []string{"read:data"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	principal, err = resolver.Resolve(ctx, plaintext)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !principal.IsService() || !principal.HasPermission("read:data") {
		t.Fatal("service key should resolve with its permission set")
	}

	if _, err := keySvc.Revoke(ctx, created.ID, user.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	principal, err = resolver.Resolve(ctx, plaintext)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Error("revoked key should resolve to none")
	}

	// Apply the same time budget to both checks: expired tokens also
	// resolve to none.
	expiredTokens, err := auth.NewTokenAuthority("service-test-secret", "HS256", -time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenAuthority failed: %v", err)
	}
	expired, err := expiredTokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	principal, err = resolver.Resolve(ctx, expired)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.Kind != model.KindNone {
		t.Error("expired access token should resolve to none")
	}
}
