package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-token-authority"

func newTestAuthority(t *testing.T) *TokenAuthority {
	t.Helper()
	authority, err := NewTokenAuthority(testSecret, "HS256", 30*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenAuthority failed: %v", err)
	}
	return authority
}

func TestNewTokenAuthority_RejectsUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"none", "RS256", "ES256", "bogus"} {
		if _, err := NewTokenAuthority(testSecret, alg, time.Minute, time.Hour); err == nil {
			t.Errorf("algorithm %q should be rejected", alg)
		}
	}
}

func TestIssueAccess_Claims(t *testing.T) {
	t.Parallel()

	authority := newTestAuthority(t)

	token, err := authority.IssueAccess(42, "alice@example.com", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("expected compact JWS with three segments, got %q", token)
	}

	claims, err := authority.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.TokenType != TokenTypeAccess {
		t.Errorf("type = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.ID == "" {
		t.Error("jti should be populated")
	}

	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("subject = %d, want 42", userID)
	}
}

func TestIssueRefresh_CarriesOnlySubject(t *testing.T) {
	t.Parallel()

	authority := newTestAuthority(t)

	token, err := authority.IssueRefresh(42)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	claims, err := authority.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("type = %q, want %q", claims.TokenType, TokenTypeRefresh)
	}
	if claims.Email != "" || claims.Role != "" {
		t.Error("refresh token must not carry email or role claims")
	}
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	authority := newTestAuthority(t)

	valid, err := authority.IssueAccess(1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	otherAuthority, err := NewTokenAuthority("a-completely-different-secret", "HS256", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenAuthority failed: %v", err)
	}
	wrongSecret, err := otherAuthority.IssueAccess(1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	expiredAuthority, err := NewTokenAuthority(testSecret, "HS256", -time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenAuthority failed: %v", err)
	}
	expired, err := expiredAuthority.IssueAccess(1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", valid[:len(valid)-10]},
		{"wrong secret", wrongSecret},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authority.Verify(tt.token)
			// Every failure mode collapses into the same sentinel.
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%s) error = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestVerify_DoesNotEnforceTokenType(t *testing.T) {
	t.Parallel()

	authority := newTestAuthority(t)

	refresh, err := authority.IssueRefresh(7)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	// The authority verifies signature and expiry only; type checks
	// belong to the call site.
	claims, err := authority.Verify(refresh)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("type = %q, want %q", claims.TokenType, TokenTypeRefresh)
	}
}
