package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenAuthority {
	t.Helper()
	tokens, err := auth.NewTokenAuthority("service-test-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenAuthority failed: %v", err)
	}
	return tokens
}

func newAuthEnv(t *testing.T) (*fakeStore, *AuthService) {
	t.Helper()
	store := newFakeStore()
	return store, NewAuthService(store, newTestTokens(t), testLogger(), nil)
}

func signupUser(t *testing.T, svc *AuthService, email, password string) *model.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), model.SignupRequest{
		Email:    email,
		Name:     "Test User",
		Password: password,
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return user
}

func TestSignup(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)

	user := signupUser(t, svc, "alice@example.com", "sup3r-secret")

	if user.ID == 0 {
		t.Error("user should get an ID")
	}
	if user.Role != model.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, model.RoleUser)
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}
	if user.PasswordHash == "" || user.PasswordHash == "sup3r-secret" {
		t.Error("password must be stored hashed")
	}
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)

	tests := []struct {
		name    string
		in      model.SignupRequest
		wantErr error
	}{
		{"bad email", model.SignupRequest{Email: "not-an-email", Password: "long-enough"}, ErrInvalidEmail},
		{"empty email", model.SignupRequest{Email: "", Password: "long-enough"}, ErrInvalidEmail},
		{"short password", model.SignupRequest{Email: "a@example.com", Password: "short"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Signup(context.Background(), tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Signup error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)

	signupUser(t, svc, "alice@example.com", "sup3r-secret")

	_, err := svc.Signup(context.Background(), model.SignupRequest{
		Email:    "alice@example.com",
		Password: "another-password",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup error = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)
	created := signupUser(t, svc, "alice@example.com", "sup3r-secret")

	user, pair, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("logged-in user ID = %d, want %d", user.ID, created.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("login should return both tokens")
	}
	if pair.TokenType != "bearer" {
		t.Errorf("token type = %q, want bearer", pair.TokenType)
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	store, svc := newAuthEnv(t)
	user := signupUser(t, svc, "alice@example.com", "sup3r-secret")

	// Wrong password, unknown email, and inactive account are
	// indistinguishable to the caller.
	if _, _, err := svc.Login(context.Background(), model.LoginRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "sup3r-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}

	store.setUserActive(user.ID, false)
	if _, _, err := svc.Login(context.Background(), model.LoginRequest{Email: "alice@example.com", Password: "sup3r-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("inactive account error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)
	signupUser(t, svc, "alice@example.com", "sup3r-secret")

	_, pair, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Error("refresh should return a full token pair")
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)
	signupUser(t, svc, "alice@example.com", "sup3r-secret")

	_, pair, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// An access token presented to the refresh flow must be rejected:
	// call sites enforce the type claim.
	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Refresh with access token error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefresh_InactiveUser(t *testing.T) {
	t.Parallel()

	store, svc := newAuthEnv(t)
	user := signupUser(t, svc, "alice@example.com", "sup3r-secret")

	_, pair, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.setUserActive(user.ID, false)

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Refresh for inactive user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_TokenResolvesBackToUser(t *testing.T) {
	t.Parallel()

	_, svc := newAuthEnv(t)
	created := signupUser(t, svc, "alice@example.com", "sup3r-secret")

	_, pair, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3r-secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	tokens := newTestTokens(t)
	claims, err := tokens.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user.Email != created.Email {
		t.Errorf("token subject resolves to %q, want %q", user.Email, created.Email)
	}
}
