package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/metrics"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
)

// Auth service errors.
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrEmailTaken       = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// inactive accounts alike; login failures are indistinguishable to
	// the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService handles account creation and the user token flows.
type AuthService struct {
	store   Store
	tokens  *auth.TokenAuthority
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(store Store, tokens *auth.TokenAuthority, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:   store,
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
	}
}

// Signup creates a new user with a hashed password.
func (s *AuthService) Signup(ctx context.Context, in model.SignupRequest) (*model.User, error) {
	if !emailRegex.MatchString(in.Email) {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.metrics.IncSignup()
	s.logger.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Login authenticates an email/password pair and mints a token pair.
// Unknown emails, wrong passwords, and inactive accounts all return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in model.LoginRequest) (*model.User, *model.TokenPairResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin("failure")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.IsActive || !auth.VerifyPassword(in.Password, user.PasswordHash) {
		s.metrics.IncLogin("failure")
		s.logger.Warn("login failed",
			slog.Int64("user_id", user.ID),
			slog.Bool("active", user.IsActive),
		)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncLogin("success")
	s.logger.Info("login successful", slog.Int64("user_id", user.ID))

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPairResponse, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, ErrInvalidCredentials
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(user)
}

// GetUserByID loads a user by ID. Used by handlers serving /auth/me.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *AuthService) issueTokenPair(user *model.User) (*model.TokenPairResponse, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &model.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
