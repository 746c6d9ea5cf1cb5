package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/metrics"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
)

// Resolver decides, from a single bearer credential, whether the caller
// is a user (signed access token) or a service (API key).
type Resolver struct {
	store   Store
	tokens  *auth.TokenAuthority
	keys    *APIKeyService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewResolver creates a new Resolver.
func NewResolver(store Store, tokens *auth.TokenAuthority, keys *APIKeyService, logger *slog.Logger, recorder metrics.Recorder) *Resolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{
		store:   store,
		tokens:  tokens,
		keys:    keys,
		logger:  logger,
		metrics: recorder,
	}
}

// Resolve tries token verification first, then API key verification,
// and returns the typed outcome. The precedence is fixed: the two
// credential formats are disjoint by construction, but both checks run
// in order regardless. A non-nil error means a fault (store
// unreachable), never a failed authentication.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (model.Principal, error) {
	if bearer == "" {
		r.metrics.IncResolve("none")
		return model.Principal{}, nil
	}

	principal, err := r.resolveToken(ctx, bearer)
	if err != nil {
		return model.Principal{}, err
	}
	if principal.IsUser() {
		r.metrics.IncResolve("user")
		return principal, nil
	}

	key, err := r.keys.Verify(ctx, bearer)
	if err != nil {
		if errors.Is(err, ErrKeyInvalid) {
			// A credential that carries the key prefix but fails
			// verification is worth flagging: it is either revoked,
			// expired, or forged. The credential itself is never logged.
			if auth.HasKeyPrefix(bearer, r.keys.cfg.Prefix) {
				r.logger.Warn("credential with service key prefix failed verification")
			}
			r.metrics.IncResolve("none")
			return model.Principal{}, nil
		}
		return model.Principal{}, err
	}

	r.metrics.IncResolve("service")
	return model.Principal{Kind: model.KindService, Key: key}, nil
}

// resolveToken attempts the access token path. Authentication failures
// return a zero principal so the API key path still runs; only store
// faults surface as errors.
func (r *Resolver) resolveToken(ctx context.Context, bearer string) (model.Principal, error) {
	claims, err := r.tokens.Verify(bearer)
	if err != nil {
		return model.Principal{}, nil
	}
	if claims.TokenType != auth.TokenTypeAccess {
		r.logger.Warn("non-access token presented as bearer credential",
			slog.String("type", claims.TokenType),
			slog.String("jti", claims.ID),
		)
		return model.Principal{}, nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return model.Principal{}, nil
	}

	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Principal{}, nil
		}
		return model.Principal{}, err
	}
	if !user.IsActive {
		r.logger.Warn("token presented for inactive user", slog.Int64("user_id", user.ID))
		return model.Principal{}, nil
	}

	return model.Principal{Kind: model.KindUser, User: user}, nil
}
