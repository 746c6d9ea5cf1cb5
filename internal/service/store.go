// Package service provides the credential issuance and validation logic.
package service

import (
	"context"

	"github.com/securebridge/securebridge/internal/model"
)

// Store is the credential store consumed by the services. It is
// satisfied by *repository.Repository; tests substitute an in-memory
// implementation. Not-found conditions are sentinel errors
// (repository.ErrUserNotFound, repository.ErrAPIKeyNotFound), never
// panics.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	ListActiveAPIKeys(ctx context.Context) ([]*model.APIKey, error)
	ListAPIKeysByOwner(ctx context.Context, ownerID int64) ([]*model.APIKey, error)
	GetAPIKeyByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.APIKey, error)
	UpdateAPIKey(ctx context.Context, key *model.APIKey) error
	UpdateAPIKeyLastUsed(ctx context.Context, id int64) error
	DeleteAPIKey(ctx context.Context, id, ownerID int64) error
}
