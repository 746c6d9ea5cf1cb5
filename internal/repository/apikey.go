package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/securebridge/securebridge/internal/model"
)

// Common errors for API key repository operations.
var (
	// ErrAPIKeyNotFound covers both "does not exist" and "not owned by
	// the caller" so existence of another owner's key never leaks.
	ErrAPIKeyNotFound = errors.New("API key not found")
)

const apiKeyColumns = `id, owner_id, encrypted_key, service_name, description,
		permissions, is_active, expires_at, last_used_at, created_at, updated_at`

// CreateAPIKey inserts a new service key record and fills in its
// generated ID.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (owner_id, encrypted_key, service_name, description,
			permissions, is_active, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		key.OwnerID,
		key.EncryptedKey,
		key.ServiceName,
		key.Description,
		pq.Array(key.Permissions),
		key.IsActive,
		key.ExpiresAt,
		key.CreatedAt,
	).Scan(&key.ID)

	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}

// ListActiveAPIKeys retrieves every currently-active service key.
// Used by verification, which decrypts and compares each candidate.
func (r *Repository) ListActiveAPIKeys(ctx context.Context) ([]*model.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE is_active = TRUE
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active API keys: %w", err)
	}
	defer rows.Close()

	return r.collectAPIKeys(rows)
}

// ListAPIKeysByOwner retrieves all service keys owned by a user.
func (r *Repository) ListAPIKeysByOwner(ctx context.Context, ownerID int64) ([]*model.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	return r.collectAPIKeys(rows)
}

// GetAPIKeyByIDAndOwner retrieves a service key scoped to its owner.
func (r *Repository) GetAPIKeyByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE id = $1 AND owner_id = $2
	`

	return r.scanAPIKey(r.pool.QueryRow(ctx, query, id, ownerID))
}

// UpdateAPIKey persists the mutable fields of a service key record.
func (r *Repository) UpdateAPIKey(ctx context.Context, key *model.APIKey) error {
	query := `
		UPDATE api_keys
		SET service_name = $2, description = $3, permissions = $4,
			is_active = $5, expires_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		key.ID,
		key.ServiceName,
		key.Description,
		pq.Array(key.Permissions),
		key.IsActive,
		key.ExpiresAt,
		key.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// UpdateAPIKeyLastUsed updates the last_used_at timestamp.
// Called fire-and-forget after successful verification; a miss (for
// example a concurrent delete) is not an error.
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id int64) error {
	query := `
		UPDATE api_keys
		SET last_used_at = $2
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update API key last used: %w", err)
	}

	return nil
}

// DeleteAPIKey hard-removes a service key scoped to its owner.
func (r *Repository) DeleteAPIKey(ctx context.Context, id, ownerID int64) error {
	query := `
		DELETE FROM api_keys
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// scanAPIKey scans a single row into an APIKey model.
func (r *Repository) scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	var key model.APIKey
	var permissions []string

	err := row.Scan(
		&key.ID,
		&key.OwnerID,
		&key.EncryptedKey,
		&key.ServiceName,
		&key.Description,
		pq.Array(&permissions),
		&key.IsActive,
		&key.ExpiresAt,
		&key.LastUsedAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to scan API key: %w", err)
	}

	key.Permissions = permissions
	return &key, nil
}

func (r *Repository) collectAPIKeys(rows pgx.Rows) ([]*model.APIKey, error) {
	var keys []*model.APIKey
	for rows.Next() {
		var key model.APIKey
		var permissions []string

		err := rows.Scan(
			&key.ID,
			&key.OwnerID,
			&key.EncryptedKey,
			&key.ServiceName,
			&key.Description,
			pq.Array(&permissions),
			&key.IsActive,
			&key.ExpiresAt,
			&key.LastUsedAt,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}

		key.Permissions = permissions
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	return keys, nil
}
