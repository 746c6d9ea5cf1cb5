package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/metrics"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
)

// API key service errors.
var (
	ErrServiceNameRequired = errors.New("service name is required")
	ErrInvalidTTL          = errors.New("expiration days out of range")
	// ErrKeyInvalid covers every verification failure: no matching
	// record, revoked, and expired. Which check failed is logged, never
	// surfaced.
	ErrKeyInvalid = errors.New("invalid API key")
	// ErrKeyNotFound collapses "does not exist" and "owned by someone
	// else" into one outcome.
	ErrKeyNotFound = repository.ErrAPIKeyNotFound
)

// APIKeyConfig holds the key generation policy.
type APIKeyConfig struct {
	Prefix         string
	DefaultTTLDays int
	MinTTLDays     int
	MaxTTLDays     int
}

// APIKeyService generates, verifies, and manages service keys.
// Secrets are stored encrypted; there is no plaintext index, so
// verification enumerates the active records and decrypts each one.
type APIKeyService struct {
	store   Store
	cipher  *auth.KeyCipher
	cfg     APIKeyConfig
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(store Store, cipher *auth.KeyCipher, cfg APIKeyConfig, logger *slog.Logger, recorder metrics.Recorder) *APIKeyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &APIKeyService{
		store:   store,
		cipher:  cipher,
		cfg:     cfg,
		logger:  logger,
		metrics: recorder,
	}
}

// Create generates a new service key for ownerID, stores it encrypted,
// and returns the record together with the plaintext key. The
// plaintext is returned exactly once; it is not recoverable from the
// stored record.
func (s *APIKeyService) Create(ctx context.Context, ownerID int64, in model.APIKeyCreateRequest) (*model.APIKey, string, error) {
	if in.ServiceName == "" {
		return nil, "", ErrServiceNameRequired
	}

	ttlDays := in.ExpiresInDays
	if ttlDays == 0 {
		ttlDays = s.cfg.DefaultTTLDays
	}
	if ttlDays < s.cfg.MinTTLDays || ttlDays > s.cfg.MaxTTLDays {
		return nil, "", fmt.Errorf("%w: %d days, allowed [%d, %d]",
			ErrInvalidTTL, ttlDays, s.cfg.MinTTLDays, s.cfg.MaxTTLDays)
	}

	plaintext, err := auth.GenerateServiceKey(s.cfg.Prefix)
	if err != nil {
		return nil, "", fmt.Errorf("generate service key: %w", err)
	}

	encrypted, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt service key: %w", err)
	}

	now := time.Now()
	key := &model.APIKey{
		OwnerID:      ownerID,
		EncryptedKey: encrypted,
		ServiceName:  in.ServiceName,
		Description:  in.Description,
		Permissions:  in.Permissions,
		IsActive:     true,
		ExpiresAt:    now.Add(time.Duration(ttlDays) * 24 * time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}

	s.metrics.IncKeyCreated()
	s.logger.Info("API key created",
		slog.Int64("key_id", key.ID),
		slog.Int64("owner_id", ownerID),
		slog.String("service_name", key.ServiceName),
		slog.Time("expires_at", key.ExpiresAt),
	)

	return key, plaintext, nil
}

// Verify matches a presented plaintext key against the active records
// by decrypting each one and comparing. Keys are generated with enough
// entropy that at most one record can match. An expired match fails
// authentication even while still flagged active. On success the
// record's last_used_at is updated best-effort; that write never fails
// the verification.
func (s *APIKeyService) Verify(ctx context.Context, plaintext string) (*model.APIKey, error) {
	keys, err := s.store.ListActiveAPIKeys(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveKeyScanSize(len(keys))

	var matched *model.APIKey
	for _, key := range keys {
		decrypted, err := s.cipher.Decrypt(key.EncryptedKey)
		if err != nil {
			// Undecryptable record (rotated secret, corruption):
			// skip without revealing which record failed.
			continue
		}
		if subtle.ConstantTimeCompare([]byte(decrypted), []byte(plaintext)) == 1 {
			matched = key
			break
		}
	}

	if matched == nil {
		s.metrics.IncKeyVerify("no_match")
		return nil, ErrKeyInvalid
	}

	if matched.IsExpired(time.Now()) {
		s.metrics.IncKeyVerify("expired")
		s.logger.Warn("expired API key presented",
			slog.Int64("key_id", matched.ID),
			slog.Time("expires_at", matched.ExpiresAt),
		)
		return nil, ErrKeyInvalid
	}

	// Fire-and-forget: the record is already known valid, so a failed
	// or racing write must not fail the verification.
	go func(id int64) {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.store.UpdateAPIKeyLastUsed(bg, id); err != nil {
			s.logger.Warn("failed to update key last used",
				slog.Int64("key_id", id),
				slog.String("error", err.Error()),
			)
		}
	}(matched.ID)

	s.metrics.IncKeyVerify("success")
	return matched, nil
}

// Revoke flips a key inactive. Revoking an already-revoked key is
// idempotent. Keys not owned by ownerID report ErrKeyNotFound.
func (s *APIKeyService) Revoke(ctx context.Context, keyID, ownerID int64) (*model.APIKey, error) {
	key, err := s.store.GetAPIKeyByIDAndOwner(ctx, keyID, ownerID)
	if err != nil {
		return nil, err
	}

	key.IsActive = false
	key.UpdatedAt = time.Now()
	if err := s.store.UpdateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	s.metrics.IncKeyRevoked()
	s.logger.Info("API key revoked",
		slog.Int64("key_id", key.ID),
		slog.Int64("owner_id", ownerID),
	)

	return key, nil
}

// Renew extends a key's expiry to now + ttlDays.
// A zero ttlDays uses the configured default.
func (s *APIKeyService) Renew(ctx context.Context, keyID, ownerID int64, ttlDays int) (*model.APIKey, error) {
	if ttlDays == 0 {
		ttlDays = s.cfg.DefaultTTLDays
	}
	if ttlDays < s.cfg.MinTTLDays || ttlDays > s.cfg.MaxTTLDays {
		return nil, fmt.Errorf("%w: %d days, allowed [%d, %d]",
			ErrInvalidTTL, ttlDays, s.cfg.MinTTLDays, s.cfg.MaxTTLDays)
	}

	key, err := s.store.GetAPIKeyByIDAndOwner(ctx, keyID, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	key.ExpiresAt = now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	key.UpdatedAt = now
	if err := s.store.UpdateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	s.metrics.IncKeyRenewed()
	s.logger.Info("API key renewed",
		slog.Int64("key_id", key.ID),
		slog.Int64("owner_id", ownerID),
		slog.Time("expires_at", key.ExpiresAt),
	)

	return key, nil
}

// Delete hard-removes a key. Same ownership-or-not-found rule as Revoke.
func (s *APIKeyService) Delete(ctx context.Context, keyID, ownerID int64) error {
	if err := s.store.DeleteAPIKey(ctx, keyID, ownerID); err != nil {
		return err
	}

	s.metrics.IncKeyDeleted()
	s.logger.Info("API key deleted",
		slog.Int64("key_id", keyID),
		slog.Int64("owner_id", ownerID),
	)
	return nil
}

// ListForOwner returns all keys owned by ownerID. Responses built from
// these records never include plaintext key material.
func (s *APIKeyService) ListForOwner(ctx context.Context, ownerID int64) ([]*model.APIKey, error) {
	return s.store.ListAPIKeysByOwner(ctx, ownerID)
}

// CheckPermission tests whether a key carries a required permission.
func (s *APIKeyService) CheckPermission(key *model.APIKey, required string) bool {
	return key.HasPermission(required)
}
