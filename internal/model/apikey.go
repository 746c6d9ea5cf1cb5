package model

import (
	"slices"
	"time"
)

// Common permission strings granted to service keys.
// Permissions are free-form "{verb}:{resource}" tags; these are the ones
// the bundled endpoints check for.
const (
	PermReadData  = "read:data"
	PermWriteData = "write:data"
	PermAdmin     = "admin"
)

// APIKey represents a long-lived service credential.
// The secret is stored encrypted; the plaintext exists only in the
// create response and is never recoverable from the record.
type APIKey struct {
	ID           int64      `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	EncryptedKey string     `json:"-"` // Never serialize
	ServiceName  string     `json:"service_name"`
	Description  string     `json:"description,omitempty"`
	Permissions  []string   `json:"permissions"`
	IsActive     bool       `json:"is_active"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsExpired reports whether the key's expiry is in the past at now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt.Before(now)
}

// HasPermission checks if the key carries a specific permission.
// This is a plain membership test: no permission implies another, so
// a key granted only "admin" does not pass a "read:data" check.
func (k *APIKey) HasPermission(perm string) bool {
	return slices.Contains(k.Permissions, perm)
}

// APIKeyCreateRequest represents a request to create a new service key.
type APIKeyCreateRequest struct {
	ServiceName   string   `json:"service_name"`
	Description   string   `json:"description,omitempty"`
	Permissions   []string `json:"permissions"`
	ExpiresInDays int      `json:"expires_in_days,omitempty"`
}

// APIKeyRenewRequest represents a request to extend a key's expiry.
type APIKeyRenewRequest struct {
	ExpiresInDays int `json:"expires_in_days"`
}

// APIKeyResponse represents a service key without secret material.
type APIKeyResponse struct {
	ID          int64      `json:"id"`
	ServiceName string     `json:"service_name"`
	Description string     `json:"description,omitempty"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   time.Time  `json:"expires_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToResponse converts an APIKey to APIKeyResponse.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:          k.ID,
		ServiceName: k.ServiceName,
		Description: k.Description,
		Permissions: k.Permissions,
		IsActive:    k.IsActive,
		ExpiresAt:   k.ExpiresAt,
		LastUsedAt:  k.LastUsedAt,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

// APIKeyCreateResponse includes the plaintext key (shown only once).
type APIKeyCreateResponse struct {
	APIKeyResponse
	Key string `json:"key"` // Plaintext - display once only!
}
