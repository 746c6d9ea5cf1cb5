package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAPIKeyIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future expiry", now.Add(24 * time.Hour), false},
		{"past expiry", now.Add(-time.Minute), true},
		{"far past", now.Add(-90 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &APIKey{ExpiresAt: tt.expiresAt}
			if got := key.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIKeyHasPermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		permissions []string
		check       string
		want        bool
	}{
		{"has permission", []string{PermReadData}, PermReadData, true},
		{"missing permission", []string{PermReadData}, PermWriteData, false},
		{"admin is not a wildcard for read", []string{PermAdmin}, PermReadData, false},
		{"admin is not a wildcard for write", []string{PermAdmin}, PermWriteData, false},
		{"admin matches admin", []string{PermAdmin}, PermAdmin, true},
		{"empty set", nil, PermReadData, false},
		{"custom tag", []string{"export:reports"}, "export:reports", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &APIKey{Permissions: tt.permissions}
			if got := key.HasPermission(tt.check); got != tt.want {
				t.Errorf("HasPermission(%q) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestAPIKeyNeverSerializesSecret(t *testing.T) {
	t.Parallel()

	key := &APIKey{
		ID:           1,
		OwnerID:      7,
		EncryptedKey: "super-secret-envelope",
		ServiceName:  "billing",
		Permissions:  []string{PermReadData},
	}

	data, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "super-secret-envelope") {
		t.Error("encrypted key material must never appear in JSON output")
	}

	resp, err := json.Marshal(key.ToResponse())
	if err != nil {
		t.Fatalf("marshal response failed: %v", err)
	}
	if strings.Contains(string(resp), "super-secret-envelope") {
		t.Error("encrypted key material must never appear in the response")
	}
}

func TestPrincipal(t *testing.T) {
	t.Parallel()

	var none Principal
	if none.IsUser() || none.IsService() {
		t.Error("zero Principal should be neither user nor service")
	}
	if none.Kind != KindNone {
		t.Errorf("zero Principal kind = %v, want KindNone", none.Kind)
	}

	user := Principal{Kind: KindUser, User: &User{ID: 1}}
	if !user.IsUser() || user.IsService() {
		t.Error("user principal misclassified")
	}
	if user.HasPermission(PermReadData) {
		t.Error("permission checks apply to service keys only")
	}

	svc := Principal{Kind: KindService, Key: &APIKey{Permissions: []string{PermReadData}}}
	if !svc.IsService() || svc.IsUser() {
		t.Error("service principal misclassified")
	}
	if !svc.HasPermission(PermReadData) {
		t.Error("service principal should carry its key permissions")
	}
	if svc.HasPermission(PermWriteData) {
		t.Error("service principal should not gain unlisted permissions")
	}
}
