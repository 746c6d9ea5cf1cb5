package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestKeyCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	cipher, err := NewKeyCipher("encryption-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	plaintexts := []string{
		"sbk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"",
		"short",
		strings.Repeat("long-plaintext-", 100),
	}

	for _, plaintext := range plaintexts {
		envelope, err := cipher.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}

		// Envelope must be transport-safe text, storable as a string.
		if _, err := base64.RawURLEncoding.DecodeString(envelope); err != nil {
			t.Errorf("envelope is not base64url: %v", err)
		}

		got, err := cipher.Decrypt(envelope)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestKeyCipher_NonDeterministicEnvelopes(t *testing.T) {
	t.Parallel()

	cipher, err := NewKeyCipher("encryption-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	env1, err := cipher.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	env2, err := cipher.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Fresh nonce per call: identical plaintexts yield distinct envelopes.
	if env1 == env2 {
		t.Error("envelopes for the same plaintext should differ")
	}
}

func TestKeyCipher_DeterministicKeyDerivation(t *testing.T) {
	t.Parallel()

	// Same secret, separately constructed ciphers: envelopes must
	// decrypt across instances (process restarts keep records readable).
	c1, err := NewKeyCipher("shared-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}
	c2, err := NewKeyCipher("shared-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	envelope, err := c1.Encrypt("service-key-material")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	got, err := c2.Decrypt(envelope)
	if err != nil {
		t.Fatalf("Decrypt across instances failed: %v", err)
	}
	if got != "service-key-material" {
		t.Errorf("cross-instance round trip mismatch: got %q", got)
	}

	// Secrets longer than the cipher key length are truncated; the
	// derivation must stay stable for both short and long secrets.
	long := strings.Repeat("s", 100)
	c3, err := NewKeyCipher(long)
	if err != nil {
		t.Fatalf("NewKeyCipher with long secret failed: %v", err)
	}
	envelope, err = c3.Encrypt("x")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := c3.Decrypt(envelope); err != nil {
		t.Errorf("Decrypt with long secret failed: %v", err)
	}
}

func TestKeyCipher_RotatedSecretFailsClosed(t *testing.T) {
	t.Parallel()

	oldCipher, err := NewKeyCipher("old-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}
	newCipher, err := NewKeyCipher("new-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	envelope, err := oldCipher.Encrypt("orphaned-record")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := newCipher.Decrypt(envelope); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("rotated secret should fail with ErrDecryptFailed, got %v", err)
	}
}

func TestKeyCipher_DecryptFailures(t *testing.T) {
	t.Parallel()

	cipher, err := NewKeyCipher("encryption-secret")
	if err != nil {
		t.Fatalf("NewKeyCipher failed: %v", err)
	}

	envelope, err := cipher.Encrypt("victim")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flip one character of the envelope to simulate tampering.
	tampered := []byte(envelope)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}

	tests := []struct {
		name     string
		envelope string
	}{
		{"empty", ""},
		{"not base64", "!!!not base64!!!"},
		{"too short", base64.RawURLEncoding.EncodeToString([]byte("tiny"))},
		{"tampered", string(tampered)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cipher.Decrypt(tt.envelope); !errors.Is(err, ErrDecryptFailed) {
				t.Errorf("Decrypt(%s) error = %v, want ErrDecryptFailed", tt.name, err)
			}
		})
	}
}
