package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecryptFailed is returned for any envelope that does not decrypt
// cleanly: wrong key, truncated data, or tampering. Verification scans
// rely on it to skip non-matching records without distinguishing why.
var ErrDecryptFailed = errors.New("decrypt failed")

// cipherKeyLen is the AES-256 key size.
const cipherKeyLen = 32

// KeyCipher encrypts service key material for at-rest storage using
// AES-256-GCM. Envelopes are base64url strings safe for a text column.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives the cipher key from the configured secret by
// truncating or zero-padding it to 32 bytes. The derivation is
// deterministic: the same secret always yields the same key, and
// rotating the secret makes previously stored envelopes undecryptable.
func NewKeyCipher(secret string) (*KeyCipher, error) {
	key := make([]byte, cipherKeyLen)
	copy(key, []byte(secret))

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &KeyCipher{aead: aead}, nil
}

// Encrypt seals plaintext into a transport-safe envelope string.
func (c *KeyCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt.
// Returns ErrDecryptFailed on any malformed or tampered input.
func (c *KeyCipher) Decrypt(envelope string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return "", ErrDecryptFailed
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrDecryptFailed
	}

	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
