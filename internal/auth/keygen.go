package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// keySecretBytes is the entropy of a generated service key: 256 bits,
// enough that plaintext collisions are not a designed-for case.
const keySecretBytes = 32

// GenerateServiceKey creates a new high-entropy service key string.
// The configured literal prefix makes keys visually distinguishable
// from JWTs in headers and logs; it carries no entropy.
func GenerateServiceKey(prefix string) (string, error) {
	b := make([]byte, keySecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key secret: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// HasKeyPrefix reports whether a presented credential carries the
// service key prefix. Used only for logging and fast-path hints, never
// as an authentication decision.
func HasKeyPrefix(credential, prefix string) bool {
	return prefix != "" && strings.HasPrefix(credential, prefix)
}
