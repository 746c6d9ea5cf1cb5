// Package auth provides the credential primitives: password hashing,
// signed token issuance and verification, service key generation, and
// at-rest encryption of service key material.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit. Longer passwords are
// truncated before hashing so that hashes stay compatible with records
// produced by earlier deployments. Bytes beyond the limit contribute no
// entropy; this is an accepted limitation of the primitive.
const maxPasswordBytes = 72

// HashPassword creates a bcrypt hash of the given password.
// The salt is embedded in the returned hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a stored bcrypt hash.
// Any failure, including a malformed stored hash, reports false rather
// than an error: callers only need "verifies" or "does not verify".
func VerifyPassword(password, encodedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), truncatePassword(password))
	return err == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
