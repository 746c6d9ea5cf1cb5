package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	passwords := []string{
		"hunter2",
		"correct horse battery staple",
		"päss wörd with ünicode",
		strings.Repeat("x", 72),
	}

	for _, password := range passwords {
		hash, err := HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword(%q) failed: %v", password, err)
		}
		if hash == password {
			t.Error("hash must never equal the plaintext")
		}
		if !VerifyPassword(password, hash) {
			t.Errorf("password %q should verify against its own hash", password)
		}
		if VerifyPassword(password+"x", hash) {
			t.Errorf("wrong password should not verify")
		}
	}
}

func TestHashPassword_Uniqueness(t *testing.T) {
	t.Parallel()

	password := "the_same_password_12345"

	hash1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// Same password should produce different hashes (different salts)
	if hash1 == hash2 {
		t.Error("same password should produce different hashes due to random salt")
	}
	if !VerifyPassword(password, hash1) || !VerifyPassword(password, hash2) {
		t.Error("both hashes should verify correctly")
	}
}

func TestHashPassword_TruncatesAt72Bytes(t *testing.T) {
	t.Parallel()

	base := strings.Repeat("a", maxPasswordBytes)
	hash, err := HashPassword(base + "tail-that-is-ignored")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// Everything past the 72nd byte is discarded, so any password
	// sharing the first 72 bytes verifies against the same hash.
	if !VerifyPassword(base, hash) {
		t.Error("truncated password should verify")
	}
	if !VerifyPassword(base+"different-tail", hash) {
		t.Error("passwords differing only past the limit should verify identically")
	}
	if VerifyPassword(strings.Repeat("b", maxPasswordBytes), hash) {
		t.Error("password differing within the limit should not verify")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	// Malformed stored hashes must report "does not verify" without
	// panicking or surfacing an error to the caller.
	malformed := []string{
		"",
		"not-a-bcrypt-hash",
		"$2a$10$short",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	}

	for _, hash := range malformed {
		if VerifyPassword("anything", hash) {
			t.Errorf("malformed hash %q should not verify", hash)
		}
	}
}
