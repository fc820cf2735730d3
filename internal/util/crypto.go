package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const secretBytes = 32

// GenerateSecret returns a cryptographically random opaque string used as
// a refresh token secret. The raw value is handed to the client once and
// never persisted.
func GenerateSecret() (string, error) {
	bytes := make([]byte, secretBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashSecret returns the deterministic SHA-256 hex digest of a secret.
// Lookups are exact-match by hash, so unlike password hashing this must
// not be salted.
func HashSecret(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

// MaskEmail hides the local part of an email for log output.
func MaskEmail(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			if i <= 2 {
				return "***" + email[i:]
			}
			return email[:2] + "***" + email[i:]
		}
	}
	return "***"
}
