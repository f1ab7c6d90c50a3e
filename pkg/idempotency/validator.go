package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// keyPattern allows alphanumerics, hyphens and underscores
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateKey validates an idempotency key against the default length limit
func ValidateKey(key string) error {
	return ValidateKeyWithMaxLength(key, DefaultMaxKeyLength)
}

// ValidateKeyWithMaxLength validates an idempotency key with a custom max length
func ValidateKeyWithMaxLength(key string, maxLength int) error {
	if key == "" {
		return ErrKeyRequired
	}
	if len(key) > maxLength {
		return ErrKeyTooLong
	}
	if !keyPattern.MatchString(key) {
		return ErrKeyInvalid
	}
	return nil
}

// ComputeFingerprint hashes method, path and body so a key reused for a
// different request is detected
func ComputeFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeKey trims surrounding whitespace
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}
