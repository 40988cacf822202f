package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const deviceSecretBytes = 32

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateDeviceSecret returns a fresh 256-bit device secret and its
// storage hash. Only the hash is ever persisted.
func GenerateDeviceSecret() (secret string, hash string, err error) {
	b, err := generateRandomBytes(deviceSecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate device secret: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(b)
	return secret, HashDeviceSecret(secret), nil
}

// HashDeviceSecret is the one-way mapping from plaintext secret to the
// value stored in device_locks.secret_hash.
func HashDeviceSecret(secret string) string {
	hashBytes := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hashBytes[:])
}

// GenerateSessionToken returns a 32-byte hex token for 2FA sessions.
func GenerateSessionToken() (string, error) {
	b, err := generateRandomBytes(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
