// Package auth provides password hashing and the session cookie token format.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit symmetric key.
	keyLength    = 32
	keyHexLength = 64

	// SecretKeyFile is the file name the generated key is persisted under.
	SecretKeyFile = "secret.key"
)

// LoadOrGenerateKey returns the hex-encoded secret key stored in
// {dataPath}/secret.key, generating and persisting one on first run.
func LoadOrGenerateKey(dataPath string) (string, error) {
	keyPath := filepath.Join(dataPath, SecretKeyFile)

	//#nosec G304 -- path derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(raw))
		if err := ValidateKey(keyHex); err != nil {
			return "", fmt.Errorf("%s: %w", keyPath, err)
		}
		return keyHex, nil
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("save secret key: %w", err)
	}
	return keyHex, nil
}

// ValidateKey checks that keyHex encodes exactly 32 bytes.
func ValidateKey(keyHex string) error {
	if len(keyHex) != keyHexLength {
		return fmt.Errorf("secret key must be %d hex characters, got %d", keyHexLength, len(keyHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		return fmt.Errorf("secret key is not valid hex: %w", err)
	}
	return nil
}
