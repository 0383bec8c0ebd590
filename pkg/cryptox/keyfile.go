package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// LoadOrGenerateKey loads raw key material from the given file, generating
// and persisting a fresh 32-byte key (0600) if the file does not exist yet.
// The dev default: every instance seeds its own key on first boot. Fleets
// must provision the same file on every replica, since codes sealed by one
// instance are redeemed by another.
func LoadOrGenerateKey(path string) ([]byte, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("failed to generate key material: %w", err)
		}
		encoded := base64.RawURLEncoding.EncodeToString(raw)

		if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
			return nil, fmt.Errorf("failed to persist key file: %w", err)
		}
		return []byte(encoded), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("key file %s is empty", path)
	}

	return data, nil
}
