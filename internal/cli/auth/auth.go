package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "hwp-cli"
)

// getKeyringKey returns a unique key for storing JWT tokens per server
func getKeyringKey(serverHost string) string {
	return fmt.Sprintf("jwt-%s", serverHost)
}

// SaveToken persists the JWT token securely in the OS keychain/credential manager
func SaveToken(serverHost, token string) error {
	key := getKeyringKey(serverHost)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the JWT token from the OS keychain/credential manager
func LoadToken(serverHost string) (string, error) {
	key := getKeyringKey(serverHost)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the JWT token from the OS keychain/credential manager
func DeleteToken(serverHost string) error {
	key := getKeyringKey(serverHost)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// ErrNotAuthenticated means no token is stored for the server
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'hwp login' first")
