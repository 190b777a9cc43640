package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name under which credentials are
// stored in the OS keyring.
const DefaultKeyringService = "campus"

// Keyring stores credentials in the operating system's native credential
// store via the Secret Service API, macOS Keychain, or Windows Credential
// Manager. Entries are encrypted at rest by the OS and scoped to the
// current user.
type Keyring struct {
	service string
}

// NewKeyring creates a keyring-backed store. An empty service falls back
// to DefaultKeyringService.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultKeyringService
	}
	return &Keyring{service: service}
}

// Save stores or replaces the value for key.
func (k *Keyring) Save(key string, value []byte) error {
	if err := keyring.Set(k.service, key, string(value)); err != nil {
		return fmt.Errorf("keyring save %q: %w", key, err)
	}
	return nil
}

// Load retrieves the value for key, or ErrNotFound.
func (k *Keyring) Load(key string) ([]byte, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keyring load %q: %w", key, err)
	}
	return []byte(value), nil
}

// Delete removes the value for key. Deleting an absent key succeeds.
func (k *Keyring) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %q: %w", key, err)
	}
	return nil
}
