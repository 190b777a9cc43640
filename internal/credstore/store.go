// Package credstore provides durable storage for the session's credentials.
//
// Two persistent backends are supported:
//   - Keyring: OS-native credential storage (macOS Keychain, Windows
//     Credential Manager, Secret Service on Linux). Encrypted at rest and
//     never synced off-device. This is the default.
//   - File: one file per key with restrictive permissions and atomic
//     writes, for headless hosts without a keyring daemon.
//
// A Memory backend exists for tests.
//
// The store offers single-key operations only. The session manager is
// responsible for treating the group of session keys as logically atomic:
// it writes all values first and publishes the in-memory snapshot after.
package credstore

import "errors"

// ErrNotFound is returned by Load when no value exists for the key.
var ErrNotFound = errors.New("credential not found")

// Store is durable key/value persistence for session credentials.
//
// Save is an upsert. Load returns ErrNotFound when the key is absent.
// Delete is idempotent: deleting an absent key succeeds.
type Store interface {
	Save(key string, value []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
}

// Credential store keys, one per session field.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyIDToken      = "id_token"
	KeyExpiresAt    = "expires_at"
	KeyEmail        = "email"
)

// SessionKeys lists every key the session manager persists, in write order.
func SessionKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyIDToken, KeyExpiresAt, KeyEmail}
}
