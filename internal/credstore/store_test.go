package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// backends returns every store implementation that should satisfy the
// Store contract, constructed against test-local storage.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile() failed: %v", err)
	}

	return map[string]Store{
		"memory": NewMemory(),
		"file":   fileStore,
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(KeyAccessToken, []byte("AT1")); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}

			value, err := store.Load(KeyAccessToken)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if string(value) != "AT1" {
				t.Errorf("Load() = %q, want AT1", value)
			}

			// Save is an upsert.
			if err := store.Save(KeyAccessToken, []byte("AT2")); err != nil {
				t.Fatalf("Save() upsert failed: %v", err)
			}
			value, err = store.Load(KeyAccessToken)
			if err != nil {
				t.Fatalf("Load() after upsert failed: %v", err)
			}
			if string(value) != "AT2" {
				t.Errorf("Load() after upsert = %q, want AT2", value)
			}

			if err := store.Delete(KeyAccessToken); err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if _, err := store.Load(KeyAccessToken); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_LoadAbsent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load("never-written"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_DeleteIdempotent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Delete("never-written"); err != nil {
				t.Errorf("Delete() of absent key failed: %v", err)
			}
		})
	}
}

func TestFile_Permissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFile(filepath.Join(dir, "credentials"))
	if err != nil {
		t.Fatalf("NewFile() failed: %v", err)
	}

	if err := store.Save(KeyRefreshToken, []byte("RT1")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	dirInfo, err := os.Stat(filepath.Join(dir, "credentials"))
	if err != nil {
		t.Fatalf("Stat dir: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0700 {
		t.Errorf("directory permissions = %o, want 0700", perm)
	}

	fileInfo, err := os.Stat(filepath.Join(dir, "credentials", KeyRefreshToken))
	if err != nil {
		t.Fatalf("Stat file: %v", err)
	}
	if perm := fileInfo.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestFile_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile() failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := store.Save(KeyEmail, []byte("student@example.org")); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestSessionKeys(t *testing.T) {
	keys := SessionKeys()
	if len(keys) != 5 {
		t.Fatalf("SessionKeys() returned %d keys, want 5", len(keys))
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		if seen[key] {
			t.Errorf("duplicate session key %q", key)
		}
		seen[key] = true
	}
	for _, want := range []string{KeyAccessToken, KeyRefreshToken, KeyIDToken, KeyExpiresAt, KeyEmail} {
		if !seen[want] {
			t.Errorf("SessionKeys() missing %q", want)
		}
	}
}
