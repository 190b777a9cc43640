package credstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileStorageDir is the default directory for file-backed
// credential storage, relative to the user's home directory. This follows
// XDG conventions.
const DefaultFileStorageDir = ".config/campus/credentials"

// File stores each credential in its own file for hosts without an OS
// keyring (headless servers, containers).
//
// SECURITY: the storage directory is created with 0700 and files with
// 0600 permissions (owner only). Writes go through a temp file and a
// rename so a crash mid-write never leaves a torn value behind.
type File struct {
	dir string
}

// NewFile creates a file-backed store rooted at dir. An empty dir falls
// back to DefaultFileStorageDir under the user's home directory.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultFileStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	return &File{dir: dir}, nil
}

// Save writes the value for key atomically.
func (f *File) Save(key string, value []byte) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to restrict credential file permissions: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close credential file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish credential file: %w", err)
	}

	return nil
}

// Load reads the value for key, or ErrNotFound.
func (f *File) Load(key string) ([]byte, error) {
	// #nosec G304 -- path is constructed from an internal key, not user input
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	return data, nil
}

// Delete removes the value for key. Deleting an absent key succeeds.
func (f *File) Delete(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key)
}
