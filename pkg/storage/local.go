// Package storage persists uploaded documents on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore writes uploads into a single directory with collision-free
// names. The stored path doubles as the job's input URI.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes data under a uuid-prefixed name. Only the base name of the
// client-supplied filename is used, so uploads cannot escape the
// storage directory.
func (s *LocalStore) Save(data []byte, filename string) (string, error) {
	safe := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(s.dir, safe)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

// Dir returns the storage directory.
func (s *LocalStore) Dir() string {
	return s.dir
}
