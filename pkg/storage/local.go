package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements Store on the local filesystem.
// Relative paths are resolved against BaseDir ("" means the working directory).
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a new LocalStore instance.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

// EnsureDir creates the directory and any missing parents.
func (s *LocalStore) EnsureDir(ctx context.Context, dir string) error {
	path := s.resolve(dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// Write writes the whole buffer, truncating an existing file.
func (s *LocalStore) Write(ctx context.Context, path string, data []byte) error {
	full := s.resolve(path)
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	return nil
}

func (s *LocalStore) resolve(p string) string {
	if s.BaseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.BaseDir, p)
}
