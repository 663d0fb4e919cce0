// Package storage persists generated artifacts onto the local filesystem. It
// backs the devbackend in environments without an object store.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes artifacts under a single base directory.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Root returns the base directory, for serving via http.FileServer.
func (s *FileStore) Root() string {
	return s.basePath
}

// Save writes data at the given relative path, creating parent directories.
// Paths escaping the base directory are rejected.
func (s *FileStore) Save(relPath string, data []byte) (string, error) {
	relPath = filepath.Clean(strings.TrimLeft(relPath, "/"))
	if relPath == "." || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("storage: invalid path %q", relPath)
	}
	full := filepath.Join(s.basePath, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return full, nil
}
