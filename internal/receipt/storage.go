package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage is where exported artifacts are written
type Storage interface {
	// Save writes a file and returns where it landed
	Save(filename string, data []byte) (string, error)
}

// LocalStorage writes artifacts into one directory on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the output directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes data to a temporary file and renames it over filename, so a
// previous export of the same day is replaced whole or not at all.
// Directory components of filename are ignored.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filepath.Base(filename))

	tmp, err := os.CreateTemp(l.basePath, ".export-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}
	return path, nil
}
