package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const blobFileExt = ".blob"

// FileStorage keeps one file per key inside a data directory.
// Writes go through a temp file and rename so a crash never leaves a torn value.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the data directory if needed
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the data directory
func (s *FileStorage) Dir() string {
	return s.dir
}

// Load reads the file for key
func (s *FileStorage) Load(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return b, nil
}

// Save atomically replaces the file for key
func (s *FileStorage) Save(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(p, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// path maps a key to a file inside dir, refusing anything that could escape it
func (s *FileStorage) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key+blobFileExt), nil
}
