package storage

import (
	"errors"
	"sync"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrInvalidKey   = errors.New("invalid blob key")
)

// MemoryStorage provides in-memory blob storage
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte // maps key to value
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blobs: make(map[string][]byte),
	}
}

// Load retrieves a copy of the value stored under key
func (s *MemoryStorage) Load(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.blobs[key]
	if !exists {
		return nil, ErrBlobNotFound
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

// Save stores a copy of value under key
func (s *MemoryStorage) Save(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	s.blobs[key] = valueCopy
	return nil
}

// Keys returns the number of stored keys
func (s *MemoryStorage) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
