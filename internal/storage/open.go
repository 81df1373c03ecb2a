package storage

import (
	"fmt"

	"gorm.io/gorm"
)

// Backend names accepted by STORAGE_BACKEND
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQL    = "sql"
)

// Open returns the blob store for backend. db is only used by the sql backend.
func Open(backend, dataDir string, db *gorm.DB) (BlobStore, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStorage(), nil
	case BackendFile:
		return NewFileStorage(dataDir)
	case BackendSQL:
		if db == nil {
			return nil, fmt.Errorf("sql backend requires a database connection")
		}
		return NewSQLStorage(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", backend)
	}
}
