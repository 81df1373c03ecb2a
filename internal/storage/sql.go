package storage

import (
	"errors"

	"todo-web/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStorage implements blob storage on a gorm database (PostgreSQL or SQLite)
type SQLStorage struct {
	db *gorm.DB
}

// NewSQLStorage creates a new SQL storage instance
func NewSQLStorage(db *gorm.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

// DB exposes the underlying connection for health checks
func (s *SQLStorage) DB() *gorm.DB {
	return s.db
}

// Load retrieves the blob stored under key
func (s *SQLStorage) Load(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	var blob models.Blob
	if err := s.db.First(&blob, "blob_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return blob.Value, nil
}

// Save inserts or replaces the blob stored under key
func (s *SQLStorage) Save(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	blob := &models.Blob{
		Key:   key,
		Value: value,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(blob).Error
}
