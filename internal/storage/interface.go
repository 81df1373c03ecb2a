package storage

// BlobStore defines the key-value byte storage the todo list is persisted to
type BlobStore interface {
	// Load returns the value stored under key, or ErrBlobNotFound
	Load(key string) ([]byte, error)
	// Save stores value under key, replacing any previous value
	Save(key string, value []byte) error
}
