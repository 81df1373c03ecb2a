package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"todo-web/internal/logging"
	"todo-web/internal/models"
	"todo-web/internal/storage"
	"todo-web/internal/store"

	"github.com/sirupsen/logrus"
)

// DefaultKey is the blob store key the todo list lives under
const DefaultKey = "TodoStore"

var ErrMalformedState = errors.New("malformed persisted state")

// Options tune the adapter
type Options struct {
	Key    string             // blob key, DefaultKey when empty
	Logger logrus.FieldLogger // logging.Logger when nil
}

// Adapter mirrors a TodoStore's items into a blob store
type Adapter struct {
	blobs       storage.BlobStore
	key         string
	log         logrus.FieldLogger
	unsubscribe func()

	mu       sync.Mutex
	hydrated bool
	lastErr  error
}

// Bind hydrates s from blobs and keeps blobs in sync with every later item
// change. Missing or malformed data leaves the seed items in place; no error
// is ever returned to the caller.
func Bind(s *store.TodoStore, blobs storage.BlobStore, opts Options) *Adapter {
	a := &Adapter{
		blobs: blobs,
		key:   opts.Key,
		log:   opts.Logger,
	}
	if a.key == "" {
		a.key = DefaultKey
	}
	if a.log == nil {
		a.log = logging.Logger
	}
	a.log = a.log.WithField("blob_key", a.key)

	a.hydrate(s)
	a.unsubscribe = s.Subscribe(a.onChange)
	return a
}

// Hydrated reports whether persisted items replaced the seed list
func (a *Adapter) Hydrated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hydrated
}

// Err returns the error of the most recent save, nil once a save succeeds
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Close stops syncing
func (a *Adapter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

func (a *Adapter) hydrate(s *store.TodoStore) {
	data, err := a.blobs.Load(a.key)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			a.log.Debug("No persisted todo items, starting from seed list")
			return
		}
		a.log.WithError(err).Warn("Failed to load persisted todo items, starting from seed list")
		return
	}

	items, err := Decode(data)
	if err != nil {
		a.log.WithError(err).Warn("Discarding persisted todo items")
		return
	}

	s.SetTodoItems(items)

	a.mu.Lock()
	a.hydrated = true
	a.mu.Unlock()

	a.log.WithField("items", len(items)).Info("Restored persisted todo items")
}

// onChange runs inside the store's notification, so it only touches the
// snapshot it is handed
func (a *Adapter) onChange(change store.Change) {
	if !change.ItemsChanged {
		return
	}

	err := a.save(change.TodoItems)

	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()

	if err != nil {
		a.log.WithError(err).WithField("change", change.Kind).Error("Failed to persist todo items")
		return
	}
	a.log.WithFields(logrus.Fields{
		"change": change.Kind,
		"items":  len(change.TodoItems),
	}).Debug("Persisted todo items")
}

func (a *Adapter) save(items []models.TodoItem) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	if err := a.blobs.Save(a.key, data); err != nil {
		return fmt.Errorf("save blob: %w", err)
	}
	return nil
}

// Encode serializes items as {"todoItems": [...]}
func Encode(items []models.TodoItem) ([]byte, error) {
	if items == nil {
		items = []models.TodoItem{}
	}
	data, err := json.Marshal(models.PersistedState{TodoItems: items})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

// Decode parses a persisted document. The todoItems field must be present,
// must be an array, and ids must be positive and unique. Non-positive ids
// could never be addressed by a route or the CLI.
func Decode(data []byte) ([]models.TodoItem, error) {
	var doc struct {
		TodoItems *[]models.TodoItem `json:"todoItems"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if doc.TodoItems == nil {
		return nil, fmt.Errorf("%w: missing todoItems", ErrMalformedState)
	}

	items := *doc.TodoItems
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("%w: non-positive id %d", ErrMalformedState, item.ID)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrMalformedState, item.ID)
		}
		seen[item.ID] = true
	}
	return items, nil
}
