package store

import (
	"sort"
	"sync"
	"time"

	"todo-web/internal/models"
)

// ChangeKind names the operation that produced a Change
type ChangeKind string

const (
	ChangeItemAdded     ChangeKind = "item_added"
	ChangeItemEdited    ChangeKind = "item_edited"
	ChangeItemToggled   ChangeKind = "item_toggled"
	ChangeItemRemoved   ChangeKind = "item_removed"
	ChangeEditItemSet   ChangeKind = "edit_item_set"
	ChangeItemsReplaced ChangeKind = "items_replaced"
)

// Change describes a completed mutation. TodoItems and ItemToEdit are
// snapshots taken after the mutation. Every observer receives its own copies,
// so they are safe to keep and modify.
type Change struct {
	Kind         ChangeKind
	ItemsChanged bool
	TodoItems    []models.TodoItem
	ItemToEdit   *models.TodoItem
}

// Observer is called synchronously after every mutation, while the store
// is still locked. Observers must not call back into the store.
type Observer func(Change)

// TodoStore owns the todo list and the current edit target
type TodoStore struct {
	mu         sync.Mutex
	now        func() time.Time
	todoItems  []models.TodoItem
	itemToEdit *models.TodoItem
	lastID     int64

	observers map[int]Observer
	nextObs   int
}

// New creates a store holding the seed items
func New() *TodoStore {
	return NewWithClock(time.Now)
}

// NewWithClock creates a seeded store that derives ids from the given clock
func NewWithClock(now func() time.Time) *TodoStore {
	s := &TodoStore{
		now:       now,
		observers: make(map[int]Observer),
	}
	s.replace(models.SeedTodoItems())
	return s
}

// Subscribe registers an observer and returns a function that removes it
func (s *TodoStore) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// AddItem commits the pending edit when one is set, otherwise appends a new item.
// Content is not validated.
func (s *TodoStore) AddItem(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.itemToEdit != nil {
		if i := s.indexOf(s.itemToEdit.ID); i >= 0 {
			s.todoItems[i].Content = content
		}
		s.itemToEdit = nil
		s.notify(ChangeItemEdited, true)
		return
	}

	s.todoItems = append(s.todoItems, models.TodoItem{
		ID:      s.nextID(),
		Content: content,
		Done:    false,
	})
	s.notify(ChangeItemAdded, true)
}

// ToggleState flips the done flag of the stored item with item's id
func (s *TodoStore) ToggleState(item models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(item.ID)
	if i < 0 {
		return
	}
	s.todoItems[i].Done = !s.todoItems[i].Done
	s.notify(ChangeItemToggled, true)
}

// RemoveItem removes the stored item with item's id. Unknown ids are ignored.
func (s *TodoStore) RemoveItem(item models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(item.ID)
	if i < 0 {
		return
	}
	s.todoItems = append(s.todoItems[:i], s.todoItems[i+1:]...)
	s.notify(ChangeItemRemoved, true)
}

// SetEditItem selects the item whose content the next AddItem replaces.
// Membership is not checked.
func (s *TodoStore) SetEditItem(item models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := item
	s.itemToEdit = &target
	s.notify(ChangeEditItemSet, false)
}

// ClearEditItem drops the edit target without touching any item
func (s *TodoStore) ClearEditItem() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.itemToEdit == nil {
		return
	}
	s.itemToEdit = nil
	s.notify(ChangeEditItemSet, false)
}

// SetTodoItems replaces the whole list
func (s *TodoStore) SetTodoItems(items []models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(items)
	s.notify(ChangeItemsReplaced, true)
}

// TodoItems returns a copy of the list in insertion order
func (s *TodoStore) TodoItems() []models.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SortedTodoItems returns a new slice ordered by ascending id.
// The stored order is left as is.
func (s *TodoStore) SortedTodoItems() []models.TodoItem {
	return SortByID(s.TodoItems())
}

// SortByID orders items by ascending id in place and returns them
func SortByID(items []models.TodoItem) []models.TodoItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items
}

// ItemToEdit returns the current edit target, if any. While the target is
// still in the list the stored element is returned, so a later toggle shows.
func (s *TodoStore) ItemToEdit() (models.TodoItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.editTarget()
}

// Find looks up an item by id
func (s *TodoStore) Find(id int64) (models.TodoItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.TodoItem{}, false
	}
	return s.todoItems[i], true
}

// Len returns the number of items
func (s *TodoStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.todoItems)
}

// nextID derives an id from the clock, bumped past the last issued id so that
// two adds within one millisecond never collide. Must be called with lock held.
func (s *TodoStore) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// replace installs a copy of items (must be called with lock held)
func (s *TodoStore) replace(items []models.TodoItem) {
	s.todoItems = make([]models.TodoItem, len(items))
	copy(s.todoItems, items)
	for _, item := range s.todoItems {
		if item.ID > s.lastID {
			s.lastID = item.ID
		}
	}
}

// indexOf finds an item position (must be called with lock held)
func (s *TodoStore) indexOf(id int64) int {
	for i := range s.todoItems {
		if s.todoItems[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshot copies the list (must be called with lock held)
func (s *TodoStore) snapshot() []models.TodoItem {
	items := make([]models.TodoItem, len(s.todoItems))
	copy(items, s.todoItems)
	return items
}

// editTarget resolves the edit target against the list (must be called with lock held)
func (s *TodoStore) editTarget() (models.TodoItem, bool) {
	if s.itemToEdit == nil {
		return models.TodoItem{}, false
	}
	if i := s.indexOf(s.itemToEdit.ID); i >= 0 {
		return s.todoItems[i], true
	}
	return *s.itemToEdit, true
}

// notify delivers a Change to every observer (must be called with lock held).
// Each observer gets its own snapshot.
func (s *TodoStore) notify(kind ChangeKind, itemsChanged bool) {
	if len(s.observers) == 0 {
		return
	}

	target, editing := s.editTarget()

	// Deliver in subscription order
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		change := Change{
			Kind:         kind,
			ItemsChanged: itemsChanged,
			TodoItems:    s.snapshot(),
		}
		if editing {
			edit := target
			change.ItemToEdit = &edit
		}
		s.observers[id](change)
	}
}
