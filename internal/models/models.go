package models

import (
	"time"
)

// TodoItem is a single task with identity, text and completion flag
type TodoItem struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// PersistedState is the document written to the blob store.
// The edit target is transient UI state and never part of it.
type PersistedState struct {
	TodoItems []TodoItem `json:"todoItems"`
}

// SeedTodoItems returns the list a fresh store starts with
func SeedTodoItems() []TodoItem {
	return []TodoItem{
		{ID: 1, Content: "Ditch redux", Done: true},
		{ID: 2, Content: "Learn MobX", Done: false},
	}
}

// Blob represents one key-value entry of the SQL-backed blob store
type Blob struct {
	Key       string    `gorm:"column:blob_key;primaryKey;size:255" json:"key"`
	Value     []byte    `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the table name used by migrations
func (Blob) TableName() string {
	return "blobs"
}

// AddItemRequest represents the request to add a todo or commit a pending edit.
// Length is only bounded by the request size limit.
type AddItemRequest struct {
	Content string `json:"content" form:"content" binding:"required"`
}

// StateResponse represents the store as seen by API clients
type StateResponse struct {
	TodoItems  []TodoItem `json:"todoItems"`
	ItemToEdit *TodoItem  `json:"itemToEdit,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
