package handlers

import (
	"net/http"
	"strings"

	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/models"
	"todo-web/internal/store"

	"github.com/gin-gonic/gin"
)

// eventBuffer is how many changes a slow event stream may fall behind
// before changes are dropped for it
const eventBuffer = 16

// TodoHandler serves the JSON API over a TodoStore
type TodoHandler struct {
	store *store.TodoStore
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(s *store.TodoStore) *TodoHandler {
	return &TodoHandler{store: s}
}

// ChangeEvent is the payload of a "change" server-sent event
type ChangeEvent struct {
	Kind       store.ChangeKind  `json:"kind"`
	TodoItems  []models.TodoItem `json:"todoItems"`
	ItemToEdit *models.TodoItem  `json:"itemToEdit,omitempty"`
}

// GetState handles GET /todos
func (h *TodoHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// AddItem handles POST /todos. It commits the pending edit when one is set.
func (h *TodoHandler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: "Invalid request body",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: "Content must not be blank",
			Details: map[string]interface{}{"field": "content"},
		})
		return
	}

	h.store.AddItem(req.Content)
	c.JSON(http.StatusCreated, h.state())
}

// ToggleItem handles POST /todos/:id/toggle
func (h *TodoHandler) ToggleItem(c *gin.Context) {
	item, ok := h.lookup(c)
	if !ok {
		return
	}

	h.store.ToggleState(item)
	c.JSON(http.StatusOK, h.state())
}

// RemoveItem handles DELETE /todos/:id. Removing an unknown id succeeds.
func (h *TodoHandler) RemoveItem(c *gin.Context) {
	id, _ := middleware.ParseID(c.Param("id"))
	h.store.RemoveItem(models.TodoItem{ID: id})
	c.Status(http.StatusNoContent)
}

// SetEditItem handles PUT /todos/:id/edit
func (h *TodoHandler) SetEditItem(c *gin.Context) {
	item, ok := h.lookup(c)
	if !ok {
		return
	}

	h.store.SetEditItem(item)
	c.JSON(http.StatusOK, h.state())
}

// ClearEditItem handles DELETE /edit
func (h *TodoHandler) ClearEditItem(c *gin.Context) {
	h.store.ClearEditItem()
	c.JSON(http.StatusOK, h.state())
}

// Events handles GET /events. The stream opens with a "snapshot" event and
// then carries one "change" event per store notification until the client
// goes away.
func (h *TodoHandler) Events(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	changes := make(chan store.Change, eventBuffer)
	unsubscribe := h.store.Subscribe(func(change store.Change) {
		// Observers run under the store lock, so never block here
		select {
		case changes <- change:
		default:
			logging.Logger.WithField("request_id", requestID).
				Warn("Event stream is behind, dropping change")
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("snapshot", h.state())
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			c.SSEvent("change", ChangeEvent{
				Kind:       change.Kind,
				TodoItems:  store.SortByID(change.TodoItems),
				ItemToEdit: change.ItemToEdit,
			})
			c.Writer.Flush()
		}
	}
}

// lookup resolves the :id parameter to a stored item, answering 404 itself
func (h *TodoHandler) lookup(c *gin.Context) (models.TodoItem, bool) {
	id, _ := middleware.ParseID(c.Param("id"))
	item, ok := h.store.Find(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    "TODO_NOT_FOUND",
			Message: "The requested todo was not found",
		})
		return models.TodoItem{}, false
	}
	return item, true
}

func (h *TodoHandler) state() models.StateResponse {
	response := models.StateResponse{TodoItems: h.store.SortedTodoItems()}
	if item, ok := h.store.ItemToEdit(); ok {
		response.ItemToEdit = &item
	}
	return response
}
