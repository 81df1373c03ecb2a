package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/models"
	"todo-web/internal/store"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's SetHTMLTemplate
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// PageHandler serves the server-rendered todo page. Every form posts back
// and is answered with a 303 to "/".
type PageHandler struct {
	store *store.TodoStore
}

// NewPageHandler creates a new page handler
func NewPageHandler(s *store.TodoStore) *PageHandler {
	return &PageHandler{store: s}
}

type pageData struct {
	Items      []models.TodoItem
	EditItem   *models.TodoItem
	InputValue string
}

// Index handles GET /
func (h *PageHandler) Index(c *gin.Context) {
	data := pageData{Items: h.store.SortedTodoItems()}
	if item, ok := h.store.ItemToEdit(); ok {
		data.EditItem = &item
		data.InputValue = item.Content
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// Submit handles POST /items. Blank input is ignored.
func (h *PageHandler) Submit(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		if err != nil {
			logging.Logger.WithField("request_id", middleware.GetRequestID(c)).
				Debugf("Ignoring form submission: %v", err)
		}
		h.back(c)
		return
	}

	h.store.AddItem(req.Content)
	h.back(c)
}

// Toggle handles POST /items/:id/toggle
func (h *PageHandler) Toggle(c *gin.Context) {
	if item, ok := h.find(c); ok {
		h.store.ToggleState(item)
	}
	h.back(c)
}

// Delete handles POST /items/:id/delete
func (h *PageHandler) Delete(c *gin.Context) {
	id, _ := middleware.ParseID(c.Param("id"))
	h.store.RemoveItem(models.TodoItem{ID: id})
	h.back(c)
}

// Edit handles POST /items/:id/edit
func (h *PageHandler) Edit(c *gin.Context) {
	if item, ok := h.find(c); ok {
		h.store.SetEditItem(item)
	}
	h.back(c)
}

// CancelEdit handles POST /edit/cancel
func (h *PageHandler) CancelEdit(c *gin.Context) {
	h.store.ClearEditItem()
	h.back(c)
}

func (h *PageHandler) find(c *gin.Context) (models.TodoItem, bool) {
	id, _ := middleware.ParseID(c.Param("id"))
	return h.store.Find(id)
}

func (h *PageHandler) back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
