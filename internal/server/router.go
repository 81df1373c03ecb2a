package server

import (
	"todo-web/internal/config"
	"todo-web/internal/handlers"
	"todo-web/internal/middleware"
	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the components the routes are served from
type Dependencies struct {
	Store   *store.TodoStore
	Blobs   storage.BlobStore    // nil when persistence is off
	Adapter *persistence.Adapter // nil when persistence is off
	DB      *gorm.DB             // nil unless STORAGE_BACKEND=sql
}

// NewRouter builds the gin engine with the middleware chain and all routes
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(handlers.Templates())

	// Security headers first, so even rejected requests carry them
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.RequestSizeLimit(cfg.Security.MaxRequestBodySize))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorSanitizer())
	router.Use(middleware.GlobalRateLimiter(cfg.RateLimit))

	writeLimit := middleware.WriteRateLimiter(cfg.RateLimit)
	validID := middleware.IDValidator("id")

	page := handlers.NewPageHandler(deps.Store)
	router.GET("/", page.Index)
	router.POST("/items", writeLimit, page.Submit)
	router.POST("/items/:id/toggle", writeLimit, validID, page.Toggle)
	router.POST("/items/:id/delete", writeLimit, validID, page.Delete)
	router.POST("/items/:id/edit", writeLimit, validID, page.Edit)
	router.POST("/edit/cancel", writeLimit, page.CancelEdit)

	todos := handlers.NewTodoHandler(deps.Store)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/todos", todos.GetState)
		v1.POST("/todos", writeLimit, todos.AddItem)
		v1.POST("/todos/:id/toggle", writeLimit, validID, todos.ToggleItem)
		v1.DELETE("/todos/:id", writeLimit, validID, todos.RemoveItem)
		v1.PUT("/todos/:id/edit", writeLimit, validID, todos.SetEditItem)
		v1.DELETE("/edit", writeLimit, todos.ClearEditItem)
		v1.GET("/events", todos.Events)
	}

	health := handlers.NewHealthHandler(handlers.HealthDeps{
		Store:   deps.Store,
		Blobs:   deps.Blobs,
		DB:      deps.DB,
		Adapter: deps.Adapter,
	})
	router.GET("/health", health.BasicHealth)
	router.GET("/health/live", health.LivenessProbe)
	router.GET("/health/ready", health.ReadinessProbe)
	router.GET("/health/detailed", health.DetailedHealth)

	return router, nil
}
