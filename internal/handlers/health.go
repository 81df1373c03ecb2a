package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version is reported by the health endpoints; overridden at build time with
// -ldflags "-X todo-web/internal/handlers.Version=..."
var Version = "1.0.0"

// healthProbeKey is read (never written) to check that the blob store answers
const healthProbeKey = "health-probe"

// HealthDeps are the components the health checks inspect. Blobs, DB and
// Adapter may be nil when the server runs without them.
type HealthDeps struct {
	Store   *store.TodoStore
	Blobs   storage.BlobStore
	DB      *gorm.DB
	Adapter *persistence.Adapter
}

// HealthHandler handles health check requests
type HealthHandler struct {
	deps      HealthDeps
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// BasicHealth is a simple health check
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// DetailedHealth provides comprehensive health information
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks := make(map[string]HealthCheck)
	overallStatus := "healthy"

	checks["store"] = h.checkStore()

	storageCheck := h.checkStorage()
	checks["storage"] = storageCheck
	if storageCheck.Status == "unhealthy" {
		overallStatus = "unhealthy"
	}

	if h.deps.DB != nil {
		dbCheck := h.checkDatabase()
		checks["database"] = dbCheck
		if dbCheck.Status != "healthy" {
			overallStatus = "unhealthy"
		}
		checks["migrations"] = h.checkMigrations()
	}

	checks["persistence"] = h.checkPersistence()
	checks["system"] = h.getSystemInfo()

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    formatDuration(time.Since(h.startTime)),
		Version:   Version,
		Checks:    checks,
	}

	if overallStatus == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessProbe checks if the application is ready to serve traffic
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	if check := h.checkStorage(); check.Status == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"reason":  "storage_unavailable",
			"message": check.Message,
		})
		return
	}

	if h.deps.DB != nil {
		if check := h.checkDatabase(); check.Status != "healthy" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"reason":  "database_unavailable",
				"message": check.Message,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessProbe checks if the application is alive
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *HealthHandler) checkStore() HealthCheck {
	details := map[string]interface{}{
		"items": h.deps.Store.Len(),
	}
	if item, ok := h.deps.Store.ItemToEdit(); ok {
		details["editing"] = item.ID
	}

	return HealthCheck{
		Status:  "healthy",
		Message: "Todo store is loaded",
		Details: details,
	}
}

// checkStorage reads a key nobody writes; anything but "not found" is a failure
func (h *HealthHandler) checkStorage() HealthCheck {
	if h.deps.Blobs == nil {
		return HealthCheck{
			Status:  "disabled",
			Message: "No blob store configured",
		}
	}

	details := map[string]interface{}{"backend": backendName(h.deps.Blobs)}
	if fs, ok := h.deps.Blobs.(*storage.FileStorage); ok {
		details["dir"] = fs.Dir()
	}

	if _, err := h.deps.Blobs.Load(healthProbeKey); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		details["error"] = err.Error()
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Blob store is not readable",
			Details: details,
		}
	}

	return HealthCheck{
		Status:  "healthy",
		Message: "Blob store is readable",
		Details: details,
	}
}

func (h *HealthHandler) checkPersistence() HealthCheck {
	if h.deps.Adapter == nil {
		return HealthCheck{
			Status:  "disabled",
			Message: "Todo items are kept in memory only",
		}
	}

	details := map[string]interface{}{"hydrated": h.deps.Adapter.Hydrated()}
	if err := h.deps.Adapter.Err(); err != nil {
		details["error"] = err.Error()
		return HealthCheck{
			Status:  "warning",
			Message: "Last save failed",
			Details: details,
		}
	}

	return HealthCheck{
		Status:  "healthy",
		Message: "Todo items are persisted",
		Details: details,
	}
}

// checkDatabase verifies database connectivity
func (h *HealthHandler) checkDatabase() HealthCheck {
	sqlDB, err := h.deps.DB.DB()
	if err != nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Failed to get database instance",
		}
	}

	// Ping database with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Database ping failed",
			Details: map[string]interface{}{
				"error": err.Error(),
			},
		}
	}

	stats := sqlDB.Stats()

	return HealthCheck{
		Status:  "healthy",
		Message: "Database connection is healthy",
		Details: map[string]interface{}{
			"dialect":          h.deps.DB.Dialector.Name(),
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
			"wait_duration_ms": stats.WaitDuration.Milliseconds(),
		},
	}
}

// checkMigrations reports the golang-migrate version, when migrations were
// run with cmd/migrate instead of AutoMigrate
func (h *HealthHandler) checkMigrations() HealthCheck {
	if !h.deps.DB.Migrator().HasTable("schema_migrations") {
		return HealthCheck{
			Status:  "unknown",
			Message: "Migration table not found",
		}
	}

	var version uint
	var dirty bool
	err := h.deps.DB.Raw(`
		SELECT version, dirty
		FROM schema_migrations
		LIMIT 1
	`).Row().Scan(&version, &dirty)

	if err != nil {
		return HealthCheck{
			Status:  "unknown",
			Message: "Could not read migration status",
		}
	}

	status := "healthy"
	message := "Migrations are up to date"
	if dirty {
		status = "warning"
		message = "Database is in dirty state - manual intervention required"
	}

	return HealthCheck{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"version": version,
			"dirty":   dirty,
		},
	}
}

// getSystemInfo returns system information
func (h *HealthHandler) getSystemInfo() HealthCheck {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return HealthCheck{
		Status:  "info",
		Message: "System information",
		Details: map[string]interface{}{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": m.Alloc / 1024 / 1024,
			"memory_sys_mb":   m.Sys / 1024 / 1024,
			"num_gc":          m.NumGC,
			"go_version":      runtime.Version(),
		},
	}
}

func backendName(blobs storage.BlobStore) string {
	switch blobs.(type) {
	case *storage.MemoryStorage:
		return storage.BackendMemory
	case *storage.FileStorage:
		return storage.BackendFile
	case *storage.SQLStorage:
		return storage.BackendSQL
	default:
		return fmt.Sprintf("%T", blobs)
	}
}

// formatDuration formats a duration into a human-readable string
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
