package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/store"
	"todo-web/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStorage fails every call
type brokenStorage struct{}

func (brokenStorage) Load(string) ([]byte, error) { return nil, errors.New("volume unmounted") }
func (brokenStorage) Save(string, []byte) error   { return errors.New("volume unmounted") }

func callHealth(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health", nil)
	handler(c)
	return w
}

func parseHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(HealthDeps{Store: store.New()})

	assert.NotNil(t, handler)
	assert.False(t, handler.startTime.IsZero())
}

func TestBasicAndLiveness(t *testing.T) {
	handler := NewHealthHandler(HealthDeps{Store: store.New()})

	w := callHealth(handler.BasicHealth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = callHealth(handler.LivenessProbe)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestDetailedHealth_Memory(t *testing.T) {
	handler := NewHealthHandler(HealthDeps{
		Store: store.New(),
		Blobs: storage.NewMemoryStorage(),
	})

	w := callHealth(handler.DetailedHealth)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseHealth(t, w)
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, Version, response.Version)
	assert.NotEmpty(t, response.Timestamp)
	assert.NotEmpty(t, response.Uptime)

	assert.Equal(t, float64(2), response.Checks["store"].Details["items"])
	assert.Equal(t, "healthy", response.Checks["storage"].Status)
	assert.Equal(t, "memory", response.Checks["storage"].Details["backend"])
	assert.Equal(t, "disabled", response.Checks["persistence"].Status)
	assert.NotContains(t, response.Checks, "database")
	assert.Equal(t, "info", response.Checks["system"].Status)
}

func TestDetailedHealth_File(t *testing.T) {
	dir := t.TempDir()
	blobs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)

	handler := NewHealthHandler(HealthDeps{Store: store.New(), Blobs: blobs})
	response := parseHealth(t, callHealth(handler.DetailedHealth))

	assert.Equal(t, "file", response.Checks["storage"].Details["backend"])
	assert.Equal(t, dir, response.Checks["storage"].Details["dir"])
}

func TestDetailedHealth_SQL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewHealthHandler(HealthDeps{
		Store: store.New(),
		Blobs: storage.NewSQLStorage(db),
		DB:    db,
	})

	t.Run("without migration table", func(t *testing.T) {
		w := callHealth(handler.DetailedHealth)

		assert.Equal(t, http.StatusOK, w.Code)
		response := parseHealth(t, w)
		assert.Equal(t, "sql", response.Checks["storage"].Details["backend"])
		assert.Equal(t, "healthy", response.Checks["database"].Status)
		assert.Equal(t, "sqlite", response.Checks["database"].Details["dialect"])
		assert.Equal(t, "unknown", response.Checks["migrations"].Status)
	})

	t.Run("reports the migration version", func(t *testing.T) {
		require.NoError(t, db.Exec("CREATE TABLE schema_migrations (version BIGINT NOT NULL, dirty BOOLEAN NOT NULL)").Error)
		require.NoError(t, db.Exec("INSERT INTO schema_migrations (version, dirty) VALUES (1, 0)").Error)

		response := parseHealth(t, callHealth(handler.DetailedHealth))

		assert.Equal(t, "healthy", response.Checks["migrations"].Status)
		assert.Equal(t, float64(1), response.Checks["migrations"].Details["version"])
	})

	t.Run("flags a dirty database", func(t *testing.T) {
		require.NoError(t, db.Exec("UPDATE schema_migrations SET dirty = 1").Error)

		response := parseHealth(t, callHealth(handler.DetailedHealth))

		assert.Equal(t, "warning", response.Checks["migrations"].Status)
	})
}

func TestDetailedHealth_Unhealthy(t *testing.T) {
	t.Run("unreadable blob store", func(t *testing.T) {
		handler := NewHealthHandler(HealthDeps{Store: store.New(), Blobs: brokenStorage{}})

		w := callHealth(handler.DetailedHealth)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		response := parseHealth(t, w)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Equal(t, "volume unmounted", response.Checks["storage"].Details["error"])
	})

	t.Run("closed database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		handler := NewHealthHandler(HealthDeps{Store: store.New(), DB: db})
		w := callHealth(handler.DetailedHealth)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", parseHealth(t, w).Checks["database"].Status)
	})
}

func TestDetailedHealth_PersistenceFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := store.New()
	adapter := persistence.Bind(s, brokenStorage{}, persistence.Options{Logger: logger})
	defer adapter.Close()
	s.AddItem("will not be saved")

	handler := NewHealthHandler(HealthDeps{Store: s, Adapter: adapter})
	w := callHealth(handler.DetailedHealth)

	assert.Equal(t, http.StatusOK, w.Code, "a failed save does not take the server down")
	response := parseHealth(t, w)
	assert.Equal(t, "warning", response.Checks["persistence"].Status)
	assert.Equal(t, float64(3), response.Checks["store"].Details["items"])
}

func TestReadinessProbe(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewHealthHandler(HealthDeps{Store: store.New(), Blobs: storage.NewSQLStorage(db), DB: db})

		w := callHealth(handler.ReadinessProbe)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})

	t.Run("storage unavailable", func(t *testing.T) {
		handler := NewHealthHandler(HealthDeps{Store: store.New(), Blobs: brokenStorage{}})

		w := callHealth(handler.ReadinessProbe)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "storage_unavailable")
	})

	t.Run("database unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		handler := NewHealthHandler(HealthDeps{Store: store.New(), DB: db})
		w := callHealth(handler.ReadinessProbe)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "database_unavailable")
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{4*time.Hour + 5*time.Minute + 6*time.Second, "4h 5m 6s"},
		{50*time.Hour + 10*time.Second, "2d 2h 0m 10s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
