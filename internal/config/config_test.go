package config

import (
	"testing"
	"time"

	"todo-web/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "SHUTDOWN_TIMEOUT_SEC", "STORAGE_BACKEND", "DATA_DIR",
		"PERSIST_ENABLED", "STORE_KEY", "DB_DRIVER"} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("uses default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "file", cfg.StorageBackend)
		assert.Equal(t, "./data", cfg.DataDir)
		assert.True(t, cfg.PersistEnabled)
		assert.Equal(t, persistence.DefaultKey, cfg.StoreKey)
		assert.False(t, cfg.UsesDatabase())
		assert.NotNil(t, cfg.Database)
		assert.NotNil(t, cfg.Log)
		assert.NotNil(t, cfg.CORS)
		assert.NotNil(t, cfg.Security)
		assert.NotNil(t, cfg.RateLimit)
		assert.NotNil(t, cfg.TLS)
	})

	t.Run("uses custom values from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "9000")
		t.Setenv("STORAGE_BACKEND", "sql")
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("PERSIST_ENABLED", "false")
		t.Setenv("STORE_KEY", "work")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.True(t, cfg.UsesDatabase())
		assert.False(t, cfg.PersistEnabled)
		assert.Equal(t, "work", cfg.StoreKey)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "s3"}, "invalid STORAGE_BACKEND"},
		{"unknown driver", map[string]string{"STORAGE_BACKEND": "sql", "DB_DRIVER": "mysql"}, "invalid DB_DRIVER"},
		{"bad port", map[string]string{"PORT": "http"}, "invalid PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("driver is ignored without the sql backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("DB_DRIVER", "mysql")

		_, err := Load()
		assert.NoError(t, err)
	})
}
