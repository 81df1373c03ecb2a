// Package config gathers the server settings that are spread over the
// environment into one value, so cmd/server can validate them up front.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"todo-web/internal/database"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/tls"
)

// Config is the complete server configuration
type Config struct {
	Port            string
	ShutdownTimeout time.Duration

	StorageBackend string // memory, file or sql
	DataDir        string // FileStorage directory
	PersistEnabled bool
	StoreKey       string

	Database  *database.Config
	Log       *logging.LogConfig
	CORS      *middleware.CORSConfig
	Security  *middleware.SecurityConfig
	RateLimit *middleware.RateLimitConfig
	TLS       *tls.Config
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		StorageBackend:  getEnv("STORAGE_BACKEND", storage.BackendFile),
		DataDir:         getEnv("DATA_DIR", "./data"),
		PersistEnabled:  getEnvBool("PERSIST_ENABLED", true),
		StoreKey:        getEnv("STORE_KEY", persistence.DefaultKey),
		Database:        database.NewConfigFromEnv(),
		Log:             logging.NewLogConfigFromEnv(),
		CORS:            middleware.NewCORSConfigFromEnv(),
		Security:        middleware.NewSecurityConfigFromEnv(),
		RateLimit:       middleware.NewRateLimitConfigFromEnv(),
		TLS:             tls.NewConfigFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case storage.BackendMemory, storage.BackendFile, storage.BackendSQL:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want memory, file or sql", c.StorageBackend)
	}

	if c.StorageBackend == storage.BackendSQL {
		switch c.Database.Driver {
		case database.DriverSQLite, database.DriverPostgres:
		default:
			return fmt.Errorf("invalid DB_DRIVER %q: want sqlite or postgres", c.Database.Driver)
		}
	}

	if c.StoreKey == "" {
		return fmt.Errorf("STORE_KEY must not be empty")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	return nil
}

// UsesDatabase reports whether a database connection is needed
func (c *Config) UsesDatabase() bool {
	return c.StorageBackend == storage.BackendSQL
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
