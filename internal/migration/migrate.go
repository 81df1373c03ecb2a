package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"todo-web/internal/database"

	"github.com/golang-migrate/migrate/v4"
	mdb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Config holds migration configuration
type Config struct {
	Driver string // database.DriverPostgres or database.DriverSQLite
	// DatabaseURL is a postgres:// URL, or a file path for sqlite
	DatabaseURL string
}

// Migrator handles database migrations
type Migrator struct {
	migrate *migrate.Migrate
	db      *sql.DB
}

// New creates a new Migrator instance
func New(cfg *Config) (*Migrator, error) {
	var sqlDriver, sourceDir string
	switch cfg.Driver {
	case database.DriverPostgres, "":
		sqlDriver, sourceDir = "postgres", "migrations/postgres"
	case database.DriverSQLite:
		sqlDriver, sourceDir = "sqlite3", "migrations/sqlite"
	default:
		return nil, fmt.Errorf("unsupported migration driver: %q", cfg.Driver)
	}

	db, err := sql.Open(sqlDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var driver mdb.Driver
	if sqlDriver == "postgres" {
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	} else {
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, sourceDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, sqlDriver, driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{
		migrate: m,
		db:      db,
	}, nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back the last migration
func (m *Migrator) Down() error {
	if err := m.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// Steps runs n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	if err := m.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run %d migration steps: %w", n, err)
	}
	return nil
}

// Version returns the current migration version; 0 when none has run
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the migration version without running migrations.
// Use with caution, it is meant for fixing a dirty state.
func (m *Migrator) Force(version int) error {
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version: %w", err)
	}
	return nil
}

// Close closes the database connection
func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// NewFromEnv creates a Migrator for the database configured in the environment
func NewFromEnv() (*Migrator, error) {
	return New(ConfigFrom(database.NewConfigFromEnv()))
}

// ConfigFrom derives the migration target from a database config
func ConfigFrom(db *database.Config) *Config {
	if db.Driver == database.DriverSQLite {
		return &Config{Driver: database.DriverSQLite, DatabaseURL: db.SQLitePath}
	}
	return &Config{Driver: database.DriverPostgres, DatabaseURL: db.URL()}
}
