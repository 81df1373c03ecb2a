package server

import (
	"fmt"

	"todo-web/internal/config"
	"todo-web/internal/database"
	"todo-web/internal/logging"
	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/store"

	"gorm.io/gorm"
)

// App owns the long-lived components behind the routes
type App struct {
	Dependencies
}

// Open connects the database when needed, creates the store and binds it to
// the configured blob store
func Open(cfg *config.Config) (*App, error) {
	var db *gorm.DB
	if cfg.UsesDatabase() {
		var err error
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}

	app := &App{Dependencies{Store: store.New(), DB: db}}

	if !cfg.PersistEnabled {
		logging.Logger.Info("Persistence disabled, todo items live in memory only")
		return app, nil
	}

	blobs, err := storage.Open(cfg.StorageBackend, cfg.DataDir, db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}
	app.Blobs = blobs
	app.Adapter = persistence.Bind(app.Store, blobs, persistence.Options{Key: cfg.StoreKey})

	logging.Logger.WithFields(map[string]interface{}{
		"backend":  cfg.StorageBackend,
		"key":      cfg.StoreKey,
		"hydrated": app.Adapter.Hydrated(),
		"items":    app.Store.Len(),
	}).Info("Todo store ready")

	return app, nil
}

// Close stops persisting and releases the database
func (a *App) Close() error {
	if a.Adapter != nil {
		a.Adapter.Close()
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
