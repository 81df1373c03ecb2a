package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo-web/internal/config"
	"todo-web/internal/logging"
	"todo-web/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Invalid configuration: %v", err)
	}
	logging.InitLogger(cfg.Log)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := server.Open(cfg)
	if err != nil {
		logging.Logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Logger.Errorf("Failed to close storage: %v", err)
		}
	}()

	router, err := server.NewRouter(cfg, app.Dependencies)
	if err != nil {
		logging.Logger.Errorf("Failed to set up router: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, router); err != nil {
		logging.Logger.Errorf("Server stopped with error: %v", err)
		return
	}
	logging.Logger.Info("Server stopped")
}
