package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursetrack/internal/logger"
	"coursetrack/internal/mockapi"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type mockConfig struct {
	Port   string `envconfig:"MOCKAPI_PORT" default:"3000"`
	DBFile string `envconfig:"MOCKAPI_DB_FILE" default:"db.json"`
}

// mockapi runs the json-server-compatible data service the front-end talks
// to during local development.
func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	var cfg mockConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	srv := mockapi.NewServer(logger)
	if err := srv.LoadFile(cfg.DBFile); err != nil {
		logger.Fatal().Msgf("Failed to load %s: %v", cfg.DBFile, err)
	}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Msgf("Mock data service starting on port %s (db: %s)", cfg.Port, cfg.DBFile)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
}
