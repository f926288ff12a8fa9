// Package main is the entry point for rfqdesk, the RFQ procurement service.
// Logistics users publish freight RFQs, invited vendors quote against them and
// logistics finalizes each RFQ by splitting its containers across quotes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/di"
	"github.com/aristath/rfqdesk/internal/server"
	"github.com/aristath/rfqdesk/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Starts the scheduler and the HTTP server
// 5. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting rfqdesk")

	container, err := di.Wire(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("rfqdesk started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for a running backup to finish before the database closes
	container.Scheduler.Stop()

	if err := container.DB.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Server stopped")
}
