// Package app wires the birdsync components together and manages the
// lifecycle of the status server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jcu-ap03/birdsync/internal/config"
)

// SyncApp runs the sync coordinator in the background and serves its status
// over HTTP until stopped.
type SyncApp struct {
	config     *config.Config
	components *Components
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the sync coordinator and the HTTP server.
// It blocks until the HTTP server stops or fails.
func (app *SyncApp) Start() error {
	go func() {
		if err := app.components.Coordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop stops the coordinator, waits for the HTTP server to drain within
// timeout and releases the repository.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.Coordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
