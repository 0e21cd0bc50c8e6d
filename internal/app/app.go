// Package app holds the long-lived components of review-forge and controls
// their start and shutdown order.
package app

import (
	"log/slog"

	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/jobs"
	"github.com/sevigo/review-forge/internal/server"
)

// App holds the main application components. The exported fields are used
// directly by the CLI, which never starts the HTTP server.
type App struct {
	Cfg          *config.Config
	Orchestrator *jobs.Orchestrator
	Tracker      *jobs.Tracker
	Files        *attachments.Store
	Logger       *slog.Logger

	server     *server.Server
	dispatcher core.JobDispatcher
}

// NewApp sets up the application with all its dependencies.
func NewApp(
	cfg *config.Config,
	orchestrator *jobs.Orchestrator,
	tracker *jobs.Tracker,
	files *attachments.Store,
	dispatcher core.JobDispatcher,
	srv *server.Server,
	logger *slog.Logger,
) *App {
	logger.Info("review-forge initialized",
		"services", cfg.Pipeline.Services,
		"llm_provider", cfg.AI.LLMProvider,
		"database_driver", cfg.Database.Driver,
		"max_workers", cfg.Pipeline.MaxWorkers)

	return &App{
		Cfg:          cfg,
		Orchestrator: orchestrator,
		Tracker:      tracker,
		Files:        files,
		Logger:       logger,
		server:       srv,
		dispatcher:   dispatcher,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.Logger.Info("starting review-forge", "server_port", a.Cfg.Server.Port)

	if err := a.server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly. The database is closed by the
// cleanup function returned alongside the App.
func (a *App) Stop() error {
	a.Logger.Info("shutting down review-forge services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	// Let queued and in-flight runs finish.
	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.Logger.Info("review-forge stopped successfully")
	return nil
}
