// Command server runs the review-forge HTTP API until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/review-forge/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("review-forge exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("initialize review-forge: %w", err)
	}
	defer cleanup()

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.Start() }()

	select {
	case <-ctx.Done():
		app.Logger.Info("shutdown requested, finishing in-flight review runs")
	case err := <-serveErr:
		if err != nil {
			app.Logger.Error("review API failed", "error", err)
			_ = app.Stop()
			return err
		}
	}

	if err := app.Stop(); err != nil {
		return fmt.Errorf("stop review-forge: %w", err)
	}
	return nil
}
