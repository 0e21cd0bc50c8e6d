package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/review-forge/internal/archive"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/wire"
)

var exportCmd = &cobra.Command{
	Use:   "export [review-id]",
	Short: "Exports a stored review as markdown to the archive bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := core.ParseReviewID(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		appInstance, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		rec, err := appInstance.Orchestrator.GetReview(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load review %s: %w", id, err)
		}

		exporter, err := archive.New(ctx, appInstance.Cfg.Archive, appInstance.Logger)
		if err != nil {
			return err
		}
		key, err := exporter.Export(ctx, rec)
		if err != nil {
			return err
		}
		successColor.Printf("✓ Review %s exported to %s/%s\n", id, appInstance.Cfg.Archive.Bucket, key)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(exportCmd)
}
