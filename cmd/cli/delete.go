package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/wire"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [review-id]",
	Short: "Deletes a stored review; its attachments are kept",
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

		if err := appInstance.Orchestrator.DeleteReview(ctx, id); err != nil {
			return fmt.Errorf("failed to delete review %s: %w", id, err)
		}
		successColor.Printf("✓ Review %s deleted\n", id)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(deleteCmd)
}
