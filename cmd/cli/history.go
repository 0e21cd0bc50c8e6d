package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/wire"
)

var outputJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [username]",
	Short: "Lists the reviews owned by a user, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		appInstance, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		summaries, err := appInstance.Orchestrator.History(ctx, core.UserID(args[0]))
		if err != nil {
			return fmt.Errorf("failed to retrieve history: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(summaries)
		}

		if len(summaries) == 0 {
			dimColor.Printf("No reviews found for %s.\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tQUESTION")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.CreatedAt.Format(time.RFC822), truncate(s.Prompt, 70))
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	historyCmd.Flags().BoolVar(&outputJSON, "json", false, "Output history as JSON")
	rootCmd.AddCommand(historyCmd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
