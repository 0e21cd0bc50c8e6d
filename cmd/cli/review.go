package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/wire"
)

var (
	reviewID   string
	reviewUser string
	verbose    bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [research question]",
	Short: "Generate (or fetch) the systematic review for a research question",
	Long: `Generate the systematic review for a research question.

If a review with the given id is already stored it is returned without calling
any external service. Otherwise the attachments of the review are indexed, the
review is generated section by section, and the result is saved.

Examples:
  forge-cli review --id 42 --user alice "Effects of X on Y"
  forge-cli review --user alice --verbose "Effects of X on Y"`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringVar(&reviewID, "id", "", "review id (generated when empty)")
	reviewCmd.Flags().StringVarP(&reviewUser, "user", "u", "", "username owning the review")
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every stage transition")
	_ = reviewCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := core.NewReviewID()
	if reviewID != "" {
		var err error
		if id, err = core.ParseReviewID(reviewID); err != nil {
			return err
		}
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check that your config.yaml exists and is valid", err)
	}
	defer cleanup()

	titleColor.Println("review-forge")
	dimColor.Printf("   Review:   %s\n", id)
	dimColor.Printf("   Question: %s\n\n", args[0])

	start := time.Now()
	appInstance.Orchestrator.Subscribe(func(tr core.Transition) {
		if tr.ReviewID != id {
			return
		}
		switch {
		case tr.To == core.StageFailed:
			errorColor.Printf("   ✗ %s failed\n", tr.FailedStage)
		case verbose:
			dimColor.Printf("   ├── %s (%s)\n", tr.To, time.Since(start).Round(time.Millisecond))
		}
	})

	out, err := appInstance.Orchestrator.EnsureReview(ctx, core.ReviewRequest{
		ID:     id,
		Prompt: args[0],
		Owner:  core.UserID(reviewUser),
	})
	if err != nil {
		var stageErr *core.StageError
		if errors.As(err, &stageErr) && stageErr.Retryable() {
			warnColor.Println("\nThe run failed at a retryable stage; running the command again may succeed.")
		}
		return err
	}

	printOutcome(out, time.Since(start))
	return nil
}

func printOutcome(out *core.Outcome, elapsed time.Duration) {
	switch out.Kind {
	case core.OutcomeCachedHit:
		successColor.Println("✓ Stored review found")
	case core.OutcomeCompleted:
		successColor.Printf("✓ Review generated in %s\n", elapsed.Round(time.Second))
	case core.OutcomeCompletedWithWarnings:
		warnColor.Printf("✓ Review generated in %s with warnings\n", elapsed.Round(time.Second))
		for _, w := range out.Warnings {
			warnColor.Printf("   ⚠ %s\n", w)
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(out.ReviewText)
	fmt.Println(strings.Repeat("─", 60))
	boldColor.Printf("Review id: %s\n", out.ReviewID)
}
