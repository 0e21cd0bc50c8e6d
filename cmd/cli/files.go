package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/wire"
)

var attachCmd = &cobra.Command{
	Use:   "attach [review-id] [file...]",
	Short: "Adds local files as attachments of a review",
	Long: `Adds local files as attachments of a review.

The declared MIME type is taken from the file extension, falling back to the
detected content type. Existing attachments are never overwritten.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := core.ParseReviewID(args[0])
		if err != nil {
			return err
		}

		uploads := make([]attachments.Upload, 0, len(args)-1)
		for _, path := range args[1:] {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			uploads = append(uploads, attachments.Upload{
				Name:     filepath.Base(path),
				MIMEType: declaredType(path, data),
				Data:     data,
			})
		}

		appInstance, cleanup, err := wire.InitializeApp(context.Background())
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		results, err := appInstance.Files.AddFiles(id, uploads)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Accepted {
				successColor.Printf("✓ %s stored as %s\n", res.Name, res.StoredName)
			} else {
				warnColor.Printf("✗ %s: %s\n", res.Name, res.Reason)
			}
		}
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files [review-id]",
	Short: "Lists the attachments of a review in upload order",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := core.ParseReviewID(args[0])
		if err != nil {
			return err
		}

		appInstance, cleanup, err := wire.InitializeApp(context.Background())
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		names, err := appInstance.Files.ListFiles(id)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			dimColor.Printf("Review %s has no attachments.\n", id)
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var rmFileCmd = &cobra.Command{
	Use:   "rm-file [review-id] [filename]",
	Short: "Removes one attachment of a review",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := core.ParseReviewID(args[0])
		if err != nil {
			return err
		}

		appInstance, cleanup, err := wire.InitializeApp(context.Background())
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		if err := appInstance.Files.DeleteFile(id, args[1]); err != nil {
			return err
		}
		successColor.Printf("✓ %s removed from review %s\n", args[1], id)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(attachCmd, filesCmd, rmFileCmd)
}

// declaredType plays the role of a browser's Content-Type for a local file.
func declaredType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return mimetype.Detect(data).String()
}
