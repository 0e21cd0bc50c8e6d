// Package archive exports finished reviews to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

const markdownContentType = "text/markdown; charset=utf-8"

// Exporter writes review records as markdown objects into one bucket.
type Exporter struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New connects to the archive endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (*Exporter, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("archive endpoint and bucket must be configured")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check bucket %s: %w", core.ErrTransientExternal, cfg.Bucket, err)
	}
	if !exists {
		logger.Info("creating archive bucket", "bucket", cfg.Bucket)
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%w: failed to create bucket %s: %w", core.ErrTransientExternal, cfg.Bucket, err)
		}
	}

	return &Exporter{client: cli, bucket: cfg.Bucket, logger: logger}, nil
}

// Export uploads rec and returns the object key it was stored under.
func (e *Exporter) Export(ctx context.Context, rec *core.ReviewRecord) (string, error) {
	key := ObjectKey(rec.ID)
	body := Render(rec)

	info, err := e.client.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: markdownContentType,
		UserMetadata: map[string]string{
			"review-id": string(rec.ID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload %s: %w", core.ErrTransientExternal, key, err)
	}

	e.logger.Info("review exported", "review_id", rec.ID, "bucket", e.bucket, "key", key, "size", info.Size)
	return key, nil
}

// ObjectKey is the key a review is archived under.
func ObjectKey(id core.ReviewID) string {
	return "reviews/" + string(id) + ".md"
}

// Render formats a review record as a standalone markdown document.
func Render(rec *core.ReviewRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Systematic review %s\n\n", rec.ID)
	fmt.Fprintf(&b, "**Research question:** %s\n\n", strings.TrimSpace(rec.Prompt))
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString(strings.TrimSpace(rec.ReviewText))
	b.WriteString("\n")
	return []byte(b.String())
}
