package archive

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reviews/42.md", ObjectKey("42"))
	assert.Equal(t, "reviews/a_b-C.md", ObjectKey("a_b-C"))
}

func TestRender(t *testing.T) {
	rec := &core.ReviewRecord{
		ID:         "42",
		Prompt:     "  Effects of X on Y ",
		ReviewText: "## Background\n\nSome text.\n",
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	want := "# Systematic review 42\n\n" +
		"**Research question:** Effects of X on Y\n\n" +
		"_Generated 2024-05-01T12:00:00Z_\n\n" +
		"## Background\n\nSome text.\n"
	assert.Equal(t, want, string(Render(rec)))
}

func TestRender_NoTimestamp(t *testing.T) {
	out := string(Render(&core.ReviewRecord{ID: "1", Prompt: "q", ReviewText: "t"}))
	assert.NotContains(t, out, "_Generated")
}

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(context.Background(), config.ArchiveConfig{Bucket: "reviews"}, logger)
	require.Error(t, err)

	_, err = New(context.Background(), config.ArchiveConfig{Endpoint: "localhost:9000"}, logger)
	require.Error(t, err)
}
