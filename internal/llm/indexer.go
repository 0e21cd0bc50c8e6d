package llm

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/sevigo/goframe/schema"
	"golang.org/x/sync/errgroup"

	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/storage"
)

// AttachmentSource yields the stored reference files of a review.
//
//go:generate mockgen -destination=../../mocks/mock_attachment_source.go -package=mocks . AttachmentSource
type AttachmentSource interface {
	ReadFiles(id core.ReviewID) ([]attachments.File, error)
}

// Indexer turns a review's attachments into chunk embeddings in the vector store.
type Indexer struct {
	files       AttachmentSource
	vectorStore storage.VectorStore
	logger      *slog.Logger
	chunkSize   int
	overlap     int
}

var _ core.Indexer = (*Indexer)(nil)

func NewIndexer(files AttachmentSource, vectorStore storage.VectorStore, logger *slog.Logger) *Indexer {
	return &Indexer{
		files:       files,
		vectorStore: vectorStore,
		logger:      logger,
		chunkSize:   defaultChunkSize,
		overlap:     defaultChunkOverlap,
	}
}

// Upsert re-indexes every attachment of the review. Files whose text cannot be
// extracted are skipped with a warning; a review without attachments is a no-op.
func (ix *Indexer) Upsert(ctx context.Context, id core.ReviewID) error {
	start := time.Now()
	files, err := ix.files.ReadFiles(id)
	if err != nil {
		return fmt.Errorf("failed to read attachments: %w", err)
	}
	if len(files) == 0 {
		ix.logger.Info("no attachments to index", "review_id", id)
		return nil
	}

	docs := ix.processFilesParallel(ctx, id, files)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ix.vectorStore.ReplaceDocuments(ctx, id, docs); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientExternal, err)
	}
	ix.logger.Info("review attachments indexed",
		"review_id", id,
		"files", len(files),
		"chunks", len(docs),
		"duration", time.Since(start),
	)
	return nil
}

func (ix *Indexer) processFilesParallel(ctx context.Context, id core.ReviewID, files []attachments.File) []schema.Document {
	perFile := make([][]schema.Document, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	var mu sync.Mutex
	skipped := 0

	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			text, err := ExtractText(f.Name, f.Data)
			if err != nil {
				ix.logger.Warn("skipping attachment", "review_id", id, "file", f.Name, "error", err)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			perFile[i] = ix.chunkDocuments(id, f.Name, text)
			return nil
		})
	}
	_ = g.Wait()

	var docs []schema.Document
	for _, d := range perFile {
		docs = append(docs, d...)
	}
	if skipped > 0 {
		ix.logger.Warn("some attachments were not indexed", "review_id", id, "skipped", skipped)
	}
	return docs
}

func (ix *Indexer) chunkDocuments(id core.ReviewID, source, text string) []schema.Document {
	chunks := SplitText(text, ix.chunkSize, ix.overlap)
	docs := make([]schema.Document, 0, len(chunks))
	for n, chunk := range chunks {
		docs = append(docs, schema.NewDocument(chunk, map[string]any{
			"source":    source,
			"review_id": string(id),
			"chunk":     n,
		}))
	}
	return docs
}
