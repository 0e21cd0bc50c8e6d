// Package storage holds the review database and the vector store that keeps
// each review's indexed reference material.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/schema"
	"github.com/sevigo/goframe/vectorstores"
	"github.com/sevigo/goframe/vectorstores/qdrant"

	"github.com/sevigo/review-forge/internal/core"
)

// VectorStore keeps one collection of chunk embeddings per review.
//
//go:generate mockgen -destination=../../mocks/mock_vector_store.go -package=mocks . VectorStore
type VectorStore interface {
	// ReplaceDocuments drops the review's collection and indexes docs into a fresh one.
	ReplaceDocuments(ctx context.Context, id core.ReviewID, docs []schema.Document) error
	// SimilaritySearch returns the chunks of the review most relevant to query.
	SimilaritySearch(ctx context.Context, id core.ReviewID, query string, numDocs int) ([]schema.Document, error)
	// DeleteCollection removes everything indexed for the review.
	DeleteCollection(ctx context.Context, id core.ReviewID) error
}

var unsafeCollectionChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// CollectionName derives the qdrant collection of a review. The embedder model
// is part of the name since vectors of different models are not comparable.
func CollectionName(id core.ReviewID, embedderModel string) string {
	model := unsafeCollectionChars.ReplaceAllString(strings.ToLower(embedderModel), "_")
	model = strings.Trim(model, "_")
	if model == "" {
		model = "default"
	}
	return fmt.Sprintf("review_%s_%s", strings.ToLower(string(id)), model)
}

type qdrantVectorStore struct {
	qdrantHost    string
	embedderModel string
	embedder      embeddings.Embedder
	logger        *slog.Logger
}

// NewQdrantVectorStore creates a new Qdrant-backed vector store.
func NewQdrantVectorStore(qdrantHost, embedderModel string, embedder embeddings.Embedder, logger *slog.Logger) VectorStore {
	return &qdrantVectorStore{
		qdrantHost:    qdrantHost,
		embedderModel: embedderModel,
		embedder:      embedder,
		logger:        logger,
	}
}

func (q *qdrantVectorStore) storeFor(id core.ReviewID) (vectorstores.VectorStore, string, error) {
	if err := id.Validate(); err != nil {
		return nil, "", err
	}
	name := CollectionName(id, q.embedderModel)
	store, err := qdrant.New(
		qdrant.WithHost(q.qdrantHost),
		qdrant.WithEmbedder(q.embedder),
		qdrant.WithCollectionName(name),
		qdrant.WithLogger(q.logger),
	)
	if err != nil {
		return nil, name, fmt.Errorf("failed to get qdrant store for collection %s: %w", name, err)
	}
	return store, name, nil
}

func (q *qdrantVectorStore) ReplaceDocuments(ctx context.Context, id core.ReviewID, docs []schema.Document) error {
	store, name, err := q.storeFor(id)
	if err != nil {
		return err
	}

	// A missing collection is the normal case on first upload.
	if err := store.DeleteCollection(ctx, name); err != nil {
		q.logger.Debug("no previous collection to drop", "collection", name, "error", err)
	}
	if len(docs) == 0 {
		return nil
	}

	if _, err := store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("failed to add documents to qdrant collection %s: %w", name, err)
	}
	q.logger.Info("indexed review documents", "collection", name, "chunks", len(docs))
	return nil
}

func (q *qdrantVectorStore) SimilaritySearch(ctx context.Context, id core.ReviewID, query string, numDocs int) ([]schema.Document, error) {
	store, name, err := q.storeFor(id)
	if err != nil {
		return nil, err
	}
	docs, err := store.SimilaritySearch(ctx, query, numDocs)
	if err != nil {
		return nil, fmt.Errorf("similarity search in collection %s failed: %w", name, err)
	}
	return docs, nil
}

func (q *qdrantVectorStore) DeleteCollection(ctx context.Context, id core.ReviewID) error {
	store, name, err := q.storeFor(id)
	if err != nil {
		return err
	}
	return store.DeleteCollection(ctx, name)
}
