package core

import "context"

//go:generate mockgen -destination=../../mocks/mock_core.go -package=mocks . Indexer,Generator,QualityChecker,ReviewStore,OwnerResolver,JobDispatcher

// Indexer pushes a review's reference material into the vector database.
type Indexer interface {
	Upsert(ctx context.Context, id ReviewID) error
}

// Generator produces the review text for a research question.
type Generator interface {
	Generate(ctx context.Context, prompt string, id ReviewID) (string, error)
}

// QualityChecker builds the supplementary quality-check artifacts of a review.
type QualityChecker interface {
	QualityCheck(ctx context.Context, id ReviewID) error
}

// ReviewStore persists generated reviews. Get returns ErrNotFound on a miss.
// Put is an upsert: the last write for an id wins and owners accumulate.
type ReviewStore interface {
	GetReview(ctx context.Context, id ReviewID) (*ReviewRecord, error)
	PutReview(ctx context.Context, record *ReviewRecord) error
	DeleteReview(ctx context.Context, id ReviewID) error
	ListReviewsByOwner(ctx context.Context, owner OwnerID) ([]ReviewSummary, error)
}

// OwnerResolver maps the caller's identity token to a durable owner id.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, user UserID) (OwnerID, error)
}
