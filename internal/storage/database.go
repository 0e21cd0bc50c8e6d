package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/db"
)

// Store is the relational side of the application: review records and the
// users that own them.
type Store interface {
	core.ReviewStore
	core.OwnerResolver
}

type sqlStore struct {
	db      *sqlx.DB
	dialect string
}

// NewStore creates a Store over an already migrated database.
func NewStore(database *db.DB) Store {
	return &sqlStore{db: database.DB, dialect: database.Driver}
}

type reviewRow struct {
	ID         string    `db:"id"`
	Prompt     string    `db:"prompt"`
	ReviewText string    `db:"review_text"`
	CreatedAt  time.Time `db:"created_at"`
}

// GetReview loads a review and its owner set. A miss yields core.ErrNotFound.
func (s *sqlStore) GetReview(ctx context.Context, id core.ReviewID) (*core.ReviewRecord, error) {
	var row reviewRow
	query := s.db.Rebind(`SELECT id, prompt, review_text, created_at FROM reviews WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load review %s: %w", id, err)
	}

	var owners []core.OwnerID
	query = s.db.Rebind(`SELECT owner_id FROM review_owners WHERE review_id = ? ORDER BY owner_id`)
	if err := s.db.SelectContext(ctx, &owners, query, string(id)); err != nil {
		return nil, fmt.Errorf("failed to load owners of review %s: %w", id, err)
	}

	return &core.ReviewRecord{
		ID:         core.ReviewID(row.ID),
		OwnerIDs:   owners,
		Prompt:     row.Prompt,
		ReviewText: row.ReviewText,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// PutReview upserts the record and adds its owners in one transaction.
func (s *sqlStore) PutReview(ctx context.Context, record *core.ReviewRecord) error {
	if record == nil {
		return fmt.Errorf("%w: nil review record", core.ErrInvalidRequest)
	}
	if err := record.ID.Validate(); err != nil {
		return err
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(s.upsertReviewSQL()),
		string(record.ID), record.Prompt, record.ReviewText, createdAt); err != nil {
		return fmt.Errorf("failed to save review %s: %w", record.ID, err)
	}

	for _, owner := range record.OwnerIDs {
		if _, err := tx.ExecContext(ctx, tx.Rebind(s.insertOwnerSQL()), string(record.ID), int64(owner)); err != nil {
			return fmt.Errorf("failed to add owner %d to review %s: %w", owner, record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review %s: %w", record.ID, err)
	}
	return nil
}

// DeleteReview removes the record and its ownership rows.
func (s *sqlStore) DeleteReview(ctx context.Context, id core.ReviewID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM review_owners WHERE review_id = ?`), string(id)); err != nil {
		return fmt.Errorf("failed to delete owners of review %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reviews WHERE id = ?`), string(id))
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("review %s: %w", id, core.ErrNotFound)
	}
	return tx.Commit()
}

// ListReviewsByOwner returns the owner's history, newest first.
func (s *sqlStore) ListReviewsByOwner(ctx context.Context, owner core.OwnerID) ([]core.ReviewSummary, error) {
	query := s.db.Rebind(`
		SELECT r.id, r.prompt, r.created_at
		FROM reviews r
		JOIN review_owners o ON o.review_id = r.id
		WHERE o.owner_id = ?
		ORDER BY r.created_at DESC, r.id`)

	summaries := []core.ReviewSummary{}
	if err := s.db.SelectContext(ctx, &summaries, query, int64(owner)); err != nil {
		return nil, fmt.Errorf("failed to list reviews of owner %d: %w", owner, err)
	}
	return summaries, nil
}

// ResolveOwner returns the owner id of a username, registering it on first use.
func (s *sqlStore) ResolveOwner(ctx context.Context, user core.UserID) (core.OwnerID, error) {
	if user == "" {
		return 0, fmt.Errorf("%w: owner cannot be empty", core.ErrInvalidRequest)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(s.insertUserSQL()), string(user), time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("failed to register user %s: %w", user, err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, s.db.Rebind(`SELECT id FROM users WHERE username = ?`), string(user)); err != nil {
		return 0, fmt.Errorf("failed to resolve user %s: %w", user, err)
	}
	return core.OwnerID(id), nil
}

func (s *sqlStore) upsertReviewSQL() string {
	if s.dialect == db.DriverMySQL {
		return `INSERT INTO reviews (id, prompt, review_text, created_at) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE prompt = VALUES(prompt), review_text = VALUES(review_text)`
	}
	return `INSERT INTO reviews (id, prompt, review_text, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET prompt = excluded.prompt, review_text = excluded.review_text`
}

func (s *sqlStore) insertOwnerSQL() string {
	if s.dialect == db.DriverMySQL {
		return `INSERT IGNORE INTO review_owners (review_id, owner_id) VALUES (?, ?)`
	}
	return `INSERT INTO review_owners (review_id, owner_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
}

func (s *sqlStore) insertUserSQL() string {
	if s.dialect == db.DriverMySQL {
		return `INSERT IGNORE INTO users (username, created_at) VALUES (?, ?)`
	}
	return `INSERT INTO users (username, created_at) VALUES (?, ?) ON CONFLICT (username) DO NOTHING`
}
