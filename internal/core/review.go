// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var reviewIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ReviewID identifies a review everywhere: the review record, the attachment
// directory and the vector collection. It is generated by the caller.
type ReviewID string

// NewReviewID returns a fresh random identifier that satisfies the ReviewID format.
func NewReviewID() ReviewID {
	return ReviewID(uuid.NewString())
}

// ParseReviewID validates raw input received at a boundary.
func ParseReviewID(raw string) (ReviewID, error) {
	id := ReviewID(raw)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the identifier against ^[A-Za-z0-9_-]+$.
func (id ReviewID) Validate() error {
	if !reviewIDPattern.MatchString(string(id)) {
		return fmt.Errorf("%w: review id %q", ErrInvalidIdentifier, string(id))
	}
	return nil
}

func (id ReviewID) String() string { return string(id) }

// UserID is the identity token handed over by the authentication layer (a username).
type UserID string

// OwnerID is the durable identifier an UserID resolves to in the review store.
type OwnerID int64

// ReviewRecord is a persisted, generated systematic review.
type ReviewRecord struct {
	ID         ReviewID
	OwnerIDs   []OwnerID
	Prompt     string
	ReviewText string
	CreatedAt  time.Time
}

// HasOwner reports whether owner is in the record's owner set.
func (r *ReviewRecord) HasOwner(owner OwnerID) bool {
	for _, o := range r.OwnerIDs {
		if o == owner {
			return true
		}
	}
	return false
}

// ReviewSummary is one entry of an owner's history.
type ReviewSummary struct {
	ID        ReviewID  `json:"id" db:"id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
