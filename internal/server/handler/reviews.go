package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/jobs"
)

// ReviewService is the review side of the core the handlers need.
type ReviewService interface {
	EnsureReview(ctx context.Context, req core.ReviewRequest) (*core.Outcome, error)
	GetReview(ctx context.Context, id core.ReviewID) (*core.ReviewRecord, error)
	DeleteReview(ctx context.Context, id core.ReviewID) error
	History(ctx context.Context, user core.UserID) ([]core.ReviewSummary, error)
}

// RunStatusSource exposes the progress of asynchronous runs.
type RunStatusSource interface {
	Get(id core.ReviewID) (jobs.RunStatus, bool)
	MarkQueued(id core.ReviewID)
	Forget(id core.ReviewID)
}

// ReviewHandler serves the review endpoints.
type ReviewHandler struct {
	reviews    ReviewService
	runs       RunStatusSource
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

func NewReviewHandler(reviews ReviewService, runs RunStatusSource, dispatcher core.JobDispatcher, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, runs: runs, dispatcher: dispatcher, logger: logger}
}

type reviewRequest struct {
	ID     string `json:"id,omitempty"`
	Prompt string `json:"prompt"`
	Owner  string `json:"owner"`
}

type reviewResponse struct {
	ID         core.ReviewID     `json:"id"`
	Status     string            `json:"status"`
	Stage      core.Stage        `json:"stage,omitempty"`
	Prompt     string            `json:"prompt,omitempty"`
	ReviewText string            `json:"review_text,omitempty"`
	Cached     bool              `json:"cached"`
	Warnings   []warningResponse `json:"warnings,omitempty"`
	CreatedAt  *time.Time        `json:"created_at,omitempty"`
}

type warningResponse struct {
	Stage core.Stage `json:"stage"`
	Error string     `json:"error"`
}

func decodeReviewRequest(r *http.Request) (reviewRequest, error) {
	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, fmt.Errorf("%w: malformed JSON body: %v", core.ErrInvalidRequest, err)
	}
	return body, nil
}

// Create handles POST /reviews. A stored review is returned right away;
// otherwise the run is queued and 202 is returned with the review id.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeReviewRequest(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id := core.NewReviewID()
	if body.ID != "" {
		if id, err = core.ParseReviewID(body.ID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	req := core.ReviewRequest{ID: id, Prompt: body.Prompt, Owner: core.UserID(body.Owner)}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if rec, err := h.reviews.GetReview(r.Context(), id); err == nil {
		writeJSON(w, h.logger, http.StatusOK, recordResponse(rec))
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		writeError(w, h.logger, err)
		return
	}

	h.runs.MarkQueued(id)
	if err := h.dispatcher.Dispatch(r.Context(), req); err != nil {
		h.runs.Forget(id)
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("review run dispatched", "review_id", id)
	writeJSON(w, h.logger, http.StatusAccepted, reviewResponse{ID: id, Status: "queued", Stage: core.StageStart})
}

// Ensure handles POST /reviews/{id}/ensure and runs the pipeline synchronously.
func (h *ReviewHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	body, err := decodeReviewRequest(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.reviews.EnsureReview(r.Context(), core.ReviewRequest{ID: id, Prompt: body.Prompt, Owner: core.UserID(body.Owner)})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := reviewResponse{
		ID:         id,
		Status:     string(out.Kind),
		Stage:      core.StageDone,
		ReviewText: out.ReviewText,
		Cached:     out.Cached,
	}
	for _, warn := range out.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{Stage: warn.Stage, Error: warn.Err.Error()})
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Get handles GET /reviews/{id}: the stored review, the progress of a run,
// or the failure of the last run.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.reviews.GetReview(r.Context(), id)
	if err == nil {
		writeJSON(w, h.logger, http.StatusOK, recordResponse(rec))
		return
	}
	if !errors.Is(err, core.ErrNotFound) {
		writeError(w, h.logger, err)
		return
	}

	status, ok := h.runs.Get(id)
	switch {
	case !ok || status.Stage == core.StageDone:
		writeError(w, h.logger, err)
	case status.InProgress():
		writeJSON(w, h.logger, http.StatusAccepted, reviewResponse{ID: id, Status: "running", Stage: status.Stage})
	default:
		writeError(w, h.logger, status.Err())
	}
}

// Delete handles DELETE /reviews/{id}. Attachments are kept.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.reviews.DeleteReview(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.runs.Forget(id)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// History handles GET /users/{username}/reviews.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	user := core.UserID(chi.URLParam(r, "username"))
	summaries, err := h.reviews.History(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"user": user, "reviews": summaries})
}

func recordResponse(rec *core.ReviewRecord) reviewResponse {
	created := rec.CreatedAt
	return reviewResponse{
		ID:         rec.ID,
		Status:     "done",
		Stage:      core.StageDone,
		Prompt:     rec.Prompt,
		ReviewText: rec.ReviewText,
		Cached:     true,
		CreatedAt:  &created,
	}
}
