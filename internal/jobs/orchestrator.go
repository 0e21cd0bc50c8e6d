// Package jobs runs review generation: the EnsureReview state machine, the
// run tracker fed by its transitions and the worker pool for async runs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/logger"
)

// StageTimeouts bounds each external call of a run.
type StageTimeouts struct {
	CacheRead    time.Duration
	Upsert       time.Duration
	Generate     time.Duration
	Save         time.Duration
	QualityCheck time.Duration
}

// TimeoutsFromConfig copies the stage timeouts out of the pipeline config.
func TimeoutsFromConfig(cfg config.PipelineConfig) StageTimeouts {
	return StageTimeouts{
		CacheRead:    cfg.CacheTimeout,
		Upsert:       cfg.UpsertTimeout,
		Generate:     cfg.GenerateTimeout,
		Save:         cfg.SaveTimeout,
		QualityCheck: cfg.QualityCheckTimeout,
	}
}

// Orchestrator drives a review through
// START -> CHECK_CACHE -> UPSERTING -> GENERATING -> SAVING -> QUALITY_CHECKING -> DONE.
// A cache hit goes straight to DONE. Upsert and quality-check failures become
// warnings; generate and save failures end the run in FAILED.
type Orchestrator struct {
	indexer   core.Indexer
	generator core.Generator
	checker   core.QualityChecker
	store     core.ReviewStore
	owners    core.OwnerResolver
	timeouts  StageTimeouts
	logger    *slog.Logger

	// inflight collapses concurrent runs for the same id into one.
	inflight singleflight.Group

	obsMu     sync.RWMutex
	observers []core.Observer

	now func() time.Time
}

func NewOrchestrator(
	indexer core.Indexer,
	generator core.Generator,
	checker core.QualityChecker,
	store core.ReviewStore,
	owners core.OwnerResolver,
	timeouts StageTimeouts,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		indexer:   indexer,
		generator: generator,
		checker:   checker,
		store:     store,
		owners:    owners,
		timeouts:  timeouts,
		logger:    logger,
		now:       time.Now,
	}
}

// Subscribe registers an observer for the stage transitions of every run.
func (o *Orchestrator) Subscribe(obs core.Observer) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers = append(o.observers, obs)
}

// EnsureReview returns the stored review for req.ID or generates and stores a
// new one. Invalid requests are rejected before any stage runs with a nil
// outcome. A failed run returns an outcome of kind OutcomeFailed together
// with its *core.StageError.
//
// Concurrent calls for the same id share a single run. The run is detached
// from every caller's context and always runs to a terminal stage: a caller
// that gives up gets ctx.Err() while the others still receive the outcome,
// and a generated review is saved either way.
func (o *Orchestrator) EnsureReview(ctx context.Context, req core.ReviewRequest) (*core.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	ch := o.inflight.DoChan(string(req.ID), func() (any, error) {
		return o.run(detached, req), nil
	})

	select {
	case res := <-ch:
		shared := res.Val.(*core.Outcome)
		out := *shared
		if res.Shared {
			o.logger.Debug("joined in-flight review run", "review_id", req.ID)
		}
		if out.Failure != nil {
			return &out, out.Failure
		}
		return &out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pipelineRun is the state of one execution of the pipeline.
type pipelineRun struct {
	o        *Orchestrator
	req      core.ReviewRequest
	stage    core.Stage
	warnings []core.StageWarning
	logger   *slog.Logger
	started  time.Time
}

func (o *Orchestrator) run(ctx context.Context, req core.ReviewRequest) *core.Outcome {
	r := &pipelineRun{
		o:       o,
		req:     req,
		stage:   core.StageStart,
		logger:  logger.ForReview(o.logger, string(req.ID)),
		started: o.now(),
	}
	r.logger.Info("review run started")

	r.advance(core.StageCheckCache)
	record, err := callStage(ctx, o.timeouts.CacheRead, func(ctx context.Context) (*core.ReviewRecord, error) {
		return o.store.GetReview(ctx, req.ID)
	})
	switch {
	case err == nil:
		r.advance(core.StageDone)
		r.logger.Info("review served from store")
		return &core.Outcome{
			Kind:       core.OutcomeCachedHit,
			ReviewID:   req.ID,
			ReviewText: record.ReviewText,
			Cached:     true,
		}
	case !errors.Is(err, core.ErrNotFound):
		return r.fail(asPersistence(err))
	}

	r.advance(core.StageUpserting)
	if err := callStage0(ctx, o.timeouts.Upsert, func(ctx context.Context) error {
		return o.indexer.Upsert(ctx, req.ID)
	}); err != nil {
		r.warn(asTransient(err, o.timeouts.Upsert))
	}

	r.advance(core.StageGenerating)
	text, err := callStage(ctx, o.timeouts.Generate, func(ctx context.Context) (string, error) {
		return o.generator.Generate(ctx, req.Prompt, req.ID)
	})
	if err == nil && text == "" {
		err = fmt.Errorf("%w: generator returned no text", core.ErrTransientExternal)
	}
	if err != nil {
		return r.fail(asTransient(err, o.timeouts.Generate))
	}

	r.advance(core.StageSaving)
	if err := callStage0(ctx, o.timeouts.Save, func(ctx context.Context) error {
		owner, err := o.owners.ResolveOwner(ctx, req.Owner)
		if err != nil {
			return fmt.Errorf("resolving owner %q: %w", req.Owner, err)
		}
		return o.store.PutReview(ctx, &core.ReviewRecord{
			ID:         req.ID,
			OwnerIDs:   []core.OwnerID{owner},
			Prompt:     req.Prompt,
			ReviewText: text,
			CreatedAt:  o.now().UTC(),
		})
	}); err != nil {
		return r.fail(asPersistence(err))
	}

	r.advance(core.StageQualityChecking)
	if o.checker == nil {
		r.warn(errors.New("skipped, no quality checker configured"))
	} else if err := callStage0(ctx, o.timeouts.QualityCheck, func(ctx context.Context) error {
		return o.checker.QualityCheck(ctx, req.ID)
	}); err != nil {
		r.warn(asTransient(err, o.timeouts.QualityCheck))
	}

	r.advance(core.StageDone)
	out := &core.Outcome{
		Kind:       core.OutcomeCompleted,
		ReviewID:   req.ID,
		ReviewText: text,
		Warnings:   r.warnings,
	}
	if len(r.warnings) > 0 {
		out.Kind = core.OutcomeCompletedWithWarnings
	}
	r.logger.Info("review run finished",
		"outcome", out.Kind,
		"warnings", len(r.warnings),
		"duration", o.now().Sub(r.started),
	)
	return out
}

func (r *pipelineRun) advance(next core.Stage) {
	if !r.stage.CanAdvance(next) {
		// Only reachable through a programming error in run.
		panic(fmt.Sprintf("illegal stage transition %s -> %s", r.stage, next))
	}
	t := core.Transition{ReviewID: r.req.ID, From: r.stage, To: next, At: r.o.now()}
	r.stage = next
	r.logger.Debug("stage transition", "from", t.From, "to", t.To)
	r.o.emit(t)
}

func (r *pipelineRun) warn(err error) {
	r.logger.Warn("non-fatal stage failure", "stage", r.stage, "error", err)
	r.warnings = append(r.warnings, core.StageWarning{Stage: r.stage, Err: err})
}

func (r *pipelineRun) fail(err error) *core.Outcome {
	failed := r.stage
	stageErr := &core.StageError{Stage: failed, Err: err}
	t := core.Transition{ReviewID: r.req.ID, From: failed, To: core.StageFailed, FailedStage: failed, Err: err, At: r.o.now()}
	r.stage = core.StageFailed
	r.logger.Error("review run failed", "stage", failed, "error", err)
	r.o.emit(t)
	return &core.Outcome{
		Kind:     core.OutcomeFailed,
		ReviewID: r.req.ID,
		Warnings: r.warnings,
		Failure:  stageErr,
	}
}

func (o *Orchestrator) emit(t core.Transition) {
	o.obsMu.RLock()
	observers := o.observers
	o.obsMu.RUnlock()
	for _, obs := range observers {
		obs(t)
	}
}

// callStage runs fn under timeout and returns as soon as the deadline passes,
// even if fn ignores its context.
func callStage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		val, err := fn(ctx)
		resultCh <- result{val, err}
	}()

	select {
	case res := <-resultCh:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func callStage0(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	_, err := callStage(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func asTransient(err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, core.ErrTransientExternal), errors.Is(err, core.ErrInvalidRequest):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: timed out after %s: %w", core.ErrTransientExternal, timeout, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrTransientExternal, err)
	}
}

func asPersistence(err error) error {
	if errors.Is(err, core.ErrPersistence) || errors.Is(err, core.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrPersistence, err)
}

// GetReview returns the stored review. A miss yields core.ErrNotFound.
func (o *Orchestrator) GetReview(ctx context.Context, id core.ReviewID) (*core.ReviewRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return o.store.GetReview(ctx, id)
}

// DeleteReview removes the stored review. Attachments are left in place.
func (o *Orchestrator) DeleteReview(ctx context.Context, id core.ReviewID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := o.store.DeleteReview(ctx, id); err != nil {
		return err
	}
	o.logger.Info("review deleted", "review_id", id)
	return nil
}

// History lists the reviews owned by user, newest first.
func (o *Orchestrator) History(ctx context.Context, user core.UserID) ([]core.ReviewSummary, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user cannot be empty", core.ErrInvalidRequest)
	}
	owner, err := o.owners.ResolveOwner(ctx, user)
	if err != nil {
		return nil, err
	}
	return o.store.ListReviewsByOwner(ctx, owner)
}
