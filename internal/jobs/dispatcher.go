package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/review-forge/internal/core"
)

// ErrQueueFull is returned by Dispatch when no more runs can be queued.
var ErrQueueFull = errors.New("job queue is full, cannot accept new review job")

// dispatcher implements core.JobDispatcher with a fixed pool of worker goroutines.
type dispatcher struct {
	job        core.Job
	jobQueue   chan core.ReviewRequest
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher initializes a dispatcher with a worker pool.
// Non-positive maxWorkers or queueSize default to 1.
func NewDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan core.ReviewRequest, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for req := range d.jobQueue {
		d.process(workerID, req)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

func (d *dispatcher) process(workerID int, req core.ReviewRequest) {
	d.logger.Info("worker processing job", "worker_id", workerID, "review_id", req.ID)

	if err := d.job.Run(context.Background(), req); err != nil {
		d.logger.Error("review job failed", "review_id", req.ID, "error", err)
	}
}

// Dispatch queues a run. It never blocks: a full queue is reported as ErrQueueFull.
func (d *dispatcher) Dispatch(_ context.Context, req core.ReviewRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return fmt.Errorf("dispatcher is stopped")
	}

	select {
	case d.jobQueue <- req:
		d.logger.Info("queued review job", "review_id", req.ID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued and running jobs to finish.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobQueue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}

// ReviewJob runs EnsureReview for a dispatched request.
type ReviewJob struct {
	orchestrator *Orchestrator
	logger       *slog.Logger
}

var _ core.Job = (*ReviewJob)(nil)

func NewReviewJob(orchestrator *Orchestrator, logger *slog.Logger) *ReviewJob {
	return &ReviewJob{orchestrator: orchestrator, logger: logger}
}

func (j *ReviewJob) Run(ctx context.Context, req core.ReviewRequest) error {
	out, err := j.orchestrator.EnsureReview(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range out.Warnings {
		j.logger.Warn("review completed with warning", "review_id", req.ID, "warning", w.String())
	}
	j.logger.Info("review job finished", "review_id", req.ID, "outcome", out.Kind)
	return nil
}
