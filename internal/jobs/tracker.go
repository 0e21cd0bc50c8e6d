package jobs

import (
	"sync"
	"time"

	"github.com/sevigo/review-forge/internal/core"
)

// RunStatus is the last known state of a review run.
type RunStatus struct {
	ID          core.ReviewID `json:"id"`
	Stage       core.Stage    `json:"stage"`
	FailedStage core.Stage    `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Retryable   bool          `json:"retryable,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
	err         error
}

// Err returns the failure of a FAILED run as a *core.StageError.
func (s RunStatus) Err() error {
	if s.Stage != core.StageFailed || s.err == nil {
		return nil
	}
	return &core.StageError{Stage: s.FailedStage, Err: s.err}
}

// InProgress reports whether the run has not reached a terminal stage yet.
func (s RunStatus) InProgress() bool {
	return !s.Stage.Terminal()
}

// defaultRetention is how long a terminal status stays readable.
const defaultRetention = time.Hour

// Tracker remembers the latest stage of every run it has observed. It is the
// read model for clients polling an asynchronous run. Terminal statuses are
// dropped once they are older than the retention window; runs still in
// progress are always kept.
type Tracker struct {
	mu        sync.RWMutex
	runs      map[core.ReviewID]RunStatus
	retention time.Duration
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		runs:      make(map[core.ReviewID]RunStatus),
		retention: defaultRetention,
		now:       time.Now,
	}
}

// pruneLocked drops expired terminal statuses. Callers hold mu.
func (t *Tracker) pruneLocked() {
	cutoff := t.now().Add(-t.retention)
	for id, s := range t.runs {
		if !s.InProgress() && s.UpdatedAt.Before(cutoff) {
			delete(t.runs, id)
		}
	}
}

// Observe is a core.Observer.
func (t *Tracker) Observe(tr core.Transition) {
	status := RunStatus{ID: tr.ReviewID, Stage: tr.To, UpdatedAt: tr.At}
	if tr.To == core.StageFailed {
		status.FailedStage = tr.FailedStage
		status.err = tr.Err
		if tr.Err != nil {
			status.Error = tr.Err.Error()
			status.Retryable = (&core.StageError{Stage: tr.FailedStage, Err: tr.Err}).Retryable()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	t.runs[tr.ReviewID] = status
}

// MarkQueued records a run accepted by the dispatcher but not started yet.
func (t *Tracker) MarkQueued(id core.ReviewID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	if cur, ok := t.runs[id]; ok && cur.InProgress() {
		return
	}
	t.runs[id] = RunStatus{ID: id, Stage: core.StageStart, UpdatedAt: t.now()}
}

// Get returns the last known status of the run for id.
func (t *Tracker) Get(id core.ReviewID) (RunStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.runs[id]
	return s, ok
}

// Forget drops the status of id, e.g. after its review was deleted.
func (t *Tracker) Forget(id core.ReviewID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, id)
}
