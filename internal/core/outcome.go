package core

// OutcomeKind tags the result of EnsureReview.
type OutcomeKind string

const (
	OutcomeCachedHit             OutcomeKind = "cached_hit"
	OutcomeCompleted             OutcomeKind = "completed"
	OutcomeCompletedWithWarnings OutcomeKind = "completed_with_warnings"
	OutcomeFailed                OutcomeKind = "failed"
)

// StageWarning records a non-fatal stage failure on a successful run.
type StageWarning struct {
	Stage Stage
	Err   error
}

func (w StageWarning) String() string {
	return string(w.Stage) + ": " + w.Err.Error()
}

// Outcome is what a caller gets back from EnsureReview. ReviewText is always
// the complete text or empty; it is empty only when Kind is OutcomeFailed.
type Outcome struct {
	Kind       OutcomeKind
	ReviewID   ReviewID
	ReviewText string
	Cached     bool
	Warnings   []StageWarning
	// Failure is set only when Kind is OutcomeFailed.
	Failure *StageError
}

// Succeeded reports whether a usable review is available.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Kind != OutcomeFailed
}
