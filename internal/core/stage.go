package core

import "time"

// Stage is one state of the review generation state machine.
type Stage string

const (
	StageStart           Stage = "start"
	StageCheckCache      Stage = "check_cache"
	StageUpserting       Stage = "upserting"
	StageGenerating      Stage = "generating"
	StageSaving          Stage = "saving"
	StageQualityChecking Stage = "quality_checking"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageStart:           0,
	StageCheckCache:      1,
	StageUpserting:       2,
	StageGenerating:      3,
	StageSaving:          4,
	StageQualityChecking: 5,
	StageDone:            6,
}

// Terminal reports whether no further transition can follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// CanAdvance reports whether the machine may move from s to next.
// Transitions only go forward; FAILED is reachable from any non-terminal stage.
func (s Stage) CanAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	return ok && to > from
}

// Transition is emitted every time a run changes stage.
type Transition struct {
	ReviewID ReviewID
	From     Stage
	To       Stage
	// FailedStage is set when To is StageFailed.
	FailedStage Stage
	Err         error
	At          time.Time
}

// Observer receives stage transitions. Observers must not block.
type Observer func(Transition)
