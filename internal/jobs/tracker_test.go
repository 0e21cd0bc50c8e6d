package jobs

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-forge/internal/core"
)

func TestTracker_Observe(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	_, ok := tr.Get("42")
	assert.False(t, ok)

	tr.MarkQueued("42")
	status, ok := tr.Get("42")
	require.True(t, ok)
	assert.Equal(t, core.StageStart, status.Stage)
	assert.True(t, status.InProgress())

	tr.Observe(core.Transition{ReviewID: "42", From: core.StageUpserting, To: core.StageGenerating, At: now})
	status, _ = tr.Get("42")
	assert.Equal(t, core.StageGenerating, status.Stage)
	assert.NoError(t, status.Err())

	// A queued marker never hides a run that is already going.
	tr.MarkQueued("42")
	status, _ = tr.Get("42")
	assert.Equal(t, core.StageGenerating, status.Stage)

	cause := fmt.Errorf("%w: backend 500", core.ErrTransientExternal)
	tr.Observe(core.Transition{ReviewID: "42", From: core.StageGenerating, To: core.StageFailed, FailedStage: core.StageGenerating, Err: cause, At: now})
	status, _ = tr.Get("42")
	assert.False(t, status.InProgress())
	assert.Equal(t, core.StageGenerating, status.FailedStage)
	assert.True(t, status.Retryable)

	var stageErr *core.StageError
	require.True(t, errors.As(status.Err(), &stageErr))
	assert.Equal(t, core.StageGenerating, stageErr.Stage)
	assert.ErrorIs(t, status.Err(), core.ErrTransientExternal)

	tr.Forget("42")
	_, ok = tr.Get("42")
	assert.False(t, ok)
}

func TestTracker_PrunesExpiredTerminalRuns(t *testing.T) {
	tr := NewTracker()
	tr.retention = time.Minute
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	tr.now = func() time.Time { return clock }

	tr.Observe(core.Transition{ReviewID: "done", From: core.StageQualityChecking, To: core.StageDone, At: start})
	tr.Observe(core.Transition{ReviewID: "busy", From: core.StageUpserting, To: core.StageGenerating, At: start})

	clock = start.Add(2 * time.Minute)
	tr.MarkQueued("next")

	_, ok := tr.Get("done")
	assert.False(t, ok)
	status, ok := tr.Get("busy")
	require.True(t, ok)
	assert.Equal(t, core.StageGenerating, status.Stage)
	status, ok = tr.Get("next")
	require.True(t, ok)
	assert.Equal(t, clock, status.UpdatedAt)
}
