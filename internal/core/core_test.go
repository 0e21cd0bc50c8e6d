package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"42", false},
		{"abc_DEF-09", false},
		{NewReviewID().String(), false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
		{"a.b", true},
		{"space id", true},
		{"%2e%2e", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, err := ParseReviewID(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ReviewID(tt.raw), id)
		})
	}
}

func TestStage_CanAdvance(t *testing.T) {
	assert.True(t, StageStart.CanAdvance(StageCheckCache))
	assert.True(t, StageCheckCache.CanAdvance(StageDone))
	assert.True(t, StageUpserting.CanAdvance(StageGenerating))
	assert.True(t, StageGenerating.CanAdvance(StageFailed))
	assert.True(t, StageQualityChecking.CanAdvance(StageDone))

	assert.False(t, StageGenerating.CanAdvance(StageUpserting))
	assert.False(t, StageSaving.CanAdvance(StageSaving))
	assert.False(t, StageDone.CanAdvance(StageFailed))
	assert.False(t, StageFailed.CanAdvance(StageDone))
}

func TestStageError(t *testing.T) {
	cause := fmt.Errorf("%w: backend returned 503", ErrTransientExternal)
	err := error(&StageError{Stage: StageGenerating, Err: cause})

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageGenerating, stageErr.Stage)
	assert.ErrorIs(t, err, ErrTransientExternal)
	assert.True(t, stageErr.Retryable())
	assert.Contains(t, err.Error(), "generating")

	invalid := &StageError{Stage: StageCheckCache, Err: ErrInvalidIdentifier}
	assert.False(t, invalid.Retryable())
}

func TestReviewRequest_Validate(t *testing.T) {
	assert.NoError(t, ReviewRequest{ID: "42", Prompt: "Effects of X on Y", Owner: "alice"}.Validate())
	assert.ErrorIs(t, ReviewRequest{ID: "../x", Prompt: "p", Owner: "alice"}.Validate(), ErrInvalidIdentifier)
	assert.ErrorIs(t, ReviewRequest{ID: "42", Owner: "alice"}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, ReviewRequest{ID: "42", Prompt: "p"}.Validate(), ErrInvalidRequest)
}
