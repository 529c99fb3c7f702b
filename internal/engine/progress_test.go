package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressCompletionRateIsOneWhenTotalIsZero(t *testing.T) {
	t.Parallel()
	p := Progress{Total: 0}
	assert.Equal(t, 1.0, p.CompletionRate())
}

func TestProgressCompletionRateScalesWithCompleted(t *testing.T) {
	t.Parallel()
	p := Progress{Total: 4, Completed: 1}
	assert.Equal(t, 0.25, p.CompletionRate())
}

func TestProgressSuccessRateExcludesFailedAndSkipped(t *testing.T) {
	t.Parallel()
	p := Progress{Total: 4, Completed: 4, Failed: 1, Skipped: 1}
	assert.Equal(t, 0.5, p.SuccessRate())
}

func TestProgressETAFalseBeforeFirstCompletion(t *testing.T) {
	t.Parallel()
	p := Progress{Total: 4, StartTime: time.Now(), Now: time.Now()}
	_, ok := p.ETA()
	assert.False(t, ok)
}

func TestProgressETAExtrapolatesFromAverage(t *testing.T) {
	t.Parallel()
	start := time.Now()
	p := Progress{Total: 4, Completed: 2, StartTime: start, Now: start.Add(2 * time.Second)}
	eta, ok := p.ETA()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, eta)
}

func TestErrorSummaryHasCriticalErrorsOnlyForRequiredFailures(t *testing.T) {
	t.Parallel()
	s := newErrorSummary()
	s.addFailure("optional-step", "ExecutionError", false)
	assert.False(t, s.HasCriticalErrors())

	s.addFailure("required-step", "ExecutionError", true)
	assert.True(t, s.HasCriticalErrors())
	assert.Equal(t, []string{"required-step"}, s.RequiredFailures)
	assert.Equal(t, 2, s.ErrorKindCounts["ExecutionError"])
}

func TestSummaryResultPartitions(t *testing.T) {
	t.Parallel()
	s := Summary{Results: []TaskResult{
		{TaskID: "a", Success: true},
		{TaskID: "b", Success: false},
		{TaskID: "c", Skipped: true},
	}}

	assert.Len(t, s.SuccessfulResults(), 1)
	assert.Len(t, s.FailedResults(), 1)
	assert.Len(t, s.SkippedResults(), 1)
}
