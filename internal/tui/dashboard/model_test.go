package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

func sampleSet(ids ...string) []scheduler.Sample {
	out := make([]scheduler.Sample, len(ids))
	for i, id := range ids {
		out[i] = scheduler.Sample{ID: id, Fields: map[string]model.Value{"id": model.NewString(id)}}
	}
	return out
}

func TestNewModelSortsByStatusPriority(t *testing.T) {
	cached := map[string]CachedSampleStatus{
		"s1": {Status: StatusSuccess},
		"s2": {Status: StatusFailed},
		"s3": {Status: StatusRunning},
	}
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1", "s2", "s3", "s4"), cached)

	assert.Equal(t, "s2", m.samples[0].ID) // Failed
	assert.Equal(t, "s3", m.samples[1].ID) // Running
	assert.Equal(t, "s4", m.samples[2].ID) // Pending (no cache entry)
	assert.Equal(t, "s1", m.samples[3].ID) // Success
}

func TestCountByStatus(t *testing.T) {
	cached := map[string]CachedSampleStatus{
		"s1": {Status: StatusSuccess},
		"s2": {Status: StatusSuccess},
		"s3": {Status: StatusFailed},
	}
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1", "s2", "s3"), cached)

	counts := m.CountByStatus()
	assert.Equal(t, 2, counts[StatusSuccess])
	assert.Equal(t, 1, counts[StatusFailed])
}

func TestGetSelectedSampleAndSetCursor(t *testing.T) {
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1", "s2"), nil)

	m.SetCursor(1)
	selected, ok := m.GetSelectedSample()
	assert.True(t, ok)
	assert.Equal(t, "s2", selected.ID)
}

func TestMoveCursorWrapsAround(t *testing.T) {
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1", "s2"), nil)

	m.MoveCursorUp()
	selected, _ := m.GetSelectedSample()
	assert.Equal(t, "s2", selected.ID)

	m.MoveCursorDown()
	selected, _ = m.GetSelectedSample()
	assert.Equal(t, "s1", selected.ID)
}

func TestUpdateSampleResultUpdatesStatusAndResult(t *testing.T) {
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1"), nil)

	result := &model.SampleResult{SampleID: "s1"}
	m.UpdateSampleResult("s1", StatusSuccess, result)

	row, _, ok := m.GetSampleByID("s1")
	assert.True(t, ok)
	assert.Equal(t, StatusSuccess, row.Status)
	assert.Same(t, result, row.Result)
}

func TestGetSampleByIDMissingReturnsFalse(t *testing.T) {
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet("s1"), nil)

	_, _, ok := m.GetSampleByID("nonexistent")
	assert.False(t, ok)
}
