package dashboard

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
)

func newTestModel(ids ...string) Model {
	m := NewModel(&config.PipelineSpec{Name: "p"}, "baseline", &stubRunService{}, sampleSet(ids...), nil)
	m.width = 100
	m.height = 30
	return m
}

func TestUpdateHandlesWindowSizeMsg(t *testing.T) {
	m := newTestModel("s1")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := updated.(Model)
	assert.Equal(t, 120, got.width)
	assert.Equal(t, 40, got.height)
	assert.False(t, got.showError)
}

func TestUpdateFlagsTerminalTooSmall(t *testing.T) {
	m := newTestModel("s1")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	got := updated.(Model)
	assert.True(t, got.showError)
	assert.Contains(t, got.errorMsg, "Terminal too small")
}

func TestUpdateInitialStatusLoadedMsgAppliesCachedStatuses(t *testing.T) {
	m := newTestModel("s1", "s2")
	result := &model.SampleResult{SampleID: "s2"}
	updated, _ := m.Update(InitialStatusLoadedMsg{Statuses: map[string]CachedSampleStatus{
		"s2": {Status: StatusFailed, Result: result},
	}})
	got := updated.(Model)

	row, _, ok := got.GetSampleByID("s2")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, row.Status)
	assert.Equal(t, "s2", got.samples[0].ID) // sorted to the front
}

func TestUpdateRunCompleteMsgMarksSuccessOrFailure(t *testing.T) {
	m := newTestModel("s1")
	m.loading["s1"] = true

	successResult := &model.SampleResult{SampleID: "s1"}
	updated, _ := m.Update(RunCompleteMsg{SampleID: "s1", Result: successResult})
	got := updated.(Model)
	row, _, _ := got.GetSampleByID("s1")
	assert.Equal(t, StatusSuccess, row.Status)
	assert.False(t, got.IsLoading("s1"))

	m2 := newTestModel("s1")
	failResult := &model.SampleResult{SampleID: "s1", ErrorMessage: "required step failed"}
	updated2, _ := m2.Update(RunCompleteMsg{SampleID: "s1", Result: failResult})
	got2 := updated2.(Model)
	row2, _, _ := got2.GetSampleByID("s1")
	assert.Equal(t, StatusFailed, row2.Status)
}

func TestUpdateRunErrorMsgShowsErrorBanner(t *testing.T) {
	m := newTestModel("s1")
	updated, _ := m.Update(RunErrorMsg{SampleID: "s1", Error: errors.New("boom")})
	got := updated.(Model)
	assert.True(t, got.showError)
	assert.True(t, got.HasError("s1"))
}

func TestUpdateRunAllSampleCompleteMsgTriggersCompleteWhenDone(t *testing.T) {
	m := newTestModel("s1")
	m.runningAll = true
	m.runTotal = 1

	updated, cmd := m.Update(RunAllSampleCompleteMsg{SampleID: "s1", Index: 0, Total: 1, Result: &model.SampleResult{SampleID: "s1"}})
	got := updated.(Model)
	assert.Equal(t, 1, got.runProgress)
	require.NotNil(t, cmd)

	msg := cmd()
	_, ok := msg.(RunAllCompleteMsg)
	assert.True(t, ok)
}

func TestUpdateSampleSelectedMsgSwitchesToDetailView(t *testing.T) {
	m := newTestModel("s1")
	updated, _ := m.Update(SampleSelectedMsg{SampleID: "s1"})
	got := updated.(Model)
	assert.Equal(t, ViewDetail, got.viewMode)
	assert.Equal(t, "s1", got.selectedID)
}

func TestUpdateBackToListMsgResetsSelection(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewDetail
	m.selectedID = "s1"

	updated, _ := m.Update(BackToListMsg{})
	got := updated.(Model)
	assert.Equal(t, ViewList, got.viewMode)
	assert.Equal(t, "", got.selectedID)
}

func TestHandleListKeysNavigatesAndSelects(t *testing.T) {
	m := newTestModel("s1", "s2")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	got := updated.(Model)
	selected, _ := got.GetSelectedSample()
	assert.Equal(t, "s2", selected.ID)

	updated2, _ := got.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got2 := updated2.(Model)
	assert.Equal(t, ViewDetail, got2.viewMode)
	assert.Equal(t, "s2", got2.selectedID)
}

func TestHandleListKeysQuitReturnsQuitCmd(t *testing.T) {
	m := newTestModel("s1")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
}

func TestHandleListKeysRunAllStartsEveryNonSuccessfulSample(t *testing.T) {
	m := newTestModel("s1", "s2")
	m.UpdateSampleResult("s1", StatusSuccess, &model.SampleResult{SampleID: "s1"})
	m.sortSamples()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("R")})
	got := updated.(Model)
	assert.True(t, got.runningAll)
	assert.Equal(t, 1, got.runTotal)
	assert.True(t, got.IsLoading("s2"))
	assert.False(t, got.IsLoading("s1"))
	require.NotNil(t, cmd)
}

func TestHandleDetailKeysRerunAsksConfirmationWhenResultExists(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewDetail
	m.selectedID = "s1"
	m.UpdateSampleResult("s1", StatusSuccess, &model.SampleResult{SampleID: "s1"})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)
	assert.Equal(t, ViewConfirm, got.viewMode)
	assert.Equal(t, "rerun", got.confirmAction)
}

func TestHandleDetailKeysRunsImmediatelyWithoutPriorResult(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewDetail
	m.selectedID = "s1"

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)
	assert.Equal(t, ViewDetail, got.viewMode)
	assert.True(t, got.IsLoading("s1"))
	require.NotNil(t, cmd)
}

func TestHandleDetailKeysEscAsksConfirmationWhileLoading(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewDetail
	m.selectedID = "s1"
	m.loading["s1"] = true

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	got := updated.(Model)
	assert.Equal(t, ViewConfirm, got.viewMode)
	assert.Equal(t, "cancel_run", got.confirmAction)
}

func TestHandleConfirmKeysYesStartsRerun(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewConfirm
	m.selectedID = "s1"
	m.confirmAction = "rerun"
	m.confirmSampleID = "s1"

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	got := updated.(Model)
	assert.Equal(t, ViewDetail, got.viewMode)
	assert.True(t, got.IsLoading("s1"))
	require.NotNil(t, cmd)
}

func TestHandleConfirmKeysNoReturnsToDetail(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewConfirm
	m.selectedID = "s1"
	m.confirmAction = "rerun"
	m.confirmSampleID = "s1"

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	got := updated.(Model)
	assert.Equal(t, ViewDetail, got.viewMode)
	assert.Equal(t, "", got.confirmAction)
}

func TestHandleConfirmKeysYesCancelRunStopsOperation(t *testing.T) {
	m := newTestModel("s1")
	m.viewMode = ViewConfirm
	m.selectedID = "s1"
	m.loading["s1"] = true
	cancelled := false
	m.operationCtxs["s1"] = func() { cancelled = true }
	m.confirmAction = "cancel_run"
	m.confirmSampleID = "s1"

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	got := updated.(Model)
	assert.True(t, cancelled)
	assert.False(t, got.IsLoading("s1"))
	assert.Equal(t, ViewDetail, got.viewMode)
}
