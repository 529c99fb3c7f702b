package dashboard

import (
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
)

// ViewMode determines which screen to render.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewHelp
	ViewConfirm
)

// Navigation messages

// SampleSelectedMsg indicates a sample row was selected.
type SampleSelectedMsg struct {
	SampleID string
}

// BackToListMsg requests return to list view.
type BackToListMsg struct{}

// ScrollMsg indicates a scroll action.
type ScrollMsg struct {
	Direction int // +1 for down, -1 for up
}

// Single-sample run messages

// RunStartedMsg indicates a sample started executing.
type RunStartedMsg struct {
	SampleID  string
	StartTime time.Time
}

// RunCompleteMsg indicates a sample finished executing (success or
// required-step failure are both carried in Result.ErrorMessage).
type RunCompleteMsg struct {
	SampleID string
	Result   *model.SampleResult
}

// RunErrorMsg indicates the scheduler itself errored running a sample
// (not a per-step failure, which is captured inside RunCompleteMsg).
type RunErrorMsg struct {
	SampleID string
	Error    error
}

// RunCancelledMsg indicates a running sample's context was cancelled.
type RunCancelledMsg struct {
	SampleID string
}

// Run-all messages

// RunAllStartedMsg indicates a run of every pending/failed sample started.
type RunAllStartedMsg struct {
	Total int
}

// RunAllSampleCompleteMsg indicates one sample completed during a run-all.
type RunAllSampleCompleteMsg struct {
	SampleID string
	Index    int
	Total    int
	Result   *model.SampleResult
	Error    error
}

// RunAllCompleteMsg indicates every sample in a run-all has finished.
type RunAllCompleteMsg struct{}

// RunAllCancelledMsg indicates a run-all was cancelled.
type RunAllCancelledMsg struct{}

// Status loading messages

// CachedSampleStatus is a prior run's outcome for a sample, loaded from a
// checkpoint on dashboard startup.
type CachedSampleStatus struct {
	Status SampleStatus
	Result *model.SampleResult
}

// InitialStatusLoadedMsg indicates cached statuses have been loaded from a
// checkpoint.
type InitialStatusLoadedMsg struct {
	Statuses map[string]CachedSampleStatus
}

// Error messages

// ErrorMsg indicates a general error occurred.
type ErrorMsg struct {
	Message string
}

// ClearErrorMsg requests error banner dismissal.
type ClearErrorMsg struct{}

// Help messages

// ToggleHelpMsg requests help overlay toggle.
type ToggleHelpMsg struct{}
