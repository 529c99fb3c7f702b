package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// SampleRow is the dashboard's per-sample bookkeeping: the sample's input
// fields plus whatever the dashboard currently knows about its execution.
type SampleRow struct {
	ID        string
	Fields    map[string]model.Value
	Status    SampleStatus
	StartedAt time.Time
	Result    *model.SampleResult
}

// Model is the dashboard's Bubble Tea model: one pipeline run, rendered as
// a list of samples that can be selected, run individually, or run all at
// once.
type Model struct {
	// Core data
	pipeline *config.PipelineSpec
	variant  string
	service  RunService
	samples  []SampleRow

	// UI state
	viewMode     ViewMode
	cursor       int
	selectedID   string
	scrollOffset int

	// Component state
	spinner spinner.Model

	// Operation state
	loading       map[string]bool
	operationCtxs map[string]context.CancelFunc
	errors        map[string]string
	showError     bool
	errorMsg      string

	// Run-all state
	runningAll  bool
	runProgress int
	runTotal    int

	// Confirmation state
	confirmAction   string
	confirmSampleID string
	confirmMessage  string

	// Dimensions
	width  int
	height int

	// Configuration
	confirmations bool
	useUnicode    bool
}

// NewModel creates a dashboard model for one pipeline/variant run over
// samples. cached carries any prior-run statuses loaded from a checkpoint,
// keyed by sample ID; pass nil for a fresh run with no history.
func NewModel(pipeline *config.PipelineSpec, variant string, svc RunService, samples []scheduler.Sample, cached map[string]CachedSampleStatus) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	rows := make([]SampleRow, len(samples))
	for i, sample := range samples {
		row := SampleRow{ID: sample.ID, Fields: sample.Fields, Status: StatusPending}
		if cs, ok := cached[sample.ID]; ok {
			row.Status = cs.Status
			row.Result = cs.Result
		}
		rows[i] = row
	}

	m := Model{
		pipeline:      pipeline,
		variant:       variant,
		service:       svc,
		samples:       rows,
		viewMode:      ViewList,
		cursor:        0,
		loading:       make(map[string]bool),
		operationCtxs: make(map[string]context.CancelFunc),
		errors:        make(map[string]string),
		spinner:       s,
		confirmations: true,
		useUnicode:    true,
		width:         80,
		height:        24,
	}

	m.sortSamples()

	return m
}

// Init initializes the model and returns initial commands.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Helper methods

// sortSamples sorts samples by status priority: failed > running > pending > success.
func (m *Model) sortSamples() {
	sort.SliceStable(m.samples, func(i, j int) bool {
		return statusPriority(m.samples[i].Status) < statusPriority(m.samples[j].Status)
	})
}

func statusPriority(status SampleStatus) int {
	switch status {
	case StatusFailed:
		return 0
	case StatusRunning:
		return 1
	case StatusPending:
		return 2
	case StatusSuccess:
		return 3
	default:
		return 4
	}
}

// CountByStatus returns counts of samples in each status.
func (m *Model) CountByStatus() map[SampleStatus]int {
	counts := make(map[SampleStatus]int)
	for _, row := range m.samples {
		counts[row.Status]++
	}
	return counts
}

// GetSelectedSample returns the currently selected sample row.
func (m *Model) GetSelectedSample() (SampleRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.samples) {
		return SampleRow{}, false
	}
	return m.samples[m.cursor], true
}

// GetSampleByID returns a sample row by its ID.
func (m *Model) GetSampleByID(id string) (SampleRow, int, bool) {
	for i, row := range m.samples {
		if row.ID == id {
			return row, i, true
		}
	}
	return SampleRow{}, -1, false
}

// UpdateSampleResult records a sample's new status and result.
func (m *Model) UpdateSampleResult(id string, status SampleStatus, result *model.SampleResult) {
	for i := range m.samples {
		if m.samples[i].ID == id {
			m.samples[i].Status = status
			m.samples[i].Result = result
			break
		}
	}
}

// MoveCursorUp moves the cursor up with wrapping.
func (m *Model) MoveCursorUp() {
	if len(m.samples) == 0 {
		return
	}
	m.cursor--
	if m.cursor < 0 {
		m.cursor = len(m.samples) - 1
	}
}

// MoveCursorDown moves the cursor down with wrapping.
func (m *Model) MoveCursorDown() {
	if len(m.samples) == 0 {
		return
	}
	m.cursor++
	if m.cursor >= len(m.samples) {
		m.cursor = 0
	}
}

// SetCursor sets the cursor to a specific index.
func (m *Model) SetCursor(index int) {
	if index >= 0 && index < len(m.samples) {
		m.cursor = index
	}
}

// IsLoading reports whether a sample has an operation in progress.
func (m *Model) IsLoading(id string) bool {
	return m.loading[id]
}

// HasError reports whether a sample has a recorded error.
func (m *Model) HasError(id string) bool {
	_, ok := m.errors[id]
	return ok
}

// GetError returns the error message for a sample.
func (m *Model) GetError(id string) string {
	return m.errors[id]
}

// ClearError clears the error for a sample.
func (m *Model) ClearError(id string) {
	delete(m.errors, id)
}

// GetViewMode returns the current view mode.
func (m *Model) GetViewMode() ViewMode {
	return m.viewMode
}

// IsRunningAll reports whether a run-all is in progress.
func (m *Model) IsRunningAll() bool {
	return m.runningAll
}

// GetRunTotal returns the total number of samples being run in a run-all.
func (m *Model) GetRunTotal() int {
	return m.runTotal
}
