package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// Update handles incoming messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ApplyMaxWidth(m.width)

		const minWidth = 80
		const minHeight = 24
		if m.width < minWidth || m.height < minHeight {
			m.showError = true
			m.errorMsg = fmt.Sprintf("Terminal too small (%dx%d). Minimum size: %dx%d",
				m.width, m.height, minWidth, minHeight)
		} else if m.showError && m.errorMsg != "" &&
			strings.HasPrefix(m.errorMsg, "Terminal too small") {
			m.showError = false
			m.errorMsg = ""
		}

		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case InitialStatusLoadedMsg:
		for id, status := range msg.Statuses {
			m.UpdateSampleResult(id, status.Status, status.Result)
		}
		m.sortSamples()
		return m, nil

	case RunStartedMsg:
		return m, m.spinner.Tick

	case RunCompleteMsg:
		status := StatusSuccess
		if msg.Result != nil && !msg.Result.Successful() {
			status = StatusFailed
		}
		m.UpdateSampleResult(msg.SampleID, status, msg.Result)
		delete(m.loading, msg.SampleID)
		delete(m.operationCtxs, msg.SampleID)
		m.sortSamples()
		return m, nil

	case RunErrorMsg:
		m.UpdateSampleResult(msg.SampleID, StatusFailed, nil)
		delete(m.loading, msg.SampleID)
		delete(m.operationCtxs, msg.SampleID)
		m.errors[msg.SampleID] = msg.Error.Error()
		m.showError = true
		m.errorMsg = fmt.Sprintf("Sample run failed: %s", msg.Error.Error())
		return m, nil

	case RunCancelledMsg:
		delete(m.loading, msg.SampleID)
		delete(m.operationCtxs, msg.SampleID)
		return m, nil

	case RunAllStartedMsg:
		m.runningAll = true
		m.runProgress = 0
		m.runTotal = msg.Total
		return m, m.spinner.Tick

	case RunAllSampleCompleteMsg:
		m.runProgress = msg.Index + 1
		if msg.Error != nil {
			m.UpdateSampleResult(msg.SampleID, StatusFailed, nil)
			m.errors[msg.SampleID] = msg.Error.Error()
		} else if msg.Result != nil {
			status := StatusSuccess
			if !msg.Result.Successful() {
				status = StatusFailed
			}
			m.UpdateSampleResult(msg.SampleID, status, msg.Result)
		}
		if m.runProgress >= m.runTotal {
			return m, func() tea.Msg { return RunAllCompleteMsg{} }
		}
		return m, nil

	case RunAllCompleteMsg:
		m.runningAll = false
		m.runProgress = 0
		m.runTotal = 0
		m.sortSamples()
		return m, nil

	case RunAllCancelledMsg:
		m.runningAll = false
		m.runProgress = 0
		m.runTotal = 0
		return m, nil

	case SampleSelectedMsg:
		m.selectedID = msg.SampleID
		m.viewMode = ViewDetail
		return m, nil

	case BackToListMsg:
		m.viewMode = ViewList
		m.selectedID = ""
		return m, nil

	case ErrorMsg:
		m.showError = true
		m.errorMsg = msg.Message
		return m, nil

	case ClearErrorMsg:
		m.showError = false
		m.errorMsg = ""
		return m, nil
	}

	return m, nil
}

// handleKeyPress dispatches based on current view mode.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewHelp:
		return m.handleHelpKeys(msg)
	case ViewConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m, nil
	}
}

// handleListKeys handles keys in list view.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x":
		if m.showError {
			m.showError = false
			m.errorMsg = ""
		}
		return m, nil

	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		m.MoveCursorUp()
		return m, nil

	case "down", "j":
		m.MoveCursorDown()
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		index := int(msg.String()[0] - '1')
		if index < len(m.samples) {
			m.SetCursor(index)
		}
		return m, nil

	case "enter", " ":
		if selected, ok := m.GetSelectedSample(); ok {
			m.selectedID = selected.ID
			m.viewMode = ViewDetail
		}
		return m, nil

	// Run every sample not already successful.
	case "R":
		if m.runningAll || len(m.samples) == 0 {
			return m, nil
		}

		var pending []SampleRow
		for _, row := range m.samples {
			if row.Status != StatusSuccess {
				pending = append(pending, row)
			}
		}
		if len(pending) == 0 {
			return m, nil
		}

		m.runningAll = true
		m.runProgress = 0
		m.runTotal = len(pending)

		cmds := []tea.Cmd{m.spinner.Tick, runAllStartedCmd(len(pending))}
		for i, row := range pending {
			ctx, cancel := context.WithCancel(context.Background())
			m.operationCtxs[row.ID] = cancel
			m.loading[row.ID] = true
			sample := scheduler.Sample{ID: row.ID, Fields: row.Fields}
			cmds = append(cmds, runAllSampleCmd(ctx, m.pipeline, sample, m.variant, m.service, i, len(pending)))
		}

		return m, tea.Batch(cmds...)

	case "?":
		m.viewMode = ViewHelp
		return m, nil

	case "esc":
		if m.showError {
			m.showError = false
			m.errorMsg = ""
		}
		return m, nil
	}

	return m, nil
}

// handleDetailKeys handles keys in detail view.
func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x":
		if m.showError {
			m.showError = false
			m.errorMsg = ""
		}
		return m, nil

	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "backspace":
		if m.loading[m.selectedID] {
			m.confirmAction = "cancel_run"
			m.confirmSampleID = m.selectedID
			m.confirmMessage = "Cancel the sample run in progress?"
			m.viewMode = ViewConfirm
			return m, nil
		}
		m.viewMode = ViewList
		m.selectedID = ""
		return m, nil

	// Run this sample; confirm first if it already has a result, since a
	// rerun spends agent tokens again.
	case "enter", "r":
		row, _, ok := m.GetSampleByID(m.selectedID)
		if !ok {
			return m, nil
		}

		if row.Result != nil {
			m.confirmAction = "rerun"
			m.confirmSampleID = row.ID
			m.confirmMessage = fmt.Sprintf("Rerun sample '%s'? This will call agents again.", row.ID)
			m.viewMode = ViewConfirm
			return m, nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		m.operationCtxs[row.ID] = cancel
		m.loading[row.ID] = true
		sample := scheduler.Sample{ID: row.ID, Fields: row.Fields}
		return m, runSampleCmd(ctx, m.pipeline, sample, m.variant, m.service)

	case "?":
		m.viewMode = ViewHelp
		return m, nil
	}
	return m, nil
}

// handleHelpKeys handles keys in help view.
func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		if m.selectedID != "" {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
		return m, nil
	}
	return m, nil
}

// handleConfirmKeys handles keys in the confirmation dialog.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		action := m.confirmAction
		sampleID := m.confirmSampleID

		m.confirmAction = ""
		m.confirmSampleID = ""
		m.confirmMessage = ""

		switch action {
		case "rerun":
			row, _, ok := m.GetSampleByID(sampleID)
			if !ok {
				m.viewMode = ViewList
				return m, nil
			}

			ctx, cancel := context.WithCancel(context.Background())
			m.operationCtxs[row.ID] = cancel
			m.loading[row.ID] = true

			m.viewMode = ViewDetail
			sample := scheduler.Sample{ID: row.ID, Fields: row.Fields}
			return m, runSampleCmd(ctx, m.pipeline, sample, m.variant, m.service)

		case "cancel_run":
			if cancel, ok := m.operationCtxs[sampleID]; ok {
				cancel()
				delete(m.operationCtxs, sampleID)
			}
			delete(m.loading, sampleID)
			m.viewMode = ViewDetail
			return m, nil

		default:
			m.viewMode = ViewDetail
			return m, nil
		}

	case "n", "N", "esc":
		m.confirmAction = ""
		m.confirmSampleID = ""
		m.confirmMessage = ""

		if m.selectedID != "" {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
		return m, nil
	}
	return m, nil
}
