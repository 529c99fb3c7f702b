package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/arota-dev/pipeflow/internal/model"
)

// View renders the current model state.
func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewHelp:
		return m.renderHelpView()
	case ViewConfirm:
		return m.renderConfirmView()
	default:
		return m.renderListView()
	}
}

// renderListView renders the main sample list view.
func (m Model) renderListView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var content strings.Builder

	content.WriteString(m.renderHeader())
	content.WriteString("\n")

	if m.showError {
		content.WriteString(m.renderErrorBanner())
		content.WriteString("\n")
	}

	if m.runningAll {
		runContent := lipgloss.JoinHorizontal(
			lipgloss.Left,
			progressStyle.Render(m.spinner.View()),
			progressStyle.Render(fmt.Sprintf(" Running %d/%d", m.runProgress, m.runTotal)),
		)
		content.WriteString(infoBannerStyle.Render(runContent))
		content.WriteString("\n")
	}

	content.WriteString(m.renderSampleList())
	content.WriteString("\n")

	content.WriteString(m.renderFooter())

	return content.String()
}

// renderHeader renders the header with title and status summary.
func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("pipeflow — %s (%s)", m.pipeline.Name, m.variant))

	counts := m.CountByStatus()
	summary := fmt.Sprintf(
		"%s %d  %s %d  %s %d  %s %d",
		StatusSuccess.Icon(), counts[StatusSuccess],
		StatusRunning.Icon(), counts[StatusRunning],
		StatusFailed.Icon(), counts[StatusFailed],
		StatusPending.Icon(), counts[StatusPending],
	)

	if m.runningAll {
		runSegment := lipgloss.JoinHorizontal(
			lipgloss.Left,
			progressStyle.Render(m.spinner.View()),
			progressStyle.Render(fmt.Sprintf(" Running %d/%d", m.runProgress, m.runTotal)),
		)
		summary = fmt.Sprintf("%s  %s", summary, runSegment)
	}

	headerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		summary,
	)

	return headerStyle.Render(headerContent)
}

// renderSampleList renders the list of samples.
func (m Model) renderSampleList() string {
	if len(m.samples) == 0 {
		return m.renderEmptyState()
	}

	var items []string
	visibleHeight := m.height - 10

	start := m.scrollOffset
	end := start + visibleHeight
	if end > len(m.samples) {
		end = len(m.samples)
	}

	for i := start; i < end; i++ {
		items = append(items, m.renderSampleItem(i, i == m.cursor))
	}

	if start > 0 {
		items = append([]string{lipgloss.NewStyle().Foreground(mutedColor).Render("▲ More above")}, items...)
	}
	if end < len(m.samples) {
		items = append(items, lipgloss.NewStyle().Foreground(mutedColor).Render("▼ More below"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderSampleItem renders a single sample row.
func (m Model) renderSampleItem(index int, selected bool) string {
	row := m.samples[index]

	icon := row.Status.Icon()
	if !m.useUnicode {
		icon = row.Status.IconFallback()
	}

	if m.IsLoading(row.ID) {
		icon = m.spinner.View()
	}

	statusStr := GetStatusStyle(row.Status.String()).Render(icon)

	number := fmt.Sprintf("%d.", index+1)

	fieldsPreview := previewFields(row.Fields)
	if fieldsPreview == "" {
		fieldsPreview = lipgloss.NewStyle().Foreground(mutedColor).Render("No input fields")
	}

	var detail string
	switch {
	case row.Result != nil && !row.Result.Successful():
		detail = lipgloss.NewStyle().Foreground(errorColor).Render(row.Result.ErrorMessage)
	case row.Result != nil:
		detail = fmt.Sprintf("%d steps, %d tokens", len(row.Result.StepResults), row.Result.TokenCounts.Total)
	default:
		detail = "Not yet run"
	}

	line1 := fmt.Sprintf("%s %s %s", statusStr, number, lipgloss.NewStyle().Bold(true).Render(row.ID))
	line2 := fmt.Sprintf("   %s", fieldsPreview)
	line3 := fmt.Sprintf("   %s", lipgloss.NewStyle().Foreground(mutedColor).Render(detail))

	content := lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3)

	if selected {
		return selectedItemStyle.Render(content)
	}
	return itemStyle.Render(content)
}

// previewFields renders a short summary of a sample's input fields.
func previewFields(fields map[string]model.Value) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fields[k].AsString()
		if len(v) > 24 {
			v = v[:21] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	preview := strings.Join(parts, " ")
	if len(preview) > 60 {
		preview = preview[:57] + "..."
	}
	return preview
}

// renderEmptyState renders the empty state when no samples are loaded.
func (m Model) renderEmptyState() string {
	message := `No samples loaded for this run.`
	return emptyStateStyle.Render(message)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m Model) renderFooter() string {
	hints := []string{
		"↑/↓: navigate",
		"enter: select",
		"R: run all",
		"?: help",
	}

	if m.showError {
		hints = append(hints, "x: dismiss error")
	}

	hints = append(hints, "q: quit")

	return footerStyle.Render(strings.Join(hints, "  •  "))
}

// renderErrorBanner renders an error message banner.
func (m Model) renderErrorBanner() string {
	return errorBannerStyle.Render(m.errorMsg)
}

// FormatDuration formats an execution duration for display.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	return d.Round(time.Millisecond).String()
}

// renderDetailView renders the detail view for a selected sample.
func (m Model) renderDetailView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	selected, _, ok := m.GetSampleByID(m.selectedID)
	if !ok {
		return "Sample not found"
	}

	formatDetailRow := func(label, value string) string {
		return lipgloss.JoinHorizontal(
			lipgloss.Left,
			detailLabelStyle.Render(fmt.Sprintf("%s:", label)),
			detailValueStyle.Render(value),
		)
	}

	renderSection := func(title string, rows []string) string {
		if len(rows) == 0 {
			return ""
		}
		body := lipgloss.JoinVertical(lipgloss.Left, rows...)
		sectionTitle := lipgloss.NewStyle().Bold(true).Render(title)
		return detailSectionStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left, sectionTitle, body),
		)
	}

	var content strings.Builder

	header := titleStyle.Render(fmt.Sprintf("Sample %s", selected.ID))
	content.WriteString(header)
	content.WriteString("\n\n")

	if m.showError {
		content.WriteString(m.renderErrorBanner())
		content.WriteString("\n\n")
	}

	statusIcon := selected.Status.Icon()
	if !m.useUnicode {
		statusIcon = selected.Status.IconFallback()
	}
	statusLine := fmt.Sprintf("%s Status: %s",
		GetStatusStyle(selected.Status.String()).Render(statusIcon),
		lipgloss.NewStyle().Bold(true).Render(selected.Status.String()))
	content.WriteString(statusLine)
	content.WriteString("\n\n")

	fieldKeys := make([]string, 0, len(selected.Fields))
	for k := range selected.Fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	fieldRows := make([]string, 0, len(fieldKeys))
	for _, k := range fieldKeys {
		fieldRows = append(fieldRows, formatDetailRow(k, selected.Fields[k].AsString()))
	}
	if fieldSection := renderSection("Input Fields", fieldRows); fieldSection != "" {
		content.WriteString(fieldSection)
		content.WriteString("\n")
	}

	if selected.Result != nil {
		result := selected.Result
		execRows := []string{
			formatDetailRow("Total Time", FormatDuration(result.TotalTime)),
			formatDetailRow("Steps", fmt.Sprintf("%d total", len(result.StepResults))),
			formatDetailRow("Tokens", fmt.Sprintf("%d in, %d out, %d total", result.TokenCounts.In, result.TokenCounts.Out, result.TokenCounts.Total)),
		}

		successCount := 0
		failedCount := 0
		skippedCount := 0
		for _, step := range result.StepResults {
			switch {
			case step.Skipped:
				skippedCount++
			case step.Success:
				successCount++
			default:
				failedCount++
			}
		}
		execRows = append(execRows, formatDetailRow("Step Summary", fmt.Sprintf("%d success, %d failed, %d skipped", successCount, failedCount, skippedCount)))

		if result.ErrorMessage != "" {
			execRows = append(execRows, formatDetailRow("Error", result.ErrorMessage))
		}

		if execSection := renderSection("Last Execution", execRows); execSection != "" {
			content.WriteString(execSection)
			content.WriteString("\n")
		}

		var stepRows []string
		for _, step := range result.StepResults {
			stepIcon := "✓"
			if step.Skipped {
				stepIcon = "–"
			} else if !step.Success {
				stepIcon = "✗"
			}
			stepRows = append(stepRows, formatDetailRow(stepIcon+" "+step.StepID, FormatDuration(step.ExecutionTime)))
		}
		if stepSection := renderSection("Steps", stepRows); stepSection != "" {
			content.WriteString(stepSection)
			content.WriteString("\n")
		}
	}

	if m.IsLoading(selected.ID) {
		content.WriteString("\n")
		opMsg := fmt.Sprintf("%s run in progress...", m.spinner.View())
		content.WriteString(progressStyle.Render(opMsg))
		content.WriteString("\n")
	}

	hints := []string{
		"enter/r: run",
		"esc: back",
		"?: help",
		"q: quit",
	}
	footer := footerStyle.Render(strings.Join(hints, "  •  "))

	contentHeight := m.height - 4
	lines := strings.Split(content.String(), "\n")

	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
		content.Reset()
		content.WriteString(strings.Join(lines, "\n"))
		content.WriteString("\n")
		content.WriteString(detailValueStyle.Render("... (content truncated)"))
		content.WriteString("\n")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content.String(),
		"",
		footer,
	)
}

// renderHelpView renders the help overlay.
func (m Model) renderHelpView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	title := helpTitleStyle.Render("pipeflow Dashboard Help")

	type helpEntry struct {
		key  string
		desc string
	}

	formatEntries := func(entries []helpEntry) string {
		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			key := helpKeyStyle.Render(entry.key)
			desc := helpDescStyle.Render(entry.desc)
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, key, desc))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	sections := []struct {
		title   string
		entries []helpEntry
	}{
		{
			title: "List View",
			entries: []helpEntry{
				{"↑/↓, j/k", "Navigate up/down"},
				{"1-9", "Jump to sample by number"},
				{"Enter", "View sample details"},
				{"R", "Run every pending/failed sample"},
				{"?", "Toggle this help"},
				{"q, Ctrl+C", "Quit application"},
			},
		},
		{
			title: "Detail View",
			entries: []helpEntry{
				{"Enter, r", "Run this sample"},
				{"Esc", "Back to list"},
				{"?", "Toggle this help"},
				{"q, Ctrl+C", "Quit application"},
			},
		},
		{
			title: "Status Indicators",
			entries: []helpEntry{
				{StatusSuccess.Icon() + " Success", "Sample finished with no required-step failure"},
				{StatusRunning.Icon() + " Running", "Sample is currently executing"},
				{StatusFailed.Icon() + " Failed", "A required step failed"},
				{StatusPending.Icon() + " Pending", "Not yet run"},
			},
		},
		{
			title: "Tips",
			entries: []helpEntry{
				{"•", "Samples are sorted failed first, then running, pending, success"},
				{"•", "Rerunning a completed sample asks for confirmation first"},
				{"•", "Use Ctrl+C at any time to safely exit"},
			},
		},
	}

	sectionTitleStyle := helpDescStyle.Bold(true)
	var formattedSections []string
	for _, section := range sections {
		formattedSections = append(formattedSections,
			lipgloss.JoinVertical(
				lipgloss.Left,
				sectionTitleStyle.Render(section.title),
				formatEntries(section.entries),
			),
		)
	}

	helpBody := helpBoxStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, formattedSections...),
	)

	footer := footerStyle.Render("Press ? or Esc to close")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		helpBody,
		footer,
	)
}

// renderConfirmView renders a confirmation dialog.
func (m Model) renderConfirmView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var message string
	var title string
	switch m.confirmAction {
	case "cancel_run":
		title = "Cancel Run"
		message = m.confirmMessage
	case "rerun":
		title = "Rerun Sample"
		message = m.confirmMessage
	default:
		title = "Confirm Action"
		message = "Proceed with the selected operation?"
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Center,
		confirmButtonYesStyle.Render("y = Yes"),
		confirmButtonNoStyle.Render("n = No"),
		confirmButtonStyle.Render("Esc = Cancel"),
	)

	dialog := confirmBoxStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Center,
			confirmTitleStyle.Render(title),
			helpDescStyle.Render(message),
			"",
			buttons,
		),
	)

	centerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	return centerStyle.Render(dialog)
}
