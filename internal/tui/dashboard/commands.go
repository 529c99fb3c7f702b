package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// runSampleCmd runs one sample asynchronously.
func runSampleCmd(ctx context.Context, pipeline *config.PipelineSpec, sample scheduler.Sample, variant string, svc RunService) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.ExecuteSample(ctx, pipeline, sample, variant)
		if err != nil {
			if ctx.Err() != nil {
				return RunCancelledMsg{SampleID: sample.ID}
			}
			return RunErrorMsg{SampleID: sample.ID, Error: err}
		}
		return RunCompleteMsg{SampleID: sample.ID, Result: &result}
	}
}

// runAllStartedCmd announces the start of a run-all sweep.
func runAllStartedCmd(total int) tea.Cmd {
	return func() tea.Msg {
		return RunAllStartedMsg{Total: total}
	}
}

// runAllSampleCmd runs one sample during a run-all sweep.
func runAllSampleCmd(ctx context.Context, pipeline *config.PipelineSpec, sample scheduler.Sample, variant string, svc RunService, index, total int) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.ExecuteSample(ctx, pipeline, sample, variant)
		if err != nil {
			if ctx.Err() != nil {
				return RunAllCancelledMsg{}
			}
			return RunAllSampleCompleteMsg{
				SampleID: sample.ID,
				Index:    index,
				Total:    total,
				Error:    err,
			}
		}
		return RunAllSampleCompleteMsg{
			SampleID: sample.ID,
			Index:    index,
			Total:    total,
			Result:   &result,
		}
	}
}
