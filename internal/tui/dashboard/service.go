package dashboard

import (
	"context"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// RunService exposes the minimal operation the dashboard requires to drive
// one sample through the pipeline. Its shape matches
// *scheduler.Scheduler.ExecuteSample exactly, so a live Scheduler satisfies
// it directly; tests substitute a stub.
type RunService interface {
	ExecuteSample(ctx context.Context, pipeline *config.PipelineSpec, sample scheduler.Sample, variant string) (model.SampleResult, error)
}
