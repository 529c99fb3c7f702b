package ports

import (
	"context"
	"time"

	"github.com/arota-dev/pipeflow/internal/config"
)

// ConfigLoader loads and validates a pipeline definition from an external
// source (filesystem, embedded asset, remote fetch). Implementations must
// respect ctx cancellation and return a fully validated *config.PipelineSpec
// or a pipeflowerrors.ConfigError/ParseError describing why it could not.
type ConfigLoader interface {
	// Load materializes and validates a pipeline spec from path.
	Load(ctx context.Context, path string) (*config.PipelineSpec, error)

	// Validate performs the same parse-and-validate pass without requiring
	// the caller to retain the result, for `pipeflow validate`.
	Validate(ctx context.Context, path string) error
}

// ProgressSink receives live progress updates during a run. It is the
// consumed interface behind the engine's ProgressFunc callback and the
// scheduler's sample-level progress reporting; a TUI dashboard, a plain
// log-line renderer, and a no-op sink are all valid implementations.
type ProgressSink interface {
	OnProgress(sampleID string, snapshot ProgressSnapshot)
}

// ProgressSnapshot is a transport-agnostic copy of an engine.Progress value.
// ports cannot import internal/engine (engine's step executor imports
// ports), so the scheduler translates engine.Progress into this shape at
// the boundary.
type ProgressSnapshot struct {
	Total, Completed, Failed, Skipped, Running, Pending int
	StartTime, Now                                      time.Time
}

