package ports

import "context"

// MetricsCollector records quantitative observability signals. The interface is
// intentionally generic so adapters can back onto Prometheus, StatsD, or
// vendor-specific SDKs. Standard metric names include:
//   - Counters:
//     pipeflow_sample_executions_total{status="success|failure|cancelled"}
//     pipeflow_step_executions_total{step_kind="...", status="success|failure|skipped"}
//     pipeflow_checkpoint_writes_total{status="ok|error"}
//   - Gauges:
//     pipeflow_active_samples
//     pipeflow_step_parallel_executions
//   - Histograms:
//     pipeflow_sample_duration_seconds
//     pipeflow_step_duration_seconds{step_kind="..."}
//     pipeflow_agent_invocation_duration_seconds
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// Tracer manages distributed tracing spans. Span names follow the convention
// `<component>.<operation>` (e.g., `scheduler.execute_sample`,
// `engine.run_with_deps`, `checkpoint.save`). Adapters should propagate
// correlation IDs and integrate with the chosen tracing backend (e.g.
// OpenTelemetry).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attributes ...interface{}) (context.Context, Span)
	Inject(ctx context.Context, carrier interface{}) error
	Extract(ctx context.Context, carrier interface{}) (context.Context, error)
}

// Span represents an active tracing span.
type Span interface {
	SetAttribute(key string, value interface{})
	SetStatus(status SpanStatus, message string)
	End()
}

// SpanStatus provides strongly typed span result semantics.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)
