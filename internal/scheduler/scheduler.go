package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/engine"
	"github.com/arota-dev/pipeflow/internal/logger"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
	pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"
)

// Scheduler runs one pipeline against samples: it owns variant resolution,
// wave-by-wave dispatch through the bounded executor, and required-failure
// abort semantics. Context (internal/engine.SampleContext) belongs to the
// scheduler, not to individual tasks — outputs are written into it serially
// after each wave settles, never from inside a task body.
type Scheduler struct {
	Collaborators engine.Collaborators
	Workers       int
	Concurrent    bool
	Sink          ports.ProgressSink
	Log           *logger.Logger
}

// NewScheduler constructs a Scheduler from a pipeline's global settings.
func NewScheduler(collab engine.Collaborators, settings config.Settings, sink ports.ProgressSink, log *logger.Logger) *Scheduler {
	workers := settings.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Scheduler{
		Collaborators: collab,
		Workers:       workers,
		Concurrent:    settings.Concurrent,
		Sink:          sink,
		Log:           log,
	}
}

// stepFailure wraps a StepResult's already-classified error kind/message so
// it survives a round trip through engine.Task/engine.Executor, whose
// errorKind helper recovers a tagged kind via pipeflowerrors.KindOf before
// falling back to the Go error's dynamic type name. Satisfying that
// unexported interface only requires the ErrorKind() string method; Go
// interface satisfaction is structural, so this type need not live in
// pkg/errors.
type stepFailure struct {
	kind    string
	message string
}

func (e *stepFailure) Error() string     { return e.message }
func (e *stepFailure) ErrorKind() string { return e.kind }

// ExecuteSample runs pipeline against one sample under the named variant
// ("baseline" for the baseline override table, otherwise a named variant).
// An unknown variant or a cyclic pipeline is a configuration-class error
// returned directly (not captured in SampleResult): the resumable driver
// counts it as a failed attempt. Per-step failures are never returned as
// errors — they are data, recorded on the SampleResult.
func (s *Scheduler) ExecuteSample(ctx context.Context, pipeline *config.PipelineSpec, sample Sample, variant string) (model.SampleResult, error) {
	start := time.Now()

	overrides, err := resolveVariantOverrides(pipeline, variant)
	if err != nil {
		return model.SampleResult{}, err
	}

	graph, err := engine.Analyze(pipeline.Steps)
	if err != nil {
		return model.SampleResult{}, err
	}
	waves, err := engine.Waves(graph)
	if err != nil {
		return model.SampleResult{}, err
	}

	sctx := engine.NewSampleContext(sample.Fields, s.Log)
	steps := config.StepMap(pipeline.Steps)
	completed := make(map[string]model.StepResult, len(pipeline.Steps))

	run := s.executeSampleSequential
	if s.Concurrent {
		run = s.executeSampleConcurrent
	}
	abortErr := run(ctx, graph, waves, steps, sctx, overrides, sample.ID, completed)

	if abortErr != nil {
		return s.buildResult(pipeline, sample, variant, completed, start, abortErr.Error()), nil
	}
	return s.buildResult(pipeline, sample, variant, completed, start, ""), nil
}

// executeSampleConcurrent is the wave-barrier path: every wave's live steps
// are submitted together to the bounded executor (engine.Executor.Run, not
// RunWithDeps — cross-wave dependency gating is this scheduler's job, not
// the executor's) and the scheduler waits for the whole wave before writing
// outputs into Context and moving to the next wave.
func (s *Scheduler) executeSampleConcurrent(ctx context.Context, graph *engine.Graph, waves [][]string, steps map[string]config.StepSpec, sctx *engine.SampleContext, overrides map[string]config.VariantOverride, sampleID string, completed map[string]model.StepResult) error {
	executor := engine.NewExecutor(s.Workers)

	for _, wave := range waves {
		var tasks []engine.Task
		for _, id := range wave {
			spec := steps[id]
			if blocked, reason := s.dependencyBlocked(graph, spec, completed); blocked {
				result := model.SkippedResult(spec.ID, spec.OutputKey, "DependencyFailure", reason)
				completed[spec.ID] = result
				continue
			}
			tasks = append(tasks, s.buildTask(spec, sctx, overrides))
		}
		if len(tasks) == 0 {
			continue
		}

		summary, err := executor.Run(ctx, tasks, s.progressAdapter(sampleID))
		if err != nil {
			return err
		}
		for i, result := range summary.Results {
			spec := steps[tasks[i].ID]
			sr := taskResultToStepResult(spec, result)
			completed[spec.ID] = sr
			if sr.Success {
				sctx.Set(spec.OutputKey, sr.OutputValue)
			}
		}

		if failed := firstRequiredFailure(wave, steps, completed); failed != "" {
			return fmt.Errorf("required step '%s' failed: %s", failed, completed[failed].ErrorMessage)
		}
	}
	return nil
}

// executeSampleSequential is the non-concurrent fallback: steps run one at a
// time in topo_sort order, still honoring required semantics and
// dependency-failure skip propagation via the same producer-failed check.
func (s *Scheduler) executeSampleSequential(ctx context.Context, graph *engine.Graph, waves [][]string, steps map[string]config.StepSpec, sctx *engine.SampleContext, overrides map[string]config.VariantOverride, sampleID string, completed map[string]model.StepResult) error {
	order, err := engine.TopoSort(graph)
	if err != nil {
		return err
	}

	for _, id := range order {
		spec := steps[id]
		if blocked, reason := s.dependencyBlocked(graph, spec, completed); blocked {
			completed[spec.ID] = model.SkippedResult(spec.ID, spec.OutputKey, "DependencyFailure", reason)
			continue
		}

		result := engine.ExecuteStep(ctx, spec, sctx, stepOverrides(overrides, spec.ID), s.Collaborators)
		completed[spec.ID] = result
		if result.Success {
			sctx.Set(spec.OutputKey, result.OutputValue)
		}
		if !result.Success && spec.Required {
			return fmt.Errorf("required step '%s' failed: %s", spec.ID, result.ErrorMessage)
		}
	}
	return nil
}

func (s *Scheduler) buildTask(spec config.StepSpec, sctx *engine.SampleContext, overrides map[string]config.VariantOverride) engine.Task {
	ov := stepOverrides(overrides, spec.ID)
	return engine.Task{
		ID:       spec.ID,
		Required: spec.Required,
		Run: func(ctx context.Context) (model.Value, model.TokenCounts, *model.ParserStats, error) {
			result := engine.ExecuteStep(ctx, spec, sctx, ov, s.Collaborators)
			if !result.Success {
				return model.Value{}, model.TokenCounts{}, nil, &stepFailure{kind: result.ErrorKind, message: result.ErrorMessage}
			}
			return result.OutputValue, result.TokenCounts, result.ParserStats, nil
		},
	}
}

// dependencyBlocked reports whether spec must be skipped because a producer
// it depends on was itself skipped, or was required and failed.
func (s *Scheduler) dependencyBlocked(graph *engine.Graph, spec config.StepSpec, completed map[string]model.StepResult) (bool, string) {
	node, ok := graph.Nodes[spec.ID]
	if !ok {
		return false, ""
	}
	for _, dep := range node.DependsOn {
		res, ok := completed[dep]
		if !ok {
			continue
		}
		if res.Skipped || (graph.Nodes[dep].Spec.Required && !res.Success) {
			return true, "required dependency failed"
		}
	}
	return false, ""
}

// firstRequiredFailure returns the id of the first required, non-skipped
// failure among wave's steps, or "" if none.
func firstRequiredFailure(wave []string, steps map[string]config.StepSpec, completed map[string]model.StepResult) string {
	for _, id := range wave {
		res, ok := completed[id]
		if !ok || res.Skipped || res.Success {
			continue
		}
		if steps[id].Required {
			return id
		}
	}
	return ""
}

func taskResultToStepResult(spec config.StepSpec, tr engine.TaskResult) model.StepResult {
	if tr.Skipped {
		return model.SkippedResult(spec.ID, spec.OutputKey, tr.ErrorKind, tr.ErrorMessage)
	}
	if !tr.Success {
		return model.Failed(spec.ID, spec.OutputKey, tr.ErrorKind, tr.ErrorMessage, tr.ExecutionTime)
	}
	return model.Succeeded(spec.ID, spec.OutputKey, tr.Value, tr.ExecutionTime, tr.TokenCounts, tr.ParserStats)
}

func stepOverrides(table map[string]config.VariantOverride, stepID string) engine.VariantOverrides {
	ov, ok := table[stepID]
	if !ok {
		return engine.VariantOverrides{}
	}
	cp := ov
	return engine.VariantOverrides{Variant: &cp}
}

// resolveVariantOverrides collapses baseline + named-variant tables into a
// single per-step override table, matching VariantOverrides' two-layer
// (variant, baseline) resolution: the table returned here is passed as the
// "Variant" layer so its values win over the step's own field, and baseline
// is folded in wherever the named variant left a field unset.
func resolveVariantOverrides(pipeline *config.PipelineSpec, variant string) (map[string]config.VariantOverride, error) {
	if variant == "" || variant == "baseline" {
		return pipeline.BaselineOverride, nil
	}
	named, ok := pipeline.Variants[variant]
	if !ok {
		return nil, pipeflowerrors.NewConfigError("variant", fmt.Sprintf("unknown variant %q", variant))
	}

	merged := make(map[string]config.VariantOverride, len(named))
	for id, ov := range named {
		merged[id] = ov
	}
	for id, base := range pipeline.BaselineOverride {
		cur, ok := merged[id]
		if !ok {
			merged[id] = base
			continue
		}
		if cur.Flow == "" {
			cur.Flow = base.Flow
		}
		if cur.ModelOverride == "" {
			cur.ModelOverride = base.ModelOverride
		}
		merged[id] = cur
	}
	return merged, nil
}

func (s *Scheduler) progressAdapter(sampleID string) engine.ProgressFunc {
	if s.Sink == nil {
		return nil
	}
	return func(p engine.Progress) {
		s.Sink.OnProgress(sampleID, ports.ProgressSnapshot{
			Total:     p.Total,
			Completed: p.Completed,
			Failed:    p.Failed,
			Skipped:   p.Skipped,
			Running:   p.Running,
			Pending:   p.Pending,
			StartTime: p.StartTime,
			Now:       p.Now,
		})
	}
}

// buildResult projects declared output keys out of Context, reconstructs the
// StepResult list back into declaration order (unreached steps — those with
// no completed entry because a required failure aborted the sample early —
// are reported success=false, skipped=true, error="not reached"), and
// aggregates totals over successful steps.
func (s *Scheduler) buildResult(pipeline *config.PipelineSpec, sample Sample, variant string, completed map[string]model.StepResult, start time.Time, sampleErr string) model.SampleResult {
	results := make([]model.StepResult, 0, len(pipeline.Steps))
	var tokens model.TokenCounts
	var parserStats *model.ParserStats

	for _, spec := range pipeline.Steps {
		sr, ok := completed[spec.ID]
		if !ok {
			sr = model.SkippedResult(spec.ID, spec.OutputKey, "NotReached", "not reached")
		}
		results = append(results, sr)
		if sr.Success {
			tokens = tokens.Add(sr.TokenCounts)
			if sr.ParserStats != nil {
				if parserStats == nil {
					cp := *sr.ParserStats
					parserStats = &cp
				} else {
					merged := parserStats.Add(*sr.ParserStats)
					parserStats = &merged
				}
			}
		}
	}

	finalOutputs := make(map[string]model.Value, len(pipeline.Outputs))
	for _, key := range pipeline.Outputs {
		if v, ok := lookupOutput(results, key); ok {
			finalOutputs[key] = v
		}
	}

	return model.SampleResult{
		SampleID:     sample.ID,
		Variant:      variant,
		StepResults:  results,
		FinalOutputs: finalOutputs,
		TotalTime:    time.Since(start),
		TokenCounts:  tokens,
		ParserStats:  parserStats,
		ErrorMessage: sampleErr,
	}
}

// lookupOutput finds the successful StepResult whose output_key matches key.
func lookupOutput(results []model.StepResult, key string) (model.Value, bool) {
	for _, sr := range results {
		if sr.OutputKey == key && sr.Success {
			return sr.OutputValue, true
		}
	}
	return model.Value{}, false
}
