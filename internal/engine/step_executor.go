package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
)

// Collaborators bundles the external, out-of-scope systems ExecuteStep
// dispatches to. A scheduler constructs one per pipeline run (typically
// backed by internal/runtime's registry) and threads it through every step.
type Collaborators struct {
	Agent  ports.AgentInvoker
	Code   ports.CodeRunner
	Parser ports.OutputParser
}

// VariantOverrides is the three-layer override table consulted when
// resolving an AgentFlow step's effective flow/model: variant override,
// then baseline override, then the step's own field.
type VariantOverrides struct {
	Variant  *config.VariantOverride
	Baseline *config.VariantOverride
}

func (o VariantOverrides) resolve(field func(config.VariantOverride) string, fallback string) string {
	if o.Variant != nil {
		if v := field(*o.Variant); v != "" {
			return v
		}
	}
	if o.Baseline != nil {
		if v := field(*o.Baseline); v != "" {
			return v
		}
	}
	return fallback
}

// ExecuteStep dispatches on spec.Kind and returns a StepResult. A step
// failure is captured in the result, never returned as an error: the caller
// (the pipeline scheduler) decides whether a failure halts the sample based
// on spec.Required.
func ExecuteStep(ctx context.Context, spec config.StepSpec, sctx *SampleContext, overrides VariantOverrides, collab Collaborators) model.StepResult {
	inputs := resolveInputs(spec.InputMapping, sctx)
	start := time.Now()

	switch spec.Kind {
	case config.KindAgentFlow:
		return executeAgentFlow(ctx, spec, inputs, overrides, collab, start)
	case config.KindCodeNode:
		return executeCodeNode(ctx, spec, inputs, collab, start)
	case config.KindBatchAggregator:
		return executeBatchAggregator(ctx, spec, inputs, collab, start)
	default:
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", fmt.Sprintf("unknown step kind %q", spec.Kind), time.Since(start))
	}
}

// resolveInputs looks up each input_mapping value in the sample context.
// A missing key resolves to an empty string (Context.Get already logs).
func resolveInputs(inputMapping map[string]string, sctx *SampleContext) map[string]model.Value {
	resolved := make(map[string]model.Value, len(inputMapping))
	for param, key := range inputMapping {
		resolved[param] = sctx.Get(key)
	}
	return resolved
}

func executeAgentFlow(ctx context.Context, spec config.StepSpec, inputs map[string]model.Value, overrides VariantOverrides, collab Collaborators, start time.Time) model.StepResult {
	if spec.AgentFlow == nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", "agent_flow step missing agent_flow config", time.Since(start))
	}
	if spec.BatchMode {
		return executeBatchAgentFlow(ctx, spec, inputs, overrides, collab, start)
	}
	if collab.Agent == nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", "no agent invoker configured", time.Since(start))
	}

	flowName := overrides.resolve(func(o config.VariantOverride) string { return o.Flow }, spec.AgentFlow.Flow)
	modelOverride := overrides.resolve(func(o config.VariantOverride) string { return o.ModelOverride }, spec.AgentFlow.ModelOverride)

	text, tokens, parserStats, err := collab.Agent.RunFlow(ctx, flowName, inputs, spec.AgentFlow.Agent, modelOverride)
	if err != nil {
		return model.Failed(spec.ID, spec.OutputKey, errorKind(err), err.Error(), time.Since(start))
	}

	output, parserStats, err := parseAgentOutput(ctx, text, parserStats, collab.Parser)
	if err != nil {
		return model.Failed(spec.ID, spec.OutputKey, "ParseError", err.Error(), time.Since(start))
	}
	return model.Succeeded(spec.ID, spec.OutputKey, output, time.Since(start), tokens, parserStats)
}

// parseAgentOutput feeds an AgentFlow step's raw text through the
// registered OutputParser, if any, producing a structured Value and parser
// statistics in place of the plain string. With no parser wired, raw is
// returned unchanged as a string Value alongside whatever stats RunFlow
// itself already reported.
func parseAgentOutput(ctx context.Context, raw string, runFlowStats *model.ParserStats, parser ports.OutputParser) (model.Value, *model.ParserStats, error) {
	if parser == nil {
		return model.NewString(raw), runFlowStats, nil
	}
	value, stats, err := parser.Parse(ctx, raw)
	if err != nil {
		return model.Value{}, nil, fmt.Errorf("parsing agent output: %w", err)
	}
	return value, stats, nil
}

func executeCodeNode(ctx context.Context, spec config.StepSpec, inputs map[string]model.Value, collab Collaborators, start time.Time) model.StepResult {
	if spec.CodeNode == nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", "code_node step missing code_node config", time.Since(start))
	}
	if collab.Code == nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", "no code runner configured", time.Since(start))
	}

	body, err := codeBody(*spec.CodeNode)
	if err != nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", err.Error(), time.Since(start))
	}

	result, err := collab.Code.RunCode(ctx, spec.CodeNode.Language, body, inputs, spec.TimeoutMs, nil)
	if err != nil {
		return model.Failed(spec.ID, spec.OutputKey, errorKind(err), err.Error(), time.Since(start))
	}
	if result.TimedOut {
		return model.Failed(spec.ID, spec.OutputKey, "Timeout", fmt.Sprintf("code node exceeded %dms", spec.TimeoutMs), time.Since(start))
	}
	if !result.Success {
		return model.Failed(spec.ID, spec.OutputKey, "ExecutionError", result.Error, time.Since(start))
	}
	return model.Succeeded(spec.ID, spec.OutputKey, result.Output, time.Since(start), model.TokenCounts{}, nil)
}

// codeBody returns the step's inline code, or reads it from CodeFile.
// Exactly one of Code or CodeFile must be set; config.ValidateStep enforces
// this before a step ever reaches ExecuteStep.
func codeBody(cfg config.CodeNodeConfig) (string, error) {
	if cfg.Code != "" {
		return cfg.Code, nil
	}
	data, err := os.ReadFile(cfg.CodeFile)
	if err != nil {
		return "", fmt.Errorf("reading code file %s: %w", cfg.CodeFile, err)
	}
	return string(data), nil
}

func executeBatchAggregator(ctx context.Context, spec config.StepSpec, inputs map[string]model.Value, collab Collaborators, start time.Time) model.StepResult {
	if spec.BatchAggregator == nil {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", "batch_aggregator step missing batch_aggregator config", time.Since(start))
	}
	itemsValue, ok := inputs["items"]
	if !ok {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", `batch_aggregator step requires an "items" input_mapping entry`, time.Since(start))
	}
	items, ok := itemsValue.List()
	if !ok {
		return model.Failed(spec.ID, spec.OutputKey, "ConfigError", `"items" input did not resolve to a list`, time.Since(start))
	}

	output, err := Aggregate(ctx, *spec.BatchAggregator, items, spec.TimeoutMs, collab.Code)
	if err != nil {
		return model.Failed(spec.ID, spec.OutputKey, "ExecutionError", err.Error(), time.Since(start))
	}
	return model.Succeeded(spec.ID, spec.OutputKey, output, time.Since(start), model.TokenCounts{}, nil)
}
