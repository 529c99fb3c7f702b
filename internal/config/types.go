package config

import (
	"gopkg.in/yaml.v3"
)

// Step kinds: the closed set of StepSpec.Kind values the executor dispatches
// on. The set is closed and validated at load time; there is no open plugin
// registration for new kinds.
const (
	KindAgentFlow       = "agent_flow"
	KindCodeNode        = "code_node"
	KindBatchAggregator = "batch_aggregator"
)

// Supported code-runner languages.
const (
	LanguagePython = "python"
	LanguageJS     = "js"
)

// Supported batch-aggregator strategies.
const (
	StrategyConcat  = "concat"
	StrategyStats   = "stats"
	StrategyFilter  = "filter"
	StrategyGroup   = "group"
	StrategySummary = "summary"
	StrategyCustom  = "custom"
)

// VariantOverride replaces, for one step, the flow name and/or model used by
// an AgentFlow step. Layered: variant override, then baseline override, then
// the step's own field (see internal/engine/step_executor.go).
type VariantOverride struct {
	Flow          string `yaml:"flow,omitempty"`
	ModelOverride string `yaml:"model_override,omitempty"`
}

// PipelineSpec is the immutable, validated description of one pipeline.
type PipelineSpec struct {
	Version          string                     `yaml:"version" validate:"required,semver"`
	Name             string                     `yaml:"name" validate:"required,min=1,max=100"`
	Description      string                     `yaml:"description,omitempty"`
	Settings         Settings                   `yaml:"settings,omitempty"`
	Steps            []StepSpec                 `yaml:"steps" validate:"required,min=1,dive"`
	Inputs           []string                   `yaml:"inputs,omitempty"`
	Outputs          []string                   `yaml:"outputs,omitempty"`
	EvaluationTarget string                     `yaml:"evaluation_target,omitempty"`
	BaselineOverride map[string]VariantOverride `yaml:"baseline_overrides,omitempty"`
	Variants         map[string]map[string]VariantOverride `yaml:"variants,omitempty"`
}

// Settings holds global execution parameters for a pipeline run.
type Settings struct {
	MaxWorkers      int  `yaml:"max_workers,omitempty" validate:"omitempty,min=1,max=64"`
	Concurrent      bool `yaml:"concurrent,omitempty"`
	BatchWorkers    int  `yaml:"batch_workers,omitempty" validate:"omitempty,min=1,max=64"`
	MaxRetries      int  `yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	KeepCheckpoints int  `yaml:"keep_checkpoints,omitempty" validate:"omitempty,min=1,max=100"`
}

// StepSpec is the immutable descriptor of a single DAG node.
type StepSpec struct {
	ID              string            `yaml:"id" validate:"required,step_id"`
	Kind            string            `yaml:"kind" validate:"required,oneof=agent_flow code_node batch_aggregator"`
	InputMapping    map[string]string `yaml:"input_mapping,omitempty"`
	OutputKey       string            `yaml:"output_key" validate:"required"`
	ExplicitDeps    []string          `yaml:"depends_on,omitempty"`
	Required        bool              `yaml:"required,omitempty"`
	BatchMode       bool              `yaml:"batch_mode,omitempty"`
	BatchSize       int               `yaml:"batch_size,omitempty" validate:"omitempty,min=1"`
	ConcurrentBatch bool              `yaml:"concurrent_batch,omitempty"`
	BatchWorkers    int               `yaml:"batch_workers,omitempty" validate:"omitempty,min=1"`
	ConcurrentGroup string            `yaml:"concurrent_group,omitempty"`
	TimeoutMs       int               `yaml:"timeout_ms,omitempty" validate:"omitempty,min=1"`

	AgentFlow       *AgentFlowConfig       `yaml:",inline,omitempty"`
	CodeNode        *CodeNodeConfig        `yaml:",inline,omitempty"`
	BatchAggregator *BatchAggregatorConfig `yaml:",inline,omitempty"`
}

// AgentFlowConfig configures an LLM agent/flow invocation step.
type AgentFlowConfig struct {
	Agent         string `yaml:"agent" validate:"required"`
	Flow          string `yaml:"flow" validate:"required"`
	ModelOverride string `yaml:"model_override,omitempty"`
}

// CodeNodeConfig configures a sandboxed-code step. Exactly one of Code or
// CodeFile must be set.
type CodeNodeConfig struct {
	Language string `yaml:"language" validate:"required,oneof=python js"`
	Code     string `yaml:"code,omitempty"`
	CodeFile string `yaml:"code_file,omitempty"`
}

// BatchAggregatorConfig configures an in-process aggregation step over a
// list-valued input bound to the "items" input_mapping key.
type BatchAggregatorConfig struct {
	Strategy        string   `yaml:"strategy" validate:"required,oneof=concat stats filter group summary custom"`
	Separator       string   `yaml:"separator,omitempty"`
	Fields          []string `yaml:"fields,omitempty"`
	Condition       string   `yaml:"condition,omitempty"`
	GroupBy         string   `yaml:"group_by,omitempty"`
	SummaryFields   []string `yaml:"summary_fields,omitempty"`
	AggregationCode string   `yaml:"aggregation_code,omitempty"`
	CodeLanguage    string   `yaml:"code_language,omitempty" validate:"omitempty,oneof=python js"`
}

// UnmarshalYAML dispatches on kind to populate the correct inline config,
// mirroring the teacher's per-kind Step decoding.
func (s *StepSpec) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID              string            `yaml:"id"`
		Kind            string            `yaml:"kind"`
		InputMapping    map[string]string `yaml:"input_mapping"`
		OutputKey       string            `yaml:"output_key"`
		ExplicitDeps    []string          `yaml:"depends_on"`
		Required        *bool             `yaml:"required"`
		BatchMode       bool              `yaml:"batch_mode"`
		BatchSize       int               `yaml:"batch_size"`
		ConcurrentBatch bool              `yaml:"concurrent_batch"`
		BatchWorkers    int               `yaml:"batch_workers"`
		ConcurrentGroup string            `yaml:"concurrent_group"`
		TimeoutMs       int               `yaml:"timeout_ms"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	s.ID = base.ID
	s.Kind = base.Kind
	s.InputMapping = base.InputMapping
	s.OutputKey = base.OutputKey
	s.ExplicitDeps = append([]string(nil), base.ExplicitDeps...)
	if base.Required != nil {
		s.Required = *base.Required
	} else {
		s.Required = true
	}
	s.BatchMode = base.BatchMode
	s.BatchSize = base.BatchSize
	if s.BatchMode && s.BatchSize == 0 {
		s.BatchSize = 10
	}
	s.ConcurrentBatch = base.ConcurrentBatch
	s.BatchWorkers = base.BatchWorkers
	if s.BatchMode && s.ConcurrentBatch && s.BatchWorkers == 0 {
		s.BatchWorkers = 4
	}
	s.ConcurrentGroup = base.ConcurrentGroup
	s.TimeoutMs = base.TimeoutMs

	s.AgentFlow = nil
	s.CodeNode = nil
	s.BatchAggregator = nil

	switch base.Kind {
	case KindAgentFlow:
		var cfg AgentFlowConfig
		if err := value.Decode(&cfg); err != nil {
			return err
		}
		s.AgentFlow = &cfg
	case KindCodeNode:
		var cfg CodeNodeConfig
		if err := value.Decode(&cfg); err != nil {
			return err
		}
		s.CodeNode = &cfg
	case KindBatchAggregator:
		var cfg BatchAggregatorConfig
		if err := value.Decode(&cfg); err != nil {
			return err
		}
		s.BatchAggregator = &cfg
	}

	return nil
}

// StepMap builds a lookup table for steps by ID.
func StepMap(steps []StepSpec) map[string]StepSpec {
	out := make(map[string]StepSpec, len(steps))
	for _, step := range steps {
		out[step.ID] = step
	}
	return out
}

