package config

import (
	"testing"

	pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"
	"github.com/stretchr/testify/require"
)

func validSpec() *PipelineSpec {
	return &PipelineSpec{
		Version: "1.0.0",
		Name:    "demo",
		Steps: []StepSpec{
			{
				ID:        "a",
				Kind:      KindAgentFlow,
				OutputKey: "x",
				Required:  true,
				AgentFlow: &AgentFlowConfig{Agent: "writer", Flow: "flow_a"},
			},
			{
				ID:           "b",
				Kind:         KindCodeNode,
				OutputKey:    "y",
				Required:     true,
				ExplicitDeps: []string{"a"},
				CodeNode:     &CodeNodeConfig{Language: LanguagePython, Code: "return inputs['x']"},
			},
		},
	}
}

func TestValidateConfigAcceptsWellFormedSpec(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateConfig(validSpec()))
}

func TestValidateConfigRejectsNil(t *testing.T) {
	t.Parallel()
	err := ValidateConfig(nil)
	require.Error(t, err)
	require.Equal(t, "ConfigError", pipeflowerrors.KindOf(err))
}

func TestValidateConfigRejectsDuplicateStepID(t *testing.T) {
	t.Parallel()

	spec := validSpec()
	spec.Steps[1].ID = "a"
	err := ValidateConfig(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate step id")
}

func TestValidateConfigRejectsDuplicateOutputKey(t *testing.T) {
	t.Parallel()

	spec := validSpec()
	spec.Steps[1].OutputKey = "x"
	err := ValidateConfig(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already produced")
}

func TestValidateConfigRejectsUnknownDependency(t *testing.T) {
	t.Parallel()

	spec := validSpec()
	spec.Steps[1].ExplicitDeps = []string{"ghost"}
	err := ValidateConfig(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown step")
}

func TestValidateConfigRejectsUnknownEvaluationTarget(t *testing.T) {
	t.Parallel()

	spec := validSpec()
	spec.EvaluationTarget = "ghost"
	err := ValidateConfig(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "evaluation_target")
}

func TestValidateStepRejectsMissingKindConfig(t *testing.T) {
	t.Parallel()

	step := StepSpec{ID: "a", Kind: KindAgentFlow, OutputKey: "x"}
	err := ValidateStep(step)
	require.Error(t, err)
	require.Contains(t, err.Error(), "agent_flow configuration is required")
}

func TestValidateStepRejectsCodeNodeWithBothCodeAndFile(t *testing.T) {
	t.Parallel()

	step := StepSpec{
		ID: "a", Kind: KindCodeNode, OutputKey: "x",
		CodeNode: &CodeNodeConfig{Language: LanguagePython, Code: "x", CodeFile: "f.py"},
	}
	err := ValidateStep(step)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exactly one of code or code_file")
}

func TestValidateStepRejectsBatchAggregatorMissingItemsMapping(t *testing.T) {
	t.Parallel()

	step := StepSpec{
		ID: "a", Kind: KindBatchAggregator, OutputKey: "x",
		BatchAggregator: &BatchAggregatorConfig{Strategy: StrategyConcat},
	}
	err := ValidateStep(step)
	require.Error(t, err)
	require.Contains(t, err.Error(), `input_mapping entry for "items"`)
}

func TestValidateStepRejectsGroupStrategyWithoutGroupBy(t *testing.T) {
	t.Parallel()

	step := StepSpec{
		ID: "a", Kind: KindBatchAggregator, OutputKey: "x",
		InputMapping:    map[string]string{"items": "texts"},
		BatchAggregator: &BatchAggregatorConfig{Strategy: StrategyGroup},
	}
	err := ValidateStep(step)
	require.Error(t, err)
	require.Contains(t, err.Error(), "group_by")
}
