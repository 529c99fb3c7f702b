package config

import (
	"fmt"
	"strings"

	pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs structural and cross-field validation on an entire
// pipeline spec. It never checks for dependency cycles: cycle detection
// belongs to the dependency analyzer (internal/engine), which runs after a
// config passes this check.
func ValidateConfig(spec *PipelineSpec) error {
	if spec == nil {
		return pipeflowerrors.NewConfigError("pipeline", "pipeline spec is nil")
	}

	v := validatorInstance()
	if err := v.Struct(spec); err != nil {
		return convertValidationError(err)
	}

	stepIndex := make(map[string]int, len(spec.Steps))
	outputKeys := make(map[string]string, len(spec.Steps))

	for i, step := range spec.Steps {
		if _, exists := stepIndex[step.ID]; exists {
			return pipeflowerrors.NewConfigError(fieldForStep(i, "id"), fmt.Sprintf("duplicate step id %q", step.ID))
		}
		if owner, exists := outputKeys[step.OutputKey]; exists {
			return pipeflowerrors.NewConfigError(fieldForStep(i, "output_key"), fmt.Sprintf("output_key %q already produced by step %q", step.OutputKey, owner))
		}

		if err := ValidateStep(step); err != nil {
			return err
		}

		stepIndex[step.ID] = i
		outputKeys[step.OutputKey] = step.ID
	}

	for i, step := range spec.Steps {
		for _, dep := range step.ExplicitDeps {
			if dep == step.ID {
				continue // self-deps are dropped silently by the analyzer, not a config error
			}
			if _, ok := stepIndex[dep]; !ok {
				return pipeflowerrors.NewConfigError(fieldForStep(i, "depends_on"), fmt.Sprintf("references unknown step %q", dep))
			}
		}
	}

	if spec.EvaluationTarget != "" {
		if _, ok := stepIndex[spec.EvaluationTarget]; !ok {
			return pipeflowerrors.NewConfigError("evaluation_target", fmt.Sprintf("references unknown step %q", spec.EvaluationTarget))
		}
	}

	if err := validateOverrideTable("baseline_overrides", spec.BaselineOverride, stepIndex); err != nil {
		return err
	}
	for variant, overrides := range spec.Variants {
		if err := validateOverrideTable(fmt.Sprintf("variants[%s]", variant), overrides, stepIndex); err != nil {
			return err
		}
	}

	return nil
}

func validateOverrideTable(field string, overrides map[string]VariantOverride, stepIndex map[string]int) error {
	for stepID := range overrides {
		if _, ok := stepIndex[stepID]; !ok {
			return pipeflowerrors.NewConfigError(field, fmt.Sprintf("override references unknown step %q", stepID))
		}
	}
	return nil
}

// ValidateStep inspects a single step for structural correctness independent
// of other steps.
func ValidateStep(step StepSpec) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	switch step.Kind {
	case KindAgentFlow:
		if step.AgentFlow == nil {
			return pipeflowerrors.NewConfigError(step.ID, "agent_flow configuration is required")
		}
		if err := v.Struct(step.AgentFlow); err != nil {
			return convertValidationError(err)
		}
	case KindCodeNode:
		if step.CodeNode == nil {
			return pipeflowerrors.NewConfigError(step.ID, "code_node configuration is required")
		}
		if err := v.Struct(step.CodeNode); err != nil {
			return convertValidationError(err)
		}
		if err := validateCodeNodeFields(step); err != nil {
			return err
		}
	case KindBatchAggregator:
		if step.BatchAggregator == nil {
			return pipeflowerrors.NewConfigError(step.ID, "batch_aggregator configuration is required")
		}
		if err := v.Struct(step.BatchAggregator); err != nil {
			return convertValidationError(err)
		}
		if err := validateAggregatorFields(step); err != nil {
			return err
		}
		if _, ok := step.InputMapping["items"]; !ok {
			return pipeflowerrors.NewConfigError(step.ID, `batch_aggregator requires an input_mapping entry for "items"`)
		}
	default:
		return pipeflowerrors.NewConfigError(step.ID, fmt.Sprintf("unknown step kind %q", step.Kind))
	}

	return nil
}

func validateCodeNodeFields(step StepSpec) error {
	cfg := step.CodeNode
	hasInline := strings.TrimSpace(cfg.Code) != ""
	hasFile := strings.TrimSpace(cfg.CodeFile) != ""
	if hasInline == hasFile {
		return pipeflowerrors.NewConfigError(step.ID, "exactly one of code or code_file must be set")
	}
	return nil
}

func validateAggregatorFields(step StepSpec) error {
	cfg := step.BatchAggregator
	switch cfg.Strategy {
	case StrategyStats, StrategySummary:
		if len(cfg.Fields) == 0 && len(cfg.SummaryFields) == 0 {
			return pipeflowerrors.NewConfigError(step.ID, fmt.Sprintf("%s strategy requires fields or summary_fields", cfg.Strategy))
		}
	case StrategyFilter:
		if strings.TrimSpace(cfg.Condition) == "" {
			return pipeflowerrors.NewConfigError(step.ID, "filter strategy requires a condition")
		}
	case StrategyGroup:
		if strings.TrimSpace(cfg.GroupBy) == "" {
			return pipeflowerrors.NewConfigError(step.ID, "group strategy requires group_by")
		}
	case StrategyCustom:
		if strings.TrimSpace(cfg.AggregationCode) == "" {
			return pipeflowerrors.NewConfigError(step.ID, "custom strategy requires aggregation_code")
		}
		if cfg.CodeLanguage == "" {
			return pipeflowerrors.NewConfigError(step.ID, "custom strategy requires code_language")
		}
	}
	return nil
}

// convertValidationError normalizes go-playground/validator errors into the
// project's ConfigError.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		fe := ves[0]
		field := yamlishFieldName(fe)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
		return pipeflowerrors.NewConfigError(field, msg)
	}

	return pipeflowerrors.NewConfigError("config", err.Error())
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}
