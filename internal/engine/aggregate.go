package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
)

// Aggregate applies a BatchAggregator step's configured strategy to items,
// the list bound to the step's "items" input_mapping key. custom delegates
// to a CodeRunner, bounded by timeoutMs (the step's timeout_ms); every other
// strategy runs in-process and ignores it.
func Aggregate(ctx context.Context, spec config.BatchAggregatorConfig, items []model.Value, timeoutMs int, runner ports.CodeRunner) (model.Value, error) {
	switch spec.Strategy {
	case config.StrategyConcat:
		return aggregateConcat(items, spec.Separator), nil
	case config.StrategyStats:
		return aggregateStats(items, spec.Fields), nil
	case config.StrategyFilter:
		return aggregateFilter(items, spec.Condition)
	case config.StrategyGroup:
		return aggregateGroup(items, spec.GroupBy), nil
	case config.StrategySummary:
		return aggregateSummary(items, spec.SummaryFields), nil
	case config.StrategyCustom:
		return aggregateCustom(ctx, spec, items, timeoutMs, runner)
	default:
		return model.Value{}, fmt.Errorf("unknown aggregation strategy %q", spec.Strategy)
	}
}

func aggregateConcat(items []model.Value, separator string) model.Value {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.AsString()
	}
	return model.NewString(strings.Join(parts, separator))
}

type fieldStats struct {
	min, max, sum float64
	count         int
}

func aggregateStats(items []model.Value, fields []string) model.Value {
	stats := make(map[string]*fieldStats, len(fields))
	for _, f := range fields {
		stats[f] = &fieldStats{}
	}

	for _, item := range items {
		m, ok := item.Map()
		if !ok {
			continue
		}
		for _, f := range fields {
			v, ok := m[f]
			if !ok {
				continue
			}
			n, ok := v.Number()
			if !ok {
				continue
			}
			s := stats[f]
			if s.count == 0 {
				s.min, s.max = n, n
			} else {
				if n < s.min {
					s.min = n
				}
				if n > s.max {
					s.max = n
				}
			}
			s.sum += n
			s.count++
		}
	}

	fieldResults := make(map[string]model.Value, len(fields))
	for _, f := range fields {
		s := stats[f]
		mean := 0.0
		if s.count > 0 {
			mean = s.sum / float64(s.count)
		}
		fieldResults[f] = model.NewMap(map[string]model.Value{
			"min":   model.NewNumber(s.min),
			"max":   model.NewNumber(s.max),
			"sum":   model.NewNumber(s.sum),
			"mean":  model.NewNumber(mean),
			"count": model.NewNumber(float64(s.count)),
		})
	}

	return model.NewMap(map[string]model.Value{
		"total_items": model.NewNumber(float64(len(items))),
		"fields":      model.NewMap(fieldResults),
	})
}

// aggregateFilter evaluates condition per item via CEL, a sandboxed
// expression language, so pipeline config can never execute arbitrary Go.
// Items are exposed to the expression as the variable "item".
func aggregateFilter(items []model.Value, condition string) (model.Value, error) {
	env, err := cel.NewEnv(cel.Variable("item", cel.DynType))
	if err != nil {
		return model.Value{}, fmt.Errorf("building filter evaluator: %w", err)
	}
	ast, issues := env.Compile(condition)
	if issues != nil && issues.Err() != nil {
		return model.Value{}, fmt.Errorf("compiling filter condition %q: %w", condition, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return model.Value{}, fmt.Errorf("preparing filter condition %q: %w", condition, err)
	}

	var kept []model.Value
	for _, item := range items {
		out, _, err := program.Eval(map[string]any{"item": item.ToAny()})
		if err != nil {
			return model.Value{}, fmt.Errorf("evaluating filter condition on item: %w", err)
		}
		if keep, ok := out.Value().(bool); ok && keep {
			kept = append(kept, item)
		}
	}
	return model.NewList(kept), nil
}

func aggregateGroup(items []model.Value, groupBy string) model.Value {
	buckets := make(map[string][]model.Value)
	var order []string
	for _, item := range items {
		key := ""
		if m, ok := item.Map(); ok {
			if v, ok := m[groupBy]; ok {
				key = v.AsString()
			}
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], item)
	}
	sort.Strings(order)

	out := make(map[string]model.Value, len(buckets))
	for key, bucket := range buckets {
		out[key] = model.NewList(bucket)
	}
	return model.NewMap(out)
}

func aggregateSummary(items []model.Value, fields []string) model.Value {
	summaries := make([]model.Value, len(items))
	for i, item := range items {
		entry := make(map[string]model.Value, len(fields))
		m, _ := item.Map()
		for _, f := range fields {
			if v, ok := m[f]; ok {
				entry[f] = v
			} else {
				entry[f] = model.Null()
			}
		}
		summaries[i] = model.NewMap(entry)
	}
	return model.NewList(summaries)
}

func aggregateCustom(ctx context.Context, spec config.BatchAggregatorConfig, items []model.Value, timeoutMs int, runner ports.CodeRunner) (model.Value, error) {
	if runner == nil {
		return model.Value{}, fmt.Errorf("custom aggregation requires a code runner")
	}
	result, err := runner.RunCode(ctx, spec.CodeLanguage, spec.AggregationCode, map[string]model.Value{"items": model.NewList(items)}, timeoutMs, nil)
	if err != nil {
		return model.Value{}, err
	}
	if result.TimedOut {
		return model.Value{}, fmt.Errorf("custom aggregation code exceeded %dms", timeoutMs)
	}
	if !result.Success {
		return model.Value{}, fmt.Errorf("custom aggregation code failed: %s", result.Error)
	}
	return result.Output, nil
}
