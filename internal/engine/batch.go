package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
)

// executeBatchAgentFlow implements the batch sub-executor (spec's batch
// sub-executor) for a batch_mode AgentFlow step: it fans the batch axis out
// into per-item tasks, runs each chunk through a bounded executor (or
// serially), and rejoins per-item outputs in input order. Per-item failures
// never fail the step as a whole; they surface as an empty output plus an
// error field on that item's entry.
func executeBatchAgentFlow(ctx context.Context, spec config.StepSpec, inputs map[string]model.Value, overrides VariantOverrides, collab Collaborators, start time.Time) model.StepResult {
	axisKey, items := findBatchAxis(inputs)

	batchSize := spec.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	workers := spec.BatchWorkers
	if workers <= 0 {
		workers = 4
	}

	flowName := overrides.resolve(func(o config.VariantOverride) string { return o.Flow }, spec.AgentFlow.Flow)
	modelOverride := overrides.resolve(func(o config.VariantOverride) string { return o.ModelOverride }, spec.AgentFlow.ModelOverride)

	outputs := make([]model.Value, len(items))
	var totalTokens model.TokenCounts
	var parserStats *model.ParserStats

	for chunkStart := 0; chunkStart < len(items); chunkStart += batchSize {
		chunkEnd := chunkStart + batchSize
		if chunkEnd > len(items) {
			chunkEnd = len(items)
		}
		chunk := items[chunkStart:chunkEnd]

		tasks := make([]Task, len(chunk))
		for i, item := range chunk {
			itemInputs := withAxisItem(inputs, axisKey, item)
			tasks[i] = Task{
				ID:       fmt.Sprintf("%s[%d]", spec.ID, chunkStart+i),
				Required: true,
				Run: func(ctx context.Context) (model.Value, model.TokenCounts, *model.ParserStats, error) {
					if collab.Agent == nil {
						return model.Value{}, model.TokenCounts{}, nil, fmt.Errorf("no agent invoker configured")
					}
					text, tokens, stats, err := collab.Agent.RunFlow(ctx, flowName, itemInputs, spec.AgentFlow.Agent, modelOverride)
					if err != nil {
						return model.Value{}, model.TokenCounts{}, nil, err
					}
					value, stats, err := parseAgentOutput(ctx, text, stats, collab.Parser)
					if err != nil {
						return model.Value{}, model.TokenCounts{}, nil, err
					}
					return value, tokens, stats, nil
				},
			}
		}

		var results []TaskResult
		if spec.ConcurrentBatch {
			summary, _ := NewExecutor(workers).Run(ctx, tasks, nil)
			results = summary.Results
		} else {
			results = make([]TaskResult, len(tasks))
			for i, task := range tasks {
				results[i] = runTask(ctx, task)
			}
		}

		for i, result := range results {
			idx := chunkStart + i
			if result.Success {
				outputs[idx] = result.Value
				totalTokens = totalTokens.Add(result.TokenCounts)
				parserStats = addParserStats(parserStats, result.ParserStats)
			} else {
				outputs[idx] = model.NewMap(map[string]model.Value{
					"output": model.NewString(""),
					"error":  model.NewString(result.ErrorMessage),
				})
			}
		}
	}

	return model.Succeeded(spec.ID, spec.OutputKey, model.NewList(outputs), time.Since(start), totalTokens, parserStats)
}

// findBatchAxis locates the single list-valued entry in inputs, the "batch
// axis" every other entry is repeated across. If no list input is found,
// resolved inputs are treated as a single-item batch.
func findBatchAxis(inputs map[string]model.Value) (string, []model.Value) {
	for key, v := range inputs {
		if items, ok := v.List(); ok {
			return key, items
		}
	}
	single := make(map[string]model.Value, len(inputs))
	for k, v := range inputs {
		single[k] = v
	}
	return "", []model.Value{model.NewMap(single)}
}

// withAxisItem rebinds the batch axis key to a single item's value, leaving
// every other resolved input untouched (repeated across items).
func withAxisItem(inputs map[string]model.Value, axisKey string, item model.Value) map[string]model.Value {
	if axisKey == "" {
		if m, ok := item.Map(); ok {
			return m
		}
		return inputs
	}
	out := make(map[string]model.Value, len(inputs))
	for k, v := range inputs {
		out[k] = v
	}
	out[axisKey] = item
	return out
}

func addParserStats(total, next *model.ParserStats) *model.ParserStats {
	if next == nil {
		return total
	}
	if total == nil {
		stats := *next
		return &stats
	}
	merged := total.Add(*next)
	return &merged
}
