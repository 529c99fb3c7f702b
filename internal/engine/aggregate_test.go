package engine

import (
	"context"
	"testing"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numItem(fields map[string]model.Value) model.Value {
	return model.NewMap(fields)
}

func TestAggregateConcatJoinsWithSeparator(t *testing.T) {
	t.Parallel()
	items := []model.Value{model.NewString("a"), model.NewString("b"), model.NewString("c")}
	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyConcat, Separator: ", "}, items, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "a, b, c", out.AsString())
}

func TestAggregateStatsComputesMinMaxSumMeanCount(t *testing.T) {
	t.Parallel()
	items := []model.Value{
		numItem(map[string]model.Value{"score": model.NewNumber(1)}),
		numItem(map[string]model.Value{"score": model.NewNumber(3)}),
		numItem(map[string]model.Value{"score": model.NewNumber(5)}),
	}
	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyStats, Fields: []string{"score"}}, items, 0, nil)
	require.NoError(t, err)

	m, ok := out.Map()
	require.True(t, ok)
	fields, ok := m["fields"].Map()
	require.True(t, ok)
	score, ok := fields["score"].Map()
	require.True(t, ok)

	min, _ := score["min"].Number()
	max, _ := score["max"].Number()
	sum, _ := score["sum"].Number()
	mean, _ := score["mean"].Number()
	count, _ := score["count"].Number()

	assert.Equal(t, 1.0, min)
	assert.Equal(t, 5.0, max)
	assert.Equal(t, 9.0, sum)
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 3.0, count)
}

func TestAggregateFilterKeepsMatchingItems(t *testing.T) {
	t.Parallel()
	items := []model.Value{
		numItem(map[string]model.Value{"score": model.NewNumber(1)}),
		numItem(map[string]model.Value{"score": model.NewNumber(10)}),
	}
	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyFilter, Condition: "item.score > 5.0"}, items, 0, nil)
	require.NoError(t, err)

	kept, ok := out.List()
	require.True(t, ok)
	require.Len(t, kept, 1)
	m, _ := kept[0].Map()
	score, _ := m["score"].Number()
	assert.Equal(t, 10.0, score)
}

func TestAggregateGroupBucketsByField(t *testing.T) {
	t.Parallel()
	items := []model.Value{
		numItem(map[string]model.Value{"category": model.NewString("x")}),
		numItem(map[string]model.Value{"category": model.NewString("y")}),
		numItem(map[string]model.Value{"category": model.NewString("x")}),
	}
	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyGroup, GroupBy: "category"}, items, 0, nil)
	require.NoError(t, err)

	m, ok := out.Map()
	require.True(t, ok)
	xs, ok := m["x"].List()
	require.True(t, ok)
	assert.Len(t, xs, 2)
	ys, ok := m["y"].List()
	require.True(t, ok)
	assert.Len(t, ys, 1)
}

func TestAggregateSummaryGathersNamedFields(t *testing.T) {
	t.Parallel()
	items := []model.Value{
		numItem(map[string]model.Value{"a": model.NewString("1"), "b": model.NewString("2")}),
	}
	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategySummary, SummaryFields: []string{"a", "missing"}}, items, 0, nil)
	require.NoError(t, err)

	list, ok := out.List()
	require.True(t, ok)
	require.Len(t, list, 1)
	entry, _ := list[0].Map()
	assert.Equal(t, "1", entry["a"].AsString())
	assert.True(t, entry["missing"].IsNull())
}

func TestAggregateUnknownStrategyErrors(t *testing.T) {
	t.Parallel()
	_, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: "nonsense"}, nil, 0, nil)
	require.Error(t, err)
}

func TestAggregateCustomRunsCodeAndThreadsTimeout(t *testing.T) {
	t.Parallel()
	items := []model.Value{model.NewNumber(1), model.NewNumber(2)}
	runner := &fakeCodeRunner{result: ports.CodeResult{Success: true, Output: model.NewNumber(3)}}

	out, err := Aggregate(context.Background(), config.BatchAggregatorConfig{
		Strategy:        config.StrategyCustom,
		CodeLanguage:    "python",
		AggregationCode: "output = sum(items)",
	}, items, 5000, runner)
	require.NoError(t, err)
	assert.Equal(t, 5000, runner.gotTimeoutMs)
	n, ok := out.Number()
	require.True(t, ok)
	assert.Equal(t, 3.0, n)
}

func TestAggregateCustomReportsTimeout(t *testing.T) {
	t.Parallel()
	runner := &fakeCodeRunner{result: ports.CodeResult{TimedOut: true}}

	_, err := Aggregate(context.Background(), config.BatchAggregatorConfig{
		Strategy:        config.StrategyCustom,
		CodeLanguage:    "python",
		AggregationCode: "output = sum(items)",
	}, nil, 1000, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1000ms")
}

func TestAggregateCustomPropagatesRunnerFailure(t *testing.T) {
	t.Parallel()
	runner := &fakeCodeRunner{result: ports.CodeResult{Success: false, Error: "boom"}}

	_, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyCustom}, nil, 0, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAggregateCustomRequiresCodeRunner(t *testing.T) {
	t.Parallel()
	_, err := Aggregate(context.Background(), config.BatchAggregatorConfig{Strategy: config.StrategyCustom}, nil, 0, nil)
	require.Error(t, err)
}
