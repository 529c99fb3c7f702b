package engine

import (
	"testing"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(id, outputKey string, inputMapping map[string]string, explicitDeps ...string) config.StepSpec {
	return config.StepSpec{
		ID:           id,
		Kind:         config.KindCodeNode,
		OutputKey:    outputKey,
		InputMapping: inputMapping,
		ExplicitDeps: explicitDeps,
		Required:     true,
	}
}

func TestAnalyzeDerivesEdgesFromInputMapping(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("fetch", "raw", nil),
		step("parse", "parsed", map[string]string{"text": "raw"}),
		step("summarize", "summary", map[string]string{"doc": "parsed"}),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)

	assert.Empty(t, g.Nodes["fetch"].DependsOn)
	assert.Equal(t, []string{"fetch"}, g.Nodes["parse"].DependsOn)
	assert.Equal(t, []string{"parse"}, g.Nodes["summarize"].DependsOn)
}

func TestAnalyzeDerivesEdgesFromExplicitDeps(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", nil),
		step("b", "out_b", nil, "a"),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, g.Nodes["b"].DependsOn)
}

func TestAnalyzeDropsSelfAndUnknownEdges(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", map[string]string{"x": "out_a"}, "a", "nonexistent"),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)
	assert.Empty(t, g.Nodes["a"].DependsOn)
}

func TestAnalyzeDeduplicatesEdges(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", nil),
		step("b", "out_b", map[string]string{"x": "out_a"}, "a"),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, g.Nodes["b"].DependsOn)
}

func TestAnalyzeDetectsCycle(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", map[string]string{"x": "out_b"}),
		step("b", "out_b", map[string]string{"x": "out_a"}),
	}

	_, err := Analyze(steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestWavesRespectsDeclarationOrderWithinAWave(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("c", "out_c", nil),
		step("a", "out_a", nil),
		step("b", "out_b", nil),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)

	waves, err := Waves(g)
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"c", "a", "b"}, waves[0])
}

func TestWavesStratifiesIndependentChains(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", nil),
		step("b", "out_b", map[string]string{"x": "out_a"}),
		step("independent", "out_i", nil),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)

	waves, err := Waves(g)
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Equal(t, []string{"a", "independent"}, waves[0])
	assert.Equal(t, []string{"b"}, waves[1])
}

func TestTopoSortFlattensWaves(t *testing.T) {
	t.Parallel()

	steps := []config.StepSpec{
		step("a", "out_a", nil),
		step("b", "out_b", map[string]string{"x": "out_a"}),
	}

	g, err := Analyze(steps)
	require.NoError(t, err)

	order, err := TopoSort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}
