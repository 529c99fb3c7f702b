package engine

import (
	"github.com/arota-dev/pipeflow/internal/config"
)

// Node is one vertex of the dependency graph: a step plus its resolved
// dependency edges (not the raw config.StepSpec fields, since edges are
// derived from input_mapping producers as well as explicit_deps).
type Node struct {
	ID              string
	Spec            config.StepSpec
	DependsOn       []string
	ConcurrentGroup string
}

// Graph is the dependency graph for one pipeline's steps. Declared carries
// the original declaration order, which is the tie-breaking order used
// everywhere a deterministic ordering is required (waves, topo sort).
type Graph struct {
	Nodes    map[string]*Node
	Declared []string
}

// Analyze builds the dependency graph for steps, deriving edge u -> v
// whenever v's input_mapping references u's output_key, or u is in
// v.explicit_deps. Self-edges are dropped. Declared concurrent_group labels
// are attached as metadata only; they never affect the derived edges.
//
// Duplicate ids/output keys are config-time errors caught by
// config.ValidateConfig before Analyze ever runs; Analyze assumes a spec
// that has already passed validation.
func Analyze(steps []config.StepSpec) (*Graph, error) {
	outputToStep := make(map[string]string, len(steps))
	for _, step := range steps {
		if step.OutputKey != "" {
			outputToStep[step.OutputKey] = step.ID
		}
	}

	g := &Graph{Nodes: make(map[string]*Node, len(steps)), Declared: make([]string, 0, len(steps))}
	for _, step := range steps {
		g.Nodes[step.ID] = &Node{ID: step.ID, Spec: step, ConcurrentGroup: step.ConcurrentGroup}
		g.Declared = append(g.Declared, step.ID)
	}

	for _, step := range steps {
		node := g.Nodes[step.ID]
		seen := make(map[string]bool)

		for _, sourceKey := range step.InputMapping {
			producer, ok := outputToStep[sourceKey]
			if !ok || producer == step.ID || seen[producer] {
				continue
			}
			seen[producer] = true
			node.DependsOn = append(node.DependsOn, producer)
		}

		for _, dep := range step.ExplicitDeps {
			if dep == step.ID || seen[dep] {
				continue
			}
			if _, ok := g.Nodes[dep]; !ok {
				continue // unknown deps are a config-time error, already rejected
			}
			seen[dep] = true
			node.DependsOn = append(node.DependsOn, dep)
		}
	}

	deps := make(map[string][]string, len(g.Nodes))
	for id, node := range g.Nodes {
		deps[id] = node.DependsOn
	}
	if _, err := stratifyIDs(g.Declared, deps); err != nil {
		return nil, err
	}

	return g, nil
}

// Waves stratifies the graph via Kahn's algorithm: each wave is the set of
// nodes whose dependencies are all satisfied by prior waves. Order within a
// wave follows step declaration order, not insertion/discovery order.
func Waves(g *Graph) ([][]string, error) {
	deps := make(map[string][]string, len(g.Nodes))
	for id, node := range g.Nodes {
		deps[id] = node.DependsOn
	}
	return stratifyIDs(g.Declared, deps)
}

// TopoSort flattens Waves into a single declaration-ordered sequence, used by
// the sequential fallback scheduler and by API callers that only need an
// execution order.
func TopoSort(g *Graph) ([]string, error) {
	waves, err := Waves(g)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(g.Nodes))
	for _, wave := range waves {
		out = append(out, wave...)
	}
	return out, nil
}
