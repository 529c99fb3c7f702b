package engine

import pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"

// stratifyIDs runs Kahn's algorithm over an arbitrary id set with explicit
// dependency edges, used both by Waves (step ids) and RunWithDeps (task ids)
// per spec's note that the executor uses "the same Kahn algorithm as the
// analyzer, but on task ids rather than step ids". order fixes the
// declaration/submission order used to break ties within a wave.
func stratifyIDs(order []string, dependsOn map[string][]string) ([][]string, error) {
	inDegree := make(map[string]int, len(order))
	dependents := make(map[string][]string, len(order))
	for _, id := range order {
		inDegree[id] = len(dependsOn[id])
	}
	for id, deps := range dependsOn {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	remaining := len(order)
	placed := make(map[string]bool, len(order))
	var waves [][]string

	for remaining > 0 {
		var wave []string
		for _, id := range order {
			if !placed[id] && inDegree[id] == 0 {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			return nil, pipeflowerrors.NewCycleError(findRemainingCycle(order, dependsOn, placed))
		}

		waves = append(waves, wave)
		for _, id := range wave {
			placed[id] = true
			remaining--
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
			}
		}
	}

	return waves, nil
}

// findRemainingCycle locates a cycle among the ids Kahn's algorithm could not
// place, for a readable CycleError when stratifyIDs fails.
func findRemainingCycle(order []string, dependsOn map[string][]string, placed map[string]bool) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(order))

	var path []string
	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = gray
		path = append(path, id)
		for _, dep := range dependsOn[id] {
			if placed[dep] {
				continue
			}
			switch color[dep] {
			case white:
				if cycle := dfs(dep); cycle != nil {
					return cycle
				}
			case gray:
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := append([]string(nil), path[start:]...)
				return append(cycle, dep)
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range order {
		if !placed[id] && color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
