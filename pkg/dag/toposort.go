package dag

import (
	"fmt"
	"sort"

	"github.com/maestrohq/maestro/pkg/models"
)

// TopologicalSort returns a total order over node ids such that every edge's
// source appears before its target.
//
// It runs Kahn's algorithm with a deterministic tie-break: among the nodes
// whose dependencies are all already placed, the one with the smallest plan
// insertion index is selected next. The same plan therefore always yields
// the same order.
func TopologicalSort(d *DAG) ([]string, error) {
	inDegree := make(map[string]int, len(d.Nodes))
	for id := range d.Nodes {
		inDegree[id] = 0
	}

	for _, e := range d.Edges {
		inDegree[e.To]++
	}

	ready := make([]*Node, 0, len(d.Nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, d.Nodes[id])
		}
	}

	order := make([]string, 0, len(d.Nodes))

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return ready[i].index < ready[j].index
		})

		next := ready[0]
		ready = ready[1:]
		order = append(order, next.ID)

		for _, dependent := range d.Dependents(next.ID) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, d.Nodes[dependent])
			}
		}
	}

	if len(order) < len(d.Nodes) {
		// Residual in-degree means an edge loop survived validation.
		return nil, fmt.Errorf("%w: %d of %d nodes unplaceable in '%s'",
			models.ErrCycle, len(d.Nodes)-len(order), len(d.Nodes), d.PlanName)
	}

	return order, nil
}
