// Package dag builds directed acyclic graphs from validated plans and
// produces deterministic topological execution orders.
package dag

import (
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
)

// Node wraps a plan step with its resolved retry/timeout policy. Nodes never
// hold live worker instances; workers are resolved later, per run, so that
// graph construction stays cheap and side-effect-free and the graph can be
// inspected without creating costly resources.
type Node struct {
	ID             string      `json:"id"`
	Step           models.Step `json:"step"`
	RetryMax       int         `json:"retry_max"`
	TimeoutSeconds float64     `json:"timeout_seconds"`

	// index is the step's insertion position in the source plan. It is the
	// tie-break key for topological ordering.
	index int
}

// Edge is a single dependency pair: From must complete before To may start.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DAG is the derived graph form of a plan.
type DAG struct {
	PlanName string           `json:"plan_name"`
	Nodes    map[string]*Node `json:"nodes"`
	Edges    []Edge           `json:"edges"`
}

// Build converts a plan into a DAG: one node per step carrying the step's
// retry/timeout policy, one edge per dependency pair. The plan is validated
// first, so a malformed plan never produces a graph.
func Build(plan *models.Plan) (*DAG, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan '%s' failed validation: %w", plan.Name, err)
	}

	d := &DAG{
		PlanName: plan.Name,
		Nodes:    make(map[string]*Node, plan.Len()),
	}

	for i, step := range plan.Steps() {
		d.Nodes[step.ID] = &Node{
			ID:             step.ID,
			Step:           step,
			RetryMax:       step.RetryMax,
			TimeoutSeconds: step.TimeoutSeconds,
			index:          i,
		}

		for _, dep := range step.DependsOn {
			d.Edges = append(d.Edges, Edge{From: dep, To: step.ID})
		}
	}

	return d, nil
}

// Dependencies returns the ids of the nodes that must complete before the
// given node may start.
func (d *DAG) Dependencies(id string) []string {
	var deps []string

	for _, e := range d.Edges {
		if e.To == id {
			deps = append(deps, e.From)
		}
	}

	return deps
}

// Dependents returns the ids of the nodes that depend on the given node.
func (d *DAG) Dependents(id string) []string {
	var out []string

	for _, e := range d.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}

	return out
}
