package models

import "fmt"

// Step is a single unit of delegated work in a plan. It is metadata only: it
// describes what the step does and which worker role should execute it, but
// carries no executor.
type Step struct {
	ID             string   `json:"id"              validate:"required"`
	Name           string   `json:"name"            validate:"required"`
	Description    string   `json:"description"`
	Role           Role     `json:"role"            validate:"required"`
	DependsOn      []string `json:"depends_on,omitempty"`
	RetryMax       int      `json:"retry_max"       validate:"min=0"`
	TimeoutSeconds float64  `json:"timeout_seconds" validate:"min=0"`
	// CheckpointPhase marks this step as approval-gated: after the step
	// succeeds its output is held at a checkpoint under this phase tag.
	// Empty means ungated.
	CheckpointPhase string `json:"checkpoint_phase,omitempty"`
}

// Plan is a named, ordered set of steps with dependencies. Insertion order is
// the tie-break order for scheduling. Plans are created once, validated
// before use, and never mutated during execution.
type Plan struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`

	steps []Step
}

// NewPlan creates an empty plan.
func NewPlan(name, description string) *Plan {
	return &Plan{Name: name, Description: description}
}

// AddStep appends a step to the plan. Fails with ErrDuplicateStep if a step
// with the same id already exists.
func (p *Plan) AddStep(step Step) error {
	for _, s := range p.steps {
		if s.ID == step.ID {
			return fmt.Errorf("%w: '%s' in plan '%s'", ErrDuplicateStep, step.ID, p.Name)
		}
	}

	p.steps = append(p.steps, step)

	return nil
}

// MustAddStep is AddStep for static plan templates, where a duplicate id is a
// programming error.
func (p *Plan) MustAddStep(step Step) {
	if err := p.AddStep(step); err != nil {
		panic(err)
	}
}

// Steps returns a copy of the ordered step list.
func (p *Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)

	return out
}

// Len returns the number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.steps)
}

// GetStep returns the step with the given id.
func (p *Plan) GetStep(id string) (Step, error) {
	for _, s := range p.steps {
		if s.ID == id {
			return s, nil
		}
	}

	return Step{}, fmt.Errorf("%w: '%s' in plan '%s'", ErrStepNotFound, id, p.Name)
}

// StepIndex returns the insertion index of a step id, or -1 if absent.
func (p *Plan) StepIndex(id string) int {
	for i, s := range p.steps {
		if s.ID == id {
			return i
		}
	}

	return -1
}

// Validate checks the plan's structural invariants: retry and timeout bounds
// must be non-negative, every depends_on id must reference an existing step,
// no step may depend on itself, and the dependency relation must be acyclic.
// Validation is pure and idempotent.
func (p *Plan) Validate() error {
	ids := make(map[string]struct{}, len(p.steps))
	for _, s := range p.steps {
		ids[s.ID] = struct{}{}
	}

	for _, s := range p.steps {
		if s.RetryMax < 0 {
			return fmt.Errorf("%w: step '%s' has retry_max %d in plan '%s'",
				ErrInvalidBound, s.ID, s.RetryMax, p.Name)
		}

		if s.TimeoutSeconds < 0 {
			return fmt.Errorf("%w: step '%s' has timeout_seconds %v in plan '%s'",
				ErrInvalidBound, s.ID, s.TimeoutSeconds, p.Name)
		}

		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return fmt.Errorf("%w: step '%s' depends on itself in plan '%s'", ErrCycle, s.ID, p.Name)
			}

			if _, ok := ids[dep]; !ok {
				return fmt.Errorf("%w: step '%s' depends on '%s' which does not exist in plan '%s'",
					ErrMissingDependency, s.ID, dep, p.Name)
			}
		}
	}

	return p.checkAcyclic()
}

type dfsColor int

const (
	colorWhite dfsColor = iota // unvisited
	colorGray                  // on the current DFS path
	colorBlack                 // fully explored
)

// checkAcyclic runs a depth-first traversal with white/gray/black coloring.
// A back-edge to a gray node means the dependency relation has a cycle.
func (p *Plan) checkAcyclic() error {
	colors := make(map[string]dfsColor, len(p.steps))
	deps := make(map[string][]string, len(p.steps))

	for _, s := range p.steps {
		deps[s.ID] = s.DependsOn
	}

	var visit func(id string) error

	visit = func(id string) error {
		colors[id] = colorGray

		for _, dep := range deps[id] {
			switch colors[dep] {
			case colorGray:
				return fmt.Errorf("%w: via step '%s' in plan '%s'", ErrCycle, dep, p.Name)
			case colorWhite:
				if err := visit(dep); err != nil {
					return err
				}
			case colorBlack:
				// Already explored, nothing to do.
			}
		}

		colors[id] = colorBlack

		return nil
	}

	for _, s := range p.steps {
		if colors[s.ID] == colorWhite {
			if err := visit(s.ID); err != nil {
				return err
			}
		}
	}

	return nil
}
