// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/maestrohq/maestro/pkg/models"
)

// CreateTestStep creates a test step with default values that can be
// overridden.
func CreateTestStep(overrides ...func(*models.Step)) models.Step {
	step := models.Step{
		ID:          uuid.New().String(),
		Name:        "Test Step",
		Description: "Analyze the test scenario",
		Role:        models.RoleAnalyst,
	}

	for _, override := range overrides {
		override(&step)
	}

	return step
}

// WithID sets the step ID.
func WithID(id string) func(*models.Step) {
	return func(s *models.Step) {
		s.ID = id
	}
}

// WithName sets the step name.
func WithName(name string) func(*models.Step) {
	return func(s *models.Step) {
		s.Name = name
	}
}

// WithRole sets the step role.
func WithRole(role models.Role) func(*models.Step) {
	return func(s *models.Step) {
		s.Role = role
	}
}

// WithDependsOn sets the step dependencies.
func WithDependsOn(ids ...string) func(*models.Step) {
	return func(s *models.Step) {
		s.DependsOn = ids
	}
}

// WithDescription sets the step description.
func WithDescription(description string) func(*models.Step) {
	return func(s *models.Step) {
		s.Description = description
	}
}

// WithCheckpointPhase marks the step as approval-gated under the given phase.
func WithCheckpointPhase(phase string) func(*models.Step) {
	return func(s *models.Step) {
		s.CheckpointPhase = phase
	}
}

// WithRetry sets the step retry budget.
func WithRetry(retryMax int) func(*models.Step) {
	return func(s *models.Step) {
		s.RetryMax = retryMax
	}
}

// WithTimeout sets the step per-attempt timeout in seconds.
func WithTimeout(seconds float64) func(*models.Step) {
	return func(s *models.Step) {
		s.TimeoutSeconds = seconds
	}
}

// CreateTestPlan creates a linear research-then-analyze plan.
func CreateTestPlan() *models.Plan {
	p := models.NewPlan("test-plan", "A plan for testing")

	p.MustAddStep(CreateTestStep(WithID("research"), WithRole(models.RoleResearcher)))
	p.MustAddStep(CreateTestStep(WithID("analyze"), WithDependsOn("research")))

	return p
}

// CreateDiamondPlan creates the four-step diamond: two independent roots
// merge into a synthesis step followed by a manager review.
func CreateDiamondPlan() *models.Plan {
	p := models.NewPlan("diamond", "A and B feed C, C feeds D")

	p.MustAddStep(CreateTestStep(WithID("a"), WithName("A"), WithDescription("do a")))
	p.MustAddStep(CreateTestStep(WithID("b"), WithName("B"), WithDescription("do b"),
		WithRole(models.RoleResearcher)))
	p.MustAddStep(CreateTestStep(WithID("c"), WithName("C"), WithDescription("do c"),
		WithDependsOn("a", "b")))
	p.MustAddStep(CreateTestStep(WithID("d"), WithName("D"), WithDescription("do d"),
		WithRole(models.RoleManager), WithDependsOn("c")))

	return p
}
