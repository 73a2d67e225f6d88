package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/workers"
)

// Task is one decomposed unit of project work: which role runs it and what
// it should do.
type Task struct {
	Role        models.Role `json:"role"`
	Description string      `json:"description"`
}

// Strategy turns a free-text brief into role-tagged tasks.
type Strategy interface {
	Decompose(ctx context.Context, brief string) ([]Task, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, brief string) ([]Task, error)

func (f StrategyFunc) Decompose(ctx context.Context, brief string) ([]Task, error) {
	return f(ctx, brief)
}

// roleKeywords maps roles to trigger keywords, in priority order: the first
// role whose keyword matches a task line wins. Lines matching nothing go to
// the analyst.
var roleKeywords = []struct {
	role     models.Role
	keywords []string
}{
	{models.RoleResearcher, []string{"research", "investigate", "survey", "literature", "background", "explore"}},
	{models.RoleAnalyst, []string{"analyze", "recommend", "evaluate", "assess", "compare", "review"}},
	{models.RoleDataAnalyst, []string{"data", "statistics", "metrics", "quantitative", "numbers", "dataset"}},
	{models.RoleManager, []string{"coordinate", "plan", "schedule", "timeline", "milestone"}},
}

// MapToTasks assigns a role to every non-empty line of a decomposition
// output via ordered keyword matching.
func MapToTasks(output string) []Task {
	var tasks []Task

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		role := models.RoleAnalyst

		for _, rk := range roleKeywords {
			if containsAny(lower, rk.keywords) {
				role = rk.role

				break
			}
		}

		tasks = append(tasks, Task{Role: role, Description: line})
	}

	return tasks
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}

	return false
}

// FallbackTasks is the deterministic two-task split used whenever the
// decomposition strategy fails or yields nothing: research the background,
// then analyze and recommend, both derived verbatim from the brief.
func FallbackTasks(brief string) []Task {
	return []Task{
		{Role: models.RoleResearcher, Description: "Research background and context for: " + brief},
		{Role: models.RoleAnalyst, Description: "Analyze and provide recommendations for: " + brief},
	}
}

// WorkerStrategy decomposes a brief by asking a manager worker to break it
// into one task per line, then mapping lines to roles by keyword.
type WorkerStrategy struct {
	registry *workers.Registry
}

func NewWorkerStrategy(registry *workers.Registry) *WorkerStrategy {
	return &WorkerStrategy{registry: registry}
}

func (s *WorkerStrategy) Decompose(ctx context.Context, brief string) ([]Task, error) {
	manager, err := s.registry.Create(models.RoleManager, "decomposer")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Break the following project brief into a short list of concrete tasks, one per line, "+
			"with no numbering or commentary:\n\n%s", brief)

	output, err := manager.Run(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("decomposition call failed: %w", err)
	}

	return MapToTasks(output), nil
}
