package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	maestrocmd "github.com/maestrohq/maestro/pkg/cmd"
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/dag"
	"github.com/maestrohq/maestro/pkg/engine"
	"github.com/maestrohq/maestro/pkg/log"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/orchestrator"
	"github.com/maestrohq/maestro/pkg/plan"
	"github.com/maestrohq/maestro/pkg/workers"
)

func loadConfig(cmd *cli.Command) *config.Config {
	cfg := config.LoadOrDefault(cmd.String("config"))
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log.Setup(cfg.Log.Level, cfg.Log.Format)

	return cfg
}

func requireArg(cmd *cli.Command, usage string) (string, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return "", fmt.Errorf("usage: %s", usage)
	}

	return arg, nil
}

func listPlans(cmd *cli.Command) error {
	loadConfig(cmd)

	registry := maestrocmd.NewPlanRegistry()

	for _, name := range registry.List() {
		p, err := registry.Get(name)
		if err != nil {
			continue
		}

		fmt.Printf("%-24s %2d steps  %s\n", p.Name, p.Len(), p.Description)
	}

	return nil
}

func showPlan(cmd *cli.Command) error {
	loadConfig(cmd)

	name, err := requireArg(cmd, "maestro plans show <plan-name>")
	if err != nil {
		return err
	}

	p, err := maestrocmd.NewPlanRegistry().Get(name)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n\n", p.Name, p.Description)

	for _, step := range p.Steps() {
		fmt.Printf("  %-24s role=%-12s", step.ID, step.Role)

		if len(step.DependsOn) > 0 {
			fmt.Printf(" depends_on=%v", step.DependsOn)
		}

		fmt.Println()
	}

	return nil
}

func showPlanOrder(cmd *cli.Command) error {
	loadConfig(cmd)

	name, err := requireArg(cmd, "maestro plans order <plan-name>")
	if err != nil {
		return err
	}

	p, err := maestrocmd.NewPlanRegistry().Get(name)
	if err != nil {
		return err
	}

	graph, err := dag.Build(p)
	if err != nil {
		return err
	}

	order, err := dag.TopologicalSort(graph)
	if err != nil {
		return err
	}

	for i, id := range order {
		fmt.Printf("%2d. %s\n", i+1, id)
	}

	return nil
}

func resolvePlan(cmd *cli.Command, name string) (*models.Plan, error) {
	if file := cmd.String("file"); file != "" {
		return plan.LoadFile(file)
	}

	return maestrocmd.NewPlanRegistry().Get(name)
}

func runPlan(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	name, err := requireArg(cmd, "maestro run <plan-name>")
	if err != nil {
		return err
	}

	p, err := resolvePlan(cmd, name)
	if err != nil {
		return err
	}

	registry, err := maestrocmd.NewWorkerRegistry(cfg, log.WithModule("workers"))
	if err != nil {
		return err
	}

	pipeline, err := engine.Build(p, registry,
		engine.WithLogger(log.WithModule("engine")),
		engine.WithGate(newGate(cfg)),
	)
	if err != nil {
		return err
	}

	var inputs map[string]any
	if input := cmd.String("input"); input != "" {
		inputs = map[string]any{"input": input}
	}

	result, err := pipeline.Run(ctx, inputs)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func runProject(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	brief, err := requireArg(cmd, "maestro project <brief>")
	if err != nil {
		return err
	}

	registry, err := maestrocmd.NewWorkerRegistry(cfg, log.WithModule("workers"))
	if err != nil {
		return err
	}

	projectID := cmd.String("project-id")
	if projectID == "" {
		projectID = "proj-" + uuid.New().String()[:8]
	}

	o := newOrchestrator(cfg, registry, projectID)

	if cmd.Bool("stream") {
		for ev := range o.RunStream(ctx, brief) {
			line, err := json.Marshal(ev)
			if err != nil {
				continue
			}

			fmt.Println(string(line))
		}

		return ctx.Err()
	}

	return printJSON(o.Run(ctx, brief))
}

func newOrchestrator(cfg *config.Config, registry *workers.Registry, projectID string) *orchestrator.Orchestrator {
	return orchestrator.New(registry,
		orchestrator.WithProjectID(projectID),
		orchestrator.WithLogger(log.WithModule("orchestrator")),
		orchestrator.WithGate(newGate(cfg)),
	)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
