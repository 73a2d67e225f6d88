package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/maestrohq/maestro/pkg/log"
)

func main() {
	logger := log.WithModule("cli")

	command := &cli.Command{
		Name:                  "maestro",
		Usage:                 "Run consulting plans and projects from the command line",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("MAESTRO_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "plans",
				Aliases: []string{"p"},
				Usage:   "Inspect registered plan templates",
				Commands: []*cli.Command{
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List registered plans",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return listPlans(cmd)
						},
					},
					{
						Name:      "show",
						Usage:     "Show a plan's steps and dependencies",
						ArgsUsage: "<plan-name>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return showPlan(cmd)
						},
					},
					{
						Name:      "order",
						Usage:     "Print one valid execution order for a plan",
						ArgsUsage: "<plan-name>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return showPlanOrder(cmd)
						},
					},
				},
			},
			{
				Name:      "run",
				Aliases:   []string{"r"},
				Usage:     "Execute a plan end to end",
				ArgsUsage: "<plan-name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Initial input passed to every root step",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Load the plan from a JSON file instead of the registry",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPlan(ctx, cmd)
				},
			},
			{
				Name:      "project",
				Usage:     "Run the three-phase orchestration for a brief",
				ArgsUsage: "<brief>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stream",
						Usage: "Print lifecycle events as they happen",
					},
					&cli.StringFlag{
						Name:  "project-id",
						Usage: "Project identifier (auto-generated if not provided)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runProject(ctx, cmd)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("maestro failed", "error", err)
		os.Exit(1)
	}
}
