package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/maestrohq/maestro/pkg/autonomy"
	maestrocmd "github.com/maestrohq/maestro/pkg/cmd"
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/log"
	"github.com/maestrohq/maestro/pkg/otelhelper"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "maestro-api",
		Usage:                 "Serve plans, projects, and checkpoints over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Sources: cli.EnvVars("PORT"),
			},
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
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg := config.LoadOrDefault(command.String("config"))
			if level := command.String("log-level"); level != "" {
				cfg.Log.Level = level
			}

			if port := command.Int("port"); port != 0 {
				cfg.API.Port = port
			}

			log.Setup(cfg.Log.Level, cfg.Log.Format)

			logger.InfoContext(ctx, "Initializing Maestro API", "port", cfg.API.Port)

			workerRegistry, err := maestrocmd.NewWorkerRegistry(cfg, logger)
			if err != nil {
				return err
			}

			eventBus, err := maestrocmd.NewEventBus(ctx, logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				maestrocmd.NewPlanRegistry(),
				workerRegistry,
				autonomy.NewStore(),
				eventBus,
			).WithAutonomy(cfg.AutonomyLevel())

			if cfg.Tracing.Enabled {
				tracer, err := otelhelper.NewTracer(ctx, "maestro-api", cfg.Tracing.Endpoint)
				if err != nil {
					return err
				}

				api.WithTracer(tracer)
			}

			return api.Start(cfg.API.Port)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("maestro-api failed", "error", err)
		os.Exit(1)
	}
}
