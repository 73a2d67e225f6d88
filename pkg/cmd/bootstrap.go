// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/events"
	"github.com/maestrohq/maestro/pkg/plan"
	"github.com/maestrohq/maestro/pkg/workers"
)

// NewPlanRegistry returns a plan registry preloaded with the built-in
// consulting templates.
func NewPlanRegistry() *plan.Registry {
	registry := plan.NewRegistry()
	plan.RegisterTemplates(registry)

	return registry
}

// NewWorkerRegistry builds the worker registry for the configured provider.
// The openai provider requires an API key; the callable provider echoes
// prompts and exists for local dry runs.
func NewWorkerRegistry(cfg *config.Config, logger *slog.Logger) (*workers.Registry, error) {
	registry := workers.NewRegistry(logger)

	switch cfg.Workers.Provider {
	case "openai":
		if cfg.Workers.APIKey == "" {
			return nil, fmt.Errorf("openai worker provider requires an API key")
		}

		clientConfig := openai.DefaultConfig(cfg.Workers.APIKey)
		if cfg.Workers.BaseURL != "" {
			clientConfig.BaseURL = cfg.Workers.BaseURL
		}

		workers.RegisterOpenAIWorkers(registry, openai.NewClientWithConfig(clientConfig), cfg.Workers.Model, logger)

	case "callable":
		workers.RegisterEchoWorkers(registry)

	default:
		return nil, fmt.Errorf("unsupported worker provider: %s", cfg.Workers.Provider)
	}

	return registry, nil
}

// NewEventBus creates the in-memory project event bus, attaches the audit-log
// consumer, and starts the subscriber loop.
func NewEventBus(ctx context.Context, logger *slog.Logger) (eventbus.EventBus, error) {
	bus := eventbus.NewInMemoryBus(logger, events.ProjectTopic)

	if err := eventbus.RegisterAuditLog(bus, logger); err != nil {
		return nil, fmt.Errorf("failed to register event bus audit log: %w", err)
	}

	if err := bus.Subscribe(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus subscriber: %w", err)
	}

	return bus, nil
}
