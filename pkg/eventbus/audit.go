package eventbus

import (
	"context"
	"log/slog"

	"github.com/maestrohq/maestro/pkg/events"
)

// RegisterAuditLog attaches the operator-facing bus consumer: terminal
// pipeline and project events plus node failures are written to the log, so
// every run leaves a trail even when no client is attached to the stream.
func RegisterAuditLog(bus EventBus, logger *slog.Logger) error {
	handlers := map[events.EventType]EventHandler{
		events.NodeFailedEvent: func(_ context.Context, event any) error {
			if ev, ok := event.(*events.NodeFailed); ok {
				logger.Warn("Node failed",
					"execution_id", ev.ExecutionID, "node_id", ev.NodeID,
					"attempts", ev.Attempts, "error", ev.Error)
			}

			return nil
		},
		events.PipelineFinishedEvent: func(_ context.Context, event any) error {
			if ev, ok := event.(*events.PipelineFinished); ok {
				logger.Info("Pipeline finished",
					"pipeline", ev.PipelineName, "execution_id", ev.ExecutionID,
					"success", ev.Success, "duration_ms", ev.DurationMs)
			}

			return nil
		},
		events.ProjectCompleteEvent: func(_ context.Context, event any) error {
			if ev, ok := event.(*events.ProjectEvent); ok {
				logger.Info("Project completed", "project_id", ev.Content, "metadata", ev.Metadata)
			}

			return nil
		},
		events.ProjectErrorEvent: func(_ context.Context, event any) error {
			if ev, ok := event.(*events.ProjectEvent); ok {
				logger.Warn("Project failed", "error", ev.Content)
			}

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}
