// Package engine executes plan DAGs node by node with retry, timeout, and
// skip-propagation semantics.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/dag"
	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/events"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/otelhelper"
	"github.com/maestrohq/maestro/pkg/workers"
)

// Pipeline is an executable plan: the derived DAG, its deterministic
// topological order, and one resolved worker per node. Pipelines are built
// per run; building is cheap because workers are the only resources created.
type Pipeline struct {
	name    string
	graph   *dag.DAG
	order   []string
	workers map[string]workers.Worker
	logger  *slog.Logger
	bus     eventbus.EventBus
	tracer  trace.Tracer
	gate    *autonomy.Gate
}

type Option func(*Pipeline)

// WithEventBus publishes node and pipeline lifecycle events during Run.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(p *Pipeline) {
		p.bus = bus
	}
}

// WithTracer records a span per pipeline run and per node attempt sequence.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithGate holds checkpoint-phased steps at an approval gate. Without a gate
// every step is ungated.
func WithGate(gate *autonomy.Gate) Option {
	return func(p *Pipeline) {
		p.gate = gate
	}
}

// Build assembles an executable pipeline from a plan: validates it, derives
// the DAG and topological order, and resolves a concrete worker for every
// node's role. An unregistered role fails here, before any node runs.
func Build(plan *models.Plan, registry *workers.Registry, opts ...Option) (*Pipeline, error) {
	graph, err := dag.Build(plan)
	if err != nil {
		return nil, err
	}

	order, err := dag.TopologicalSort(graph)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:    plan.Name,
		graph:   graph,
		order:   order,
		workers: make(map[string]workers.Worker, len(order)),
		logger:  slog.Default().With("module", "engine", "plan", plan.Name),
	}

	for _, opt := range opts {
		opt(p)
	}

	for _, id := range order {
		node := graph.Nodes[id]

		worker, err := registry.Create(node.Step.Role, plan.Name+"-"+id)
		if err != nil {
			return nil, fmt.Errorf("resolving worker for step '%s': %w", id, err)
		}

		p.workers[id] = worker
	}

	return p, nil
}

// Order returns the pipeline's topological execution order.
func (p *Pipeline) Order() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)

	return out
}

// Run executes every node in topological order and returns a result once all
// of them have one. Individual node failures are data, recorded in the
// result; Run itself only fails for infrastructural faults such as caller
// cancellation.
func (p *Pipeline) Run(ctx context.Context, inputs map[string]any) (*models.PipelineResult, error) {
	executionID := "exec-" + uuid.New().String()[:8]
	logger := p.logger.With("execution_id", executionID)
	start := time.Now()

	if p.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, p.tracer, "pipeline.run",
			attribute.String(otelhelper.PlanNameKey, p.name),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
		)
		defer span.End()
	}

	logger.Info("Starting pipeline execution", "nodes", len(p.order))
	p.publish(ctx, executionID, events.PipelineStarted{
		BaseEvent:   events.NewBaseEvent(events.PipelineStartedEvent, p.name),
		ExecutionID: executionID,
		NodeCount:   len(p.order),
	})

	result := &models.PipelineResult{
		PipelineName: p.name,
		ExecutionID:  executionID,
		Outputs:      make(map[string]models.NodeResult, len(p.order)),
		Success:      true,
	}

	for _, id := range p.order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline '%s' cancelled: %w", p.name, err)
		}

		node := p.graph.Nodes[id]

		if failedDep, blocked := p.blockedBy(id, result.Outputs); blocked {
			logger.Info("Skipping node, upstream dependency did not succeed",
				"node_id", id, "failed_dependency", failedDep)

			result.Outputs[id] = models.NodeResult{NodeID: id, Skipped: true}
			p.publish(ctx, executionID, events.NodeSkipped{
				BaseEvent:   events.NewBaseEvent(events.NodeSkippedEvent, p.name),
				ExecutionID: executionID,
				NodeID:      id,
				FailedDep:   failedDep,
			})

			continue
		}

		nodeResult := p.runNode(ctx, executionID, node, p.buildPrompt(node, inputs, result.Outputs))

		if nodeResult.Success && p.gate != nil && node.Step.CheckpointPhase != "" {
			approved, err := p.gate.Confirm(ctx, p.workers[id].Name(), node.Step.CheckpointPhase, nodeResult.Output)
			if err != nil {
				return nil, fmt.Errorf("checkpoint for step '%s' failed: %w", id, err)
			}

			if !approved {
				logger.Info("Checkpoint rejected, halting pipeline",
					"node_id", id, "phase", node.Step.CheckpointPhase)

				// The rejected deliverable is withheld, not returned.
				nodeResult.Success = false
				nodeResult.Output = nil
				result.Outputs[id] = nodeResult
				result.Success = false
				result.FinalOutput = nil
				result.Reason = node.Step.CheckpointPhase + " rejected at checkpoint"
				result.TotalDurationMs = time.Since(start).Milliseconds()

				p.publish(ctx, executionID, events.PipelineFinished{
					BaseEvent:   events.NewBaseEvent(events.PipelineFinishedEvent, p.name),
					ExecutionID: executionID,
					Success:     false,
					DurationMs:  result.TotalDurationMs,
				})

				return result, nil
			}
		}

		result.Outputs[id] = nodeResult

		if nodeResult.Success {
			result.FinalOutput = nodeResult.Output
		} else {
			result.Success = false

			p.publish(ctx, executionID, events.NodeFailed{
				BaseEvent:   events.NewBaseEvent(events.NodeFailedEvent, p.name),
				ExecutionID: executionID,
				NodeID:      id,
				Error:       nodeResult.Error,
				Attempts:    nodeResult.Attempts,
			})
		}

		p.publish(ctx, executionID, events.NodeFinished{
			BaseEvent:   events.NewBaseEvent(events.NodeFinishedEvent, p.name),
			ExecutionID: executionID,
			NodeID:      id,
			Result:      nodeResult,
		})
	}

	result.TotalDurationMs = time.Since(start).Milliseconds()

	logger.Info("Pipeline execution finished",
		"success", result.Success, "duration_ms", result.TotalDurationMs)
	p.publish(ctx, executionID, events.PipelineFinished{
		BaseEvent:   events.NewBaseEvent(events.PipelineFinishedEvent, p.name),
		ExecutionID: executionID,
		Success:     result.Success,
		DurationMs:  result.TotalDurationMs,
	})

	return result, nil
}

// blockedBy returns the first dependency whose result is not a success.
// Skipped ancestors block too, which is what propagates a skip transitively
// down a branch.
func (p *Pipeline) blockedBy(id string, outputs map[string]models.NodeResult) (string, bool) {
	for _, dep := range p.graph.Dependencies(id) {
		if res, ok := outputs[dep]; ok && !res.Success {
			return dep, true
		}
	}

	return "", false
}

// runNode executes one node's attempt sequence: up to RetryMax extra
// attempts, each under the node's timeout. Latency covers the whole
// sequence.
func (p *Pipeline) runNode(ctx context.Context, executionID string, node *dag.Node, prompt string) models.NodeResult {
	worker := p.workers[node.ID]

	// Validate rejects negative budgets; the clamp keeps the attempt loop
	// total even for a hand-assembled node.
	maxAttempts := node.RetryMax + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()

	if p.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, p.tracer, "node.run",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.StepNameKey, node.Step.Name),
			attribute.String(otelhelper.RoleKey, string(node.Step.Role)),
		)
		defer span.End()
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p.publish(ctx, executionID, events.NodeStarted{
			BaseEvent:   events.NewBaseEvent(events.NodeStartedEvent, p.name),
			ExecutionID: executionID,
			NodeID:      node.ID,
			Attempt:     attempt,
		})

		output, err := p.runAttempt(ctx, worker, node, prompt)
		if err == nil {
			return models.NodeResult{
				NodeID:    node.ID,
				Output:    output,
				Success:   true,
				Attempts:  attempt,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}

		lastErr = err
		p.logger.Warn("Node attempt failed",
			"node_id", node.ID, "attempt", attempt, "max_attempts", maxAttempts, "error", err)

		if ctx.Err() != nil {
			// The caller is gone; further attempts would fail the same way.
			break
		}
	}

	if p.tracer != nil {
		otelhelper.SetError(trace.SpanFromContext(ctx), lastErr,
			attribute.String(otelhelper.NodeIDKey, node.ID))
	}

	return models.NodeResult{
		NodeID:    node.ID,
		Success:   false,
		Error:     lastErr.Error(),
		Attempts:  maxAttempts,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// runAttempt makes a single worker call under the node's deadline. A timeout
// cancels the in-flight call and counts as one failed attempt.
func (p *Pipeline) runAttempt(ctx context.Context, worker workers.Worker, node *dag.Node, prompt string) (string, error) {
	if node.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		timeout := time.Duration(node.TimeoutSeconds * float64(time.Second))
		ctx, cancel = context.WithTimeout(ctx, timeout)

		defer cancel()
	}

	output, err := worker.Run(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("worker '%s' failed: %w", worker.Name(), err)
	}

	return output, nil
}

// buildPrompt assembles the worker input: the step description, any run
// input, and the outputs of the node's direct dependencies as context.
func (p *Pipeline) buildPrompt(node *dag.Node, inputs map[string]any, outputs map[string]models.NodeResult) string {
	var b strings.Builder

	b.WriteString(node.Step.Description)

	if input, ok := inputs["input"]; ok {
		fmt.Fprintf(&b, "\n\nInput: %v", input)
	}

	deps := p.graph.Dependencies(node.ID)
	for _, dep := range deps {
		if res, ok := outputs[dep]; ok && res.Success {
			fmt.Fprintf(&b, "\n\nResult of '%s':\n%v", dep, res.Output)
		}
	}

	return b.String()
}

func (p *Pipeline) publish(ctx context.Context, key string, event eventbus.Event) {
	if p.bus == nil {
		return
	}

	if err := p.bus.Publish(ctx, key, event); err != nil {
		p.logger.Warn("Failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}
