// Package orchestrator coordinates multi-worker collaboration on a project
// brief: a manager decomposes the brief, specialist workers execute tasks
// over a shared workspace, and a manager synthesizes the deliverable.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/events"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/otelhelper"
	"github.com/maestrohq/maestro/pkg/workers"
)

// eventBuffer bounds the streaming channel so a slow consumer backpressures
// the producer instead of growing memory.
const eventBuffer = 64

// Result is the batch outcome of one orchestrator run.
type Result struct {
	Success      bool           `json:"success"`
	Deliverables map[string]any `json:"deliverables"`
	DurationMs   int64          `json:"duration_ms"`
}

// Orchestrator runs the fixed three-phase project workflow:
// decompose, execute, synthesize. Tasks execute strictly in decomposition
// order because each one reads the workspace written by its predecessors.
type Orchestrator struct {
	registry  *workers.Registry
	strategy  Strategy
	workspace *Workspace
	projectID string
	logger    *slog.Logger
	bus       eventbus.EventBus
	gate      *autonomy.Gate
	tracer    trace.Tracer
}

type Option func(*Orchestrator)

// WithStrategy overrides the default worker-backed decomposition strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Orchestrator) {
		o.strategy = s
	}
}

// WithProjectID names the project; it scopes the workspace and worker names.
func WithProjectID(id string) Option {
	return func(o *Orchestrator) {
		o.projectID = id
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithEventBus mirrors streamed events onto a bus for other consumers.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(o *Orchestrator) {
		o.bus = bus
	}
}

// WithGate holds the final deliverable at an approval checkpoint before the
// project completes. Without a gate the deliverable is released directly.
func WithGate(gate *autonomy.Gate) Option {
	return func(o *Orchestrator) {
		o.gate = gate
	}
}

// WithTracer records a span per project run and per phase.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

func New(registry *workers.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		projectID: "default",
		logger:    slog.Default().With("module", "orchestrator"),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.strategy == nil {
		o.strategy = NewWorkerStrategy(registry)
	}

	o.workspace = NewWorkspace(o.projectID)
	o.logger = o.logger.With("project_id", o.projectID)

	return o
}

// Workspace returns the project's shared fact store.
func (o *Orchestrator) Workspace() *Workspace {
	return o.workspace
}

// Run executes all three phases and returns the batch result. Per-task
// failures and synthesis failures are recorded in the deliverables, not
// raised; only caller cancellation fails the run outright.
func (o *Orchestrator) Run(ctx context.Context, brief string) *Result {
	start := time.Now()

	if o.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, o.tracer, "project.run",
			attribute.String(otelhelper.ProjectIDKey, o.projectID))
		defer span.End()
	}

	tasks := o.decompose(ctx, brief)
	taskResults := o.executeTasks(ctx, brief, tasks, nil)
	deliverables := o.synthesize(ctx, brief, taskResults)

	success := ctx.Err() == nil
	if !success {
		o.logger.Error("Project run cancelled", "error", ctx.Err())
		deliverables = map[string]any{"error": ctx.Err().Error()}
	}

	if success {
		approved, err := o.confirmFinal(ctx, &deliverables)
		if err != nil {
			success = false
			deliverables = map[string]any{"error": err.Error()}
		} else {
			success = approved
		}
	}

	return &Result{
		Success:      success,
		Deliverables: deliverables,
		DurationMs:   time.Since(start).Milliseconds(),
	}
}

// confirmFinal holds the synthesized deliverables at the final_output
// checkpoint. On rejection the deliverables are withheld and replaced with
// the rejection reason.
func (o *Orchestrator) confirmFinal(ctx context.Context, deliverables *map[string]any) (bool, error) {
	if o.gate == nil {
		return true, nil
	}

	approved, err := o.gate.Confirm(ctx, "manager-synthesis-"+o.projectID, "final_output", *deliverables)
	if err != nil {
		return false, err
	}

	if !approved {
		o.logger.Info("Final deliverable rejected at checkpoint")
		*deliverables = map[string]any{"reason": "final_output rejected at checkpoint"}
	}

	return approved, nil
}

// RunStream executes the project while emitting the ordered event sequence.
// The returned channel is closed when the run finishes or ctx is cancelled;
// the producer goroutine never outlives the consumer's context.
func (o *Orchestrator) RunStream(ctx context.Context, brief string) <-chan events.ProjectEvent {
	out := make(chan events.ProjectEvent, eventBuffer)

	go func() {
		defer close(out)

		start := time.Now()

		if o.tracer != nil {
			var span trace.Span

			ctx, span = otelhelper.StartSpan(ctx, o.tracer, "project.run",
				attribute.String(otelhelper.ProjectIDKey, o.projectID))
			defer span.End()
		}

		emit := func(ev events.ProjectEvent) bool {
			if o.bus != nil {
				if err := o.bus.Publish(ctx, o.projectID, ev); err != nil {
					o.logger.Warn("Failed to publish project event", "error", err)
				}
			}

			select {
			case out <- ev:
				return true
			default:
			}

			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(events.ProjectEvent{
			Type:     events.ProjectStartEvent,
			Content:  o.projectID,
			Metadata: map[string]any{"brief": truncate(brief, 200)},
		}) {
			return
		}

		// Phase 1: decompose.
		emit(events.ProjectEvent{Type: events.PhaseStartEvent, Content: "decomposition"})
		tasks := o.decompose(ctx, brief)
		emit(events.ProjectEvent{
			Type:     events.PhaseCompleteEvent,
			Content:  "decomposition",
			Metadata: map[string]any{"tasks": len(tasks)},
		})

		if ctx.Err() != nil {
			emit(events.ProjectEvent{Type: events.ProjectErrorEvent, Content: ctx.Err().Error()})

			return
		}

		// Phase 2: execute.
		emit(events.ProjectEvent{Type: events.PhaseStartEvent, Content: "execution"})
		taskResults := o.executeTasks(ctx, brief, tasks, emit)
		emit(events.ProjectEvent{Type: events.PhaseCompleteEvent, Content: "execution"})

		if ctx.Err() != nil {
			emit(events.ProjectEvent{Type: events.ProjectErrorEvent, Content: ctx.Err().Error()})

			return
		}

		// Phase 3: synthesize.
		emit(events.ProjectEvent{Type: events.PhaseStartEvent, Content: "synthesis"})
		deliverables := o.synthesize(ctx, brief, taskResults)
		emit(events.ProjectEvent{Type: events.PhaseCompleteEvent, Content: "synthesis"})

		approved, err := o.confirmFinal(ctx, &deliverables)
		if err != nil {
			emit(events.ProjectEvent{Type: events.ProjectErrorEvent, Content: err.Error()})

			return
		}

		metadata := map[string]any{
			"success":     approved,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if !approved {
			metadata["reason"] = deliverables["reason"]
		}

		emit(events.ProjectEvent{
			Type:     events.ProjectCompleteEvent,
			Content:  o.projectID,
			Metadata: metadata,
		})
	}()

	return out
}

// decompose turns the brief into role-tagged tasks. Any strategy failure,
// and a strategy that succeeds with zero tasks, falls back to the
// deterministic two-task split.
func (o *Orchestrator) decompose(ctx context.Context, brief string) []Task {
	ctx, end := o.startPhase(ctx, "decomposition")
	defer end()

	tasks, err := o.strategy.Decompose(ctx, brief)
	if err != nil {
		o.logger.Warn("Decomposition failed, falling back to two-task split", "error", err)

		return FallbackTasks(brief)
	}

	if len(tasks) == 0 {
		o.logger.Warn("Decomposition yielded no tasks, falling back to two-task split")

		return FallbackTasks(brief)
	}

	return tasks
}

type emitFunc func(events.ProjectEvent) bool

// executeTasks runs every task sequentially, isolating failures: a failed
// task is recorded as {"error": msg} and its siblings still run.
func (o *Orchestrator) executeTasks(ctx context.Context, brief string, tasks []Task, emit emitFunc) map[string]any {
	ctx, end := o.startPhase(ctx, "execution")
	defer end()

	results := make(map[string]any, len(tasks))

	for i, task := range tasks {
		key := fmt.Sprintf("task_%d", i)

		if emit != nil {
			emit(events.ProjectEvent{
				Type:     events.TaskAssignedEvent,
				Content:  task.Description,
				Metadata: map[string]any{"worker_role": string(task.Role), "task_index": i},
			})
		}

		output, err := o.executeSingleTask(ctx, task)
		if err != nil {
			o.logger.Warn("Task failed", "task_index", i, "role", string(task.Role), "error", err)
			results[key] = map[string]any{"error": err.Error()}

			if emit != nil {
				emit(events.ProjectEvent{
					Type:     events.TaskErrorEvent,
					Content:  err.Error(),
					Metadata: map[string]any{"worker_role": string(task.Role), "task_index": i},
				})
			}

			continue
		}

		results[key] = output
		o.workspace.SetFact(key+"_result", output)

		if emit != nil {
			emit(events.ProjectEvent{
				Type:     events.TaskCompleteEvent,
				Content:  task.Description,
				Metadata: map[string]any{"worker_role": string(task.Role), "task_index": i},
			})
		}
	}

	return results
}

// executeSingleTask resolves the task's worker and runs it with the shared
// workspace context appended to the prompt.
func (o *Orchestrator) executeSingleTask(ctx context.Context, task Task) (string, error) {
	worker, err := o.registry.Create(task.Role, fmt.Sprintf("%s-%s", task.Role, o.projectID))
	if err != nil {
		return "", err
	}

	prompt := task.Description
	if context := o.workspace.GetContext(); context != "" {
		prompt = fmt.Sprintf("%s\n\nShared workspace context:\n%s", task.Description, context)
	}

	return worker.Run(ctx, prompt)
}

// synthesize asks a manager worker for the final deliverable. A synthesis
// failure degrades to the collected task results plus a synthesis_error
// field rather than failing the project.
func (o *Orchestrator) synthesize(ctx context.Context, brief string, taskResults map[string]any) map[string]any {
	ctx, end := o.startPhase(ctx, "synthesis")
	defer end()

	manager, err := o.registry.Create(models.RoleManager, "manager-synthesis-"+o.projectID)
	if err != nil {
		o.logger.Warn("Synthesis worker unavailable", "error", err)

		return map[string]any{"task_results": taskResults, "synthesis_error": err.Error()}
	}

	prompt := o.synthesisPrompt(brief, taskResults)

	output, err := manager.Run(ctx, prompt)
	if err != nil {
		o.logger.Warn("Synthesis failed", "error", err)

		return map[string]any{"task_results": taskResults, "synthesis_error": err.Error()}
	}

	return map[string]any{"summary": output, "task_results": taskResults}
}

func (o *Orchestrator) synthesisPrompt(brief string, taskResults map[string]any) string {
	var summary string
	for i := 0; i < len(taskResults); i++ {
		key := fmt.Sprintf("task_%d", i)
		summary += fmt.Sprintf("Task %s: %v\n", key, taskResults[key])
	}

	prompt := fmt.Sprintf("Original brief: %s\n\nTask results:\n%s\n", brief, summary)
	if context := o.workspace.GetContext(); context != "" {
		prompt += fmt.Sprintf("Workspace context:\n%s\n\n", context)
	}

	prompt += "Please synthesize a final deliverable from these results."

	return prompt
}

// startPhase opens a span for one project phase. Without a tracer it is a
// no-op.
func (o *Orchestrator) startPhase(ctx context.Context, phase string) (context.Context, func()) {
	if o.tracer == nil {
		return ctx, func() {}
	}

	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "project.phase",
		attribute.String(otelhelper.ProjectIDKey, o.projectID),
		attribute.String(otelhelper.PhaseKey, phase),
	)

	return ctx, func() { span.End() }
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
