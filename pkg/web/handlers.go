// Package web provides HTTP handlers and REST API endpoints for plan and
// project management.
package web

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/dag"
	"github.com/maestrohq/maestro/pkg/engine"
	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/orchestrator"
	"github.com/maestrohq/maestro/pkg/plan"
	"github.com/maestrohq/maestro/pkg/workers"
)

type APIHandlers struct {
	plans       *plan.Registry
	workers     *workers.Registry
	checkpoints *autonomy.Store
	validator   *validator.Validate
	bus         eventbus.EventBus
	logger      *slog.Logger
	tracer      trace.Tracer
	autonomy    models.AutonomyLevel
}

func NewAPIHandlers(
	plans *plan.Registry,
	workers *workers.Registry,
	checkpoints *autonomy.Store,
	validator *validator.Validate,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		plans:       plans,
		workers:     workers,
		checkpoints: checkpoints,
		validator:   validator,
		bus:         bus,
		logger:      logger,
	}
}

// WithTracer attaches a tracer used when executing plans.
func (h *APIHandlers) WithTracer(tracer trace.Tracer) *APIHandlers {
	h.tracer = tracer

	return h
}

// WithAutonomy enables checkpoint gating for executions started through the
// API. Gated runs pause in the checkpoint store until a client resolves them
// through the checkpoint endpoints.
func (h *APIHandlers) WithAutonomy(level models.AutonomyLevel) *APIHandlers {
	h.autonomy = level

	return h
}

// gate builds the approval gate for one execution. Without a configured
// autonomy level executions are ungated.
func (h *APIHandlers) gate() *autonomy.Gate {
	if h.autonomy == "" {
		return nil
	}

	return autonomy.NewGate(h.autonomy, autonomy.NewStoreHandler(h.checkpoints), h.logger)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "Maestro API is healthy",
		"checkers": fiber.Map{
			"plans": len(h.plans.List()),
			"roles": len(h.workers.Roles()),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetPlans(c fiber.Ctx) error {
	names := h.plans.List()

	summaries := make([]PlanSummary, 0, len(names))

	for _, name := range names {
		p, err := h.plans.Get(name)
		if err != nil {
			continue
		}

		summaries = append(summaries, PlanSummary{
			Name:        p.Name,
			Description: p.Description,
			StepCount:   p.Len(),
		})
	}

	return c.JSON(fiber.Map{
		"plans":       summaries,
		"total_count": len(summaries),
	})
}

func (h *APIHandlers) GetPlan(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Plan name is required")
	}

	p, err := h.plans.Get(name)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(NewPlanResponse(p))
}

// GetPlanOrder returns one valid execution order for a plan's steps.
func (h *APIHandlers) GetPlanOrder(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Plan name is required")
	}

	p, err := h.plans.Get(name)
	if err != nil {
		return handleDomainError(c, err)
	}

	graph, err := dag.Build(p)
	if err != nil {
		return handleDomainError(c, err)
	}

	order, err := dag.TopologicalSort(graph)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"plan":  name,
		"order": order,
	})
}

// CreatePlan registers a plan from a JSON document.
func (h *APIHandlers) CreatePlan(c fiber.Ctx) error {
	p, err := plan.Parse(c.Body())
	if err != nil {
		return handleDomainError(c, err)
	}

	if h.plans.Has(p.Name) {
		return conflict(c, "plan already registered: "+p.Name)
	}

	h.plans.Register(p)

	return c.Status(fiber.StatusCreated).JSON(NewPlanResponse(p))
}

// ExecutePlan builds the named plan into a pipeline and runs it to
// completion, returning the full pipeline result.
func (h *APIHandlers) ExecutePlan(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Plan name is required")
	}

	var req ExecutePlanRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}

		if err := h.validator.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	p, err := h.plans.Get(name)
	if err != nil {
		return handleDomainError(c, err)
	}

	pipeline, err := engine.Build(p, h.workers,
		engine.WithEventBus(h.bus),
		engine.WithLogger(h.logger),
		engine.WithTracer(h.tracer),
		engine.WithGate(h.gate()),
	)
	if err != nil {
		return handleDomainError(c, err)
	}

	result, err := pipeline.Run(c.Context(), req.Inputs)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(result)
}

// RunProject runs the three-phase orchestration for a brief and returns the
// batch result.
func (h *APIHandlers) RunProject(c fiber.Ctx) error {
	req, err := h.parseProjectRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	o := h.newOrchestrator(req)

	return c.JSON(o.Run(c.Context(), req.Brief))
}

// StreamProject runs the orchestration while streaming its event sequence
// over server-sent events. Each event is one SSE message whose event field
// is the maestro event type and whose data field is the JSON payload.
func (h *APIHandlers) StreamProject(c fiber.Ctx) error {
	req, err := h.parseProjectRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	o := h.newOrchestrator(req)

	ctx := c.Context()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		for ev := range o.RunStream(ctx, req.Brief) {
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("Failed to encode project event", "error", err)

				continue
			}

			if _, err := w.WriteString("event: " + string(ev.Type) + "\ndata: " + string(payload) + "\n\n"); err != nil {
				return
			}

			if err := w.Flush(); err != nil {
				// Client went away; the orchestrator goroutine is torn
				// down through ctx when the connection closes.
				return
			}
		}
	})
}

func (h *APIHandlers) parseProjectRequest(c fiber.Ctx) (*RunProjectRequest, error) {
	var req RunProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, err
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return &req, nil
}

func (h *APIHandlers) newOrchestrator(req *RunProjectRequest) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithLogger(h.logger),
		orchestrator.WithEventBus(h.bus),
		orchestrator.WithGate(h.gate()),
		orchestrator.WithTracer(h.tracer),
	}
	if req.ProjectID != "" {
		opts = append(opts, orchestrator.WithProjectID(req.ProjectID))
	}

	return orchestrator.New(h.workers, opts...)
}

func (h *APIHandlers) GetCheckpoints(c fiber.Ctx) error {
	pending := h.checkpoints.ListPending()

	return c.JSON(fiber.Map{
		"checkpoints": pending,
		"total_count": len(pending),
	})
}

func (h *APIHandlers) GetCheckpoint(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Checkpoint ID is required")
	}

	checkpoint, err := h.checkpoints.Get(id)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(checkpoint)
}

func (h *APIHandlers) ApproveCheckpoint(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Checkpoint ID is required")
	}

	if err := h.checkpoints.Approve(id); err != nil {
		return handleDomainError(c, err)
	}

	checkpoint, err := h.checkpoints.Get(id)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(checkpoint)
}

func (h *APIHandlers) RejectCheckpoint(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Checkpoint ID is required")
	}

	var req RejectCheckpointRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.checkpoints.Reject(id, req.Reason); err != nil {
		return handleDomainError(c, err)
	}

	checkpoint, err := h.checkpoints.Get(id)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(checkpoint)
}

// RegisterRoutes wires every endpoint onto the fiber app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Get("/plans", h.GetPlans)
	app.Post("/plans", h.CreatePlan)
	app.Get("/plans/:name", h.GetPlan)
	app.Get("/plans/:name/order", h.GetPlanOrder)
	app.Post("/plans/:name/execute", h.ExecutePlan)

	app.Post("/projects", h.RunProject)
	app.Post("/projects/stream", h.StreamProject)

	app.Get("/checkpoints", h.GetCheckpoints)
	app.Get("/checkpoints/:id", h.GetCheckpoint)
	app.Post("/checkpoints/:id/approve", h.ApproveCheckpoint)
	app.Post("/checkpoints/:id/reject", h.RejectCheckpoint)
}
