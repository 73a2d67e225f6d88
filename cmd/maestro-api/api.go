// Package main provides the Maestro API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/plan"
	"github.com/maestrohq/maestro/pkg/web"
	"github.com/maestrohq/maestro/pkg/workers"
)

type API struct {
	logger      *slog.Logger
	plans       *plan.Registry
	workers     *workers.Registry
	checkpoints *autonomy.Store
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	tracer      trace.Tracer
	autonomy    models.AutonomyLevel
}

func NewAPI(
	logger *slog.Logger,
	plans *plan.Registry,
	workers *workers.Registry,
	checkpoints *autonomy.Store,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		plans:       plans,
		workers:     workers,
		checkpoints: checkpoints,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithTracer attaches a tracer propagated to plan executions.
func (a *API) WithTracer(tracer trace.Tracer) *API {
	a.tracer = tracer

	return a
}

// WithAutonomy sets the autonomy level applied to executions started through
// the API.
func (a *API) WithAutonomy(level models.AutonomyLevel) *API {
	a.autonomy = level

	return a
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.plans, a.workers, a.checkpoints, a.validate, a.eventBus, a.logger).
		WithTracer(a.tracer).
		WithAutonomy(a.autonomy)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Maestro API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
