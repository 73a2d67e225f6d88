package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/plan"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleDomainError maps domain sentinel errors to problem responses.
func handleDomainError(c fiber.Ctx, err error) error {
	switch {
	case models.IsStructuralError(err), errors.Is(err, models.ErrUnknownRole):
		return badRequest(c, err.Error())

	case errors.Is(err, plan.ErrPlanNotFound):
		return notFound(c, "plan not found")

	case errors.Is(err, models.ErrStepNotFound):
		return notFound(c, "step not found")

	case errors.Is(err, autonomy.ErrCheckpointNotFound):
		return notFound(c, "checkpoint not found")

	case errors.Is(err, autonomy.ErrCheckpointResolved):
		return conflict(c, err.Error())

	default:
		return internalError(c, err)
	}
}
