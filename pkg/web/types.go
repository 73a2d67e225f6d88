// Package web provides HTTP request and response types for the maestro API.
package web

import "github.com/maestrohq/maestro/pkg/models"

// ExecutePlanRequest represents the request body for executing a plan.
type ExecutePlanRequest struct {
	Inputs map[string]any `json:"inputs,omitempty"`
}

// RunProjectRequest represents the request body for running a project brief.
type RunProjectRequest struct {
	Brief     string `json:"brief"      validate:"required,min=3"`
	ProjectID string `json:"project_id" validate:"omitempty,min=1"`
}

// RejectCheckpointRequest carries the reviewer's rejection reason.
type RejectCheckpointRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

// PlanSummary is the list-view shape of a registered plan.
type PlanSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StepCount   int    `json:"step_count"`
}

// PlanResponse is the detail-view shape of a registered plan.
type PlanResponse struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       []models.Step `json:"steps"`
}

// NewPlanResponse flattens a plan into its serializable detail view.
func NewPlanResponse(p *models.Plan) PlanResponse {
	return PlanResponse{
		Name:        p.Name,
		Description: p.Description,
		Steps:       p.Steps(),
	}
}
