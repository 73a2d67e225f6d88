package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/plan"
	"github.com/maestrohq/maestro/pkg/web"
	"github.com/maestrohq/maestro/pkg/workers"
)

func setupTestApp(t *testing.T) (*fiber.App, *autonomy.Store) {
	t.Helper()

	return setupApp(t, "")
}

// setupGatedApp builds an app whose executions pause at checkpoint phases
// under the given autonomy level.
func setupGatedApp(t *testing.T, level models.AutonomyLevel) (*fiber.App, *autonomy.Store) {
	t.Helper()

	return setupApp(t, level)
}

func setupApp(t *testing.T, level models.AutonomyLevel) (*fiber.App, *autonomy.Store) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	plans := plan.NewRegistry()
	plan.RegisterTemplates(plans)

	registry := workers.NewRegistry(logger)
	for _, role := range models.Roles() {
		role := role
		registry.Register(role, func(name string) (workers.Worker, error) {
			return workers.NewCallableWorker(name, func(_ context.Context, _ string) (string, error) {
				return fmt.Sprintf("%s output", role), nil
			}), nil
		})
	}

	checkpoints := autonomy.NewStore()

	handlers := web.NewAPIHandlers(plans, registry, checkpoints,
		validator.New(validator.WithRequiredStructEnabled()), nil, logger).
		WithAutonomy(level)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app, checkpoints
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestGetPlans(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/plans", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Plans      []web.PlanSummary `json:"plans"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 4, list.TotalCount)

	names := make([]string, 0, len(list.Plans))
	for _, p := range list.Plans {
		names = append(names, p.Name)
	}

	assert.Contains(t, names, "market-analysis")
}

func TestGetPlan(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/plans/market-analysis", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail web.PlanResponse
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "market-analysis", detail.Name)
	assert.Len(t, detail.Steps, 6)
}

func TestGetPlan_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/plans/no-such-plan", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPlanOrder(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/plans/market-analysis/order", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Plan  string   `json:"plan"`
		Order []string `json:"order"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Len(t, result.Order, 6)

	// Dependencies come before dependents.
	pos := make(map[string]int, len(result.Order))
	for i, id := range result.Order {
		pos[id] = i
	}

	assert.Less(t, pos["define-scope"], pos["research-competitors"])
	assert.Less(t, pos["analyze-market-data"], pos["strategy-report"])
	assert.Less(t, pos["strategy-report"], pos["executive-review"])
}

func TestCreatePlan(t *testing.T) {
	app, _ := setupTestApp(t)

	doc := map[string]any{
		"name":        "quick-check",
		"description": "One-step check",
		"steps": []map[string]any{
			{"id": "check", "name": "Check", "role": "analyst"},
		},
	}

	resp, body := doJSON(t, app, http.MethodPost, "/plans", doc)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created web.PlanResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "quick-check", created.Name)

	// Registering the same name again conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/plans", doc)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreatePlan_InvalidDocument(t *testing.T) {
	app, _ := setupTestApp(t)

	doc := map[string]any{
		"name": "broken",
		"steps": []map[string]any{
			{"id": "a", "name": "A", "role": "analyst", "depends_on": []string{"ghost"}},
		},
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/plans", doc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecutePlan(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/plans/market-analysis/execute",
		web.ExecutePlanRequest{Inputs: map[string]any{"input": "EV charging market"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.PipelineResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Success)
	assert.Equal(t, "market-analysis", result.PipelineName)
	assert.Len(t, result.Outputs, 6)
	assert.NotEmpty(t, result.FinalOutput)
}

func TestExecutePlan_UnknownPlan(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/plans/nope/execute", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunProject(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/projects",
		web.RunProjectRequest{Brief: "Assess the laptop refresh options", ProjectID: "proj-7"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Success      bool           `json:"success"`
		Deliverables map[string]any `json:"deliverables"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Success)
	assert.Contains(t, result.Deliverables, "summary")
	assert.Contains(t, result.Deliverables, "task_results")
}

// runProjectAsync fires a project run in the background so the test can
// resolve the checkpoint it blocks on.
func runProjectAsync(t *testing.T, app *fiber.App, req web.RunProjectRequest) <-chan projectRunOutcome {
	t.Helper()

	out := make(chan projectRunOutcome, 1)

	go func() {
		payload, err := json.Marshal(req)
		if err != nil {
			out <- projectRunOutcome{err: err}

			return
		}

		httpReq := httptest.NewRequest(http.MethodPost, "/projects", bytes.NewReader(payload))
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(httpReq, fiber.TestConfig{Timeout: 10 * time.Second})
		if err != nil {
			out <- projectRunOutcome{err: err}

			return
		}

		raw, err := io.ReadAll(resp.Body)
		out <- projectRunOutcome{resp: resp, body: raw, err: err}
	}()

	return out
}

type projectRunOutcome struct {
	resp *http.Response
	body []byte
	err  error
}

func awaitFinalCheckpoint(t *testing.T, store *autonomy.Store) string {
	t.Helper()

	var id string

	require.Eventually(t, func() bool {
		pending := store.ListPending()
		if len(pending) != 1 || pending[0].Phase != "final_output" {
			return false
		}

		id = pending[0].ID

		return true
	}, 5*time.Second, 10*time.Millisecond)

	return id
}

func TestRunProject_GatedCompletesOnApproval(t *testing.T) {
	app, store := setupGatedApp(t, models.AutonomySemiSupervised)

	outcome := runProjectAsync(t, app, web.RunProjectRequest{
		Brief:     "Evaluate the vendor shortlist",
		ProjectID: "gated-approve",
	})

	id := awaitFinalCheckpoint(t, store)
	require.NoError(t, store.Approve(id))

	select {
	case got := <-outcome:
		require.NoError(t, got.err)
		assert.Equal(t, http.StatusOK, got.resp.StatusCode)

		var result struct {
			Success      bool           `json:"success"`
			Deliverables map[string]any `json:"deliverables"`
		}
		require.NoError(t, json.Unmarshal(got.body, &result))
		assert.True(t, result.Success)
		assert.Contains(t, result.Deliverables, "summary")
	case <-time.After(10 * time.Second):
		t.Fatal("gated project run did not complete after approval")
	}
}

func TestRunProject_GatedWithheldOnRejection(t *testing.T) {
	app, store := setupGatedApp(t, models.AutonomySemiSupervised)

	outcome := runProjectAsync(t, app, web.RunProjectRequest{
		Brief:     "Evaluate the vendor shortlist",
		ProjectID: "gated-reject",
	})

	id := awaitFinalCheckpoint(t, store)
	require.NoError(t, store.Reject(id, "needs a pricing breakdown"))

	select {
	case got := <-outcome:
		require.NoError(t, got.err)
		assert.Equal(t, http.StatusOK, got.resp.StatusCode)

		var result struct {
			Success      bool           `json:"success"`
			Deliverables map[string]any `json:"deliverables"`
		}
		require.NoError(t, json.Unmarshal(got.body, &result))
		assert.False(t, result.Success)
		assert.Equal(t, "final_output rejected at checkpoint", result.Deliverables["reason"])
		assert.NotContains(t, result.Deliverables, "summary")
	case <-time.After(10 * time.Second):
		t.Fatal("gated project run did not complete after rejection")
	}
}

func TestRunProject_MissingBrief(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/projects", web.RunProjectRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckpointLifecycle(t *testing.T) {
	app, store := setupTestApp(t)

	cp, err := store.Submit("cp-1", map[string]any{"doc": "draft"}, "analyst-1", "deliverable")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/checkpoints", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var pending struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &pending))
	assert.Equal(t, 1, pending.TotalCount)

	resp, body = doJSON(t, app, http.MethodPost, "/checkpoints/"+cp.ID+"/approve", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var approved models.Checkpoint
	require.NoError(t, json.Unmarshal(body, &approved))
	assert.Equal(t, models.CheckpointApproved, approved.Status)

	// Approving a resolved checkpoint conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/checkpoints/"+cp.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRejectCheckpoint(t *testing.T) {
	app, store := setupTestApp(t)

	cp, err := store.Submit("cp-2", "draft", "analyst-1", "pre_render")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/checkpoints/"+cp.ID+"/reject",
		web.RejectCheckpointRequest{Reason: "missing cost analysis"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rejected models.Checkpoint
	require.NoError(t, json.Unmarshal(body, &rejected))
	assert.Equal(t, models.CheckpointRejected, rejected.Status)
	assert.Equal(t, "missing cost analysis", rejected.RejectionReason)
}

func TestCheckpoint_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/checkpoints/ghost/approve", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/checkpoints/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
