package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/persistence/file"
	"github.com/planweave/planweave/pkg/pipeline"
	"github.com/planweave/planweave/pkg/registry"
	"github.com/planweave/planweave/pkg/services"
	"github.com/planweave/planweave/pkg/web"
)

type stubPlanner struct {
	result *pipeline.Result
	err    error
}

func (s *stubPlanner) Plan(_ context.Context, _ string) (*pipeline.Result, error) {
	return s.result, s.err
}

func plannedDocument() *models.Document {
	return &models.Document{
		Version: models.DocumentVersion,
		Workflows: []*models.WorkflowGraph{
			{
				Name:        "Order Alerts",
				Description: "Notify the team about new orders",
				Active:      true,
				Data: models.GraphData{
					Nodes: []*models.Node{
						{ID: "node-1", SequenceNumber: 1, Type: models.NodeTypeWebhook, Label: "New Order"},
						{ID: "node-2", SequenceNumber: 2, Type: models.NodeTypeLog, Label: "Record Order"},
					},
					Connections: []*models.Connection{
						{From: "node-1", To: "node-2"},
					},
				},
			},
		},
		Comments: map[string]any{},
	}
}

func setupTestApp(t *testing.T, wp services.WorkflowPlanner) *fiber.App {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	planService := services.NewPlan(wp, store, nil, slog.Default())
	workflowService := services.NewWorkflow(store)
	reg := registry.Default(slog.Default())

	handlers := web.NewAPIHandlers(planService, workflowService,
		validator.New(validator.WithRequiredStructEnabled()), reg)

	app := fiber.New()
	handlers.Register(app)

	return app
}

func postPlan(t *testing.T, app *fiber.App, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/plans/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestCreatePlanAccepted(t *testing.T) {
	wp := &stubPlanner{result: &pipeline.Result{Document: plannedDocument(), NodeCount: 2}}
	app := setupTestApp(t, wp)

	resp := postPlan(t, app, web.CreatePlanRequest{Prompt: "alert the team about new orders"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var planResp services.PlanResponse
	decodeBody(t, resp, &planResp)
	require.NotNil(t, planResp.Workflow)
	assert.Equal(t, "Order Alerts", planResp.Workflow.Name)
	assert.Equal(t, models.PlanSessionAccepted, planResp.Session.Status)

	// The stored workflow is retrievable.
	req := httptest.NewRequest(http.MethodGet, "/workflows/"+planResp.Workflow.ID, nil)
	getResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	// And so is the session record.
	req = httptest.NewRequest(http.MethodGet, "/plans/"+planResp.Session.ID, nil)
	sessionResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, sessionResp.StatusCode)
}

func TestCreatePlanRejected(t *testing.T) {
	wp := &stubPlanner{result: &pipeline.Result{
		Document:  plannedDocument(),
		Defects:   []string{"Circular dependency detected in workflow connections"},
		NodeCount: 2,
	}}
	app := setupTestApp(t, wp)

	resp := postPlan(t, app, web.CreatePlanRequest{Prompt: "loop forever"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var planResp services.PlanResponse
	decodeBody(t, resp, &planResp)
	assert.Nil(t, planResp.Workflow)
	require.Len(t, planResp.Defects, 1)
	assert.Equal(t, models.PlanSessionRejected, planResp.Session.Status)
}

func TestCreatePlanValidation(t *testing.T) {
	app := setupTestApp(t, &stubPlanner{})

	resp := postPlan(t, app, web.CreatePlanRequest{Prompt: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/plans/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	badJSON, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badJSON.StatusCode)
}

func TestCreatePlanUpstreamFailure(t *testing.T) {
	wp := &stubPlanner{err: errors.New("model unavailable")}
	app := setupTestApp(t, wp)

	resp := postPlan(t, app, web.CreatePlanRequest{Prompt: "do a thing"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetWorkflowNotFound(t *testing.T) {
	app := setupTestApp(t, &stubPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	wp := &stubPlanner{result: &pipeline.Result{Document: plannedDocument(), NodeCount: 2}}
	app := setupTestApp(t, wp)

	created := postPlan(t, app, web.CreatePlanRequest{Prompt: "alert the team"})

	var planResp services.PlanResponse
	decodeBody(t, created, &planResp)
	require.NotNil(t, planResp.Workflow)

	req := httptest.NewRequest(http.MethodDelete, "/workflows/"+planResp.Workflow.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, "/workflows/"+planResp.Workflow.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetIntegrations(t *testing.T) {
	app := setupTestApp(t, &stubPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/integrations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Integrations []web.IntegrationResponse `json:"integrations"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Integrations)

	byType := make(map[string]web.IntegrationResponse)
	for _, integration := range body.Integrations {
		byType[integration.TypeName] = integration
	}

	email, ok := byType["Email"]
	require.True(t, ok)
	assert.Equal(t, 48, email.ID)
	assert.Equal(t, "send_email", email.DefaultTask)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t, &stubPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}
