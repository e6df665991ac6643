package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/planweave/planweave/pkg/registry"
	"github.com/planweave/planweave/pkg/services"
)

// APIHandlers implements the planning API endpoints.
type APIHandlers struct {
	planService     *services.Plan
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	planService *services.Plan,
	workflowService *services.Workflow,
	validator *validator.Validate,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		planService:     planService,
		workflowService: workflowService,
		validator:       validator,
		registry:        reg,
	}
}

// Register mounts all routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	plans := app.Group("/plans")
	plans.Post("/", h.CreatePlan)
	plans.Get("/", h.GetPlanSessions)
	plans.Get("/:id", h.GetPlanSession)

	workflows := app.Group("/workflows")
	workflows.Get("/", h.GetWorkflows)
	workflows.Get("/:id", h.GetWorkflow)
	workflows.Delete("/:id", h.DeleteWorkflow)

	app.Get("/integrations", h.GetIntegrations)
	app.Get("/health", h.HealthCheck)
}

// CreatePlan generates a workflow from a natural-language prompt. Accepted
// plans return 201 with the stored workflow; candidates that kept defects
// after repair return 422 with the defect list.
func (h *APIHandlers) CreatePlan(c fiber.Ctx) error {
	var req CreatePlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.planService.Generate(c.Context(), services.PlanRequest{
		Prompt:   req.Prompt,
		Category: req.Category,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	if !resp.Accepted() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) GetPlanSessions(c fiber.Ctx) error {
	sessions, err := h.planService.ListSessions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *APIHandlers) GetPlanSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	session, err := h.planService.GetSession(c.Context(), id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return notFound(c, "Planning session not found")
		}

		return internalError(c, err)
	}

	return c.JSON(session)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetIntegrations returns the catalog the planner wires integration nodes
// against.
func (h *APIHandlers) GetIntegrations(c fiber.Ctx) error {
	families := h.registry.Families()
	integrations := make([]IntegrationResponse, 0, len(families))

	for _, family := range families {
		tasks := make([]string, 0, len(family.Tasks))
		for _, task := range family.Tasks {
			tasks = append(tasks, task.Name)
		}

		integrations = append(integrations, IntegrationResponse{
			ID:          family.ID,
			Keyword:     family.Keyword,
			TypeName:    family.TypeName,
			DefaultTask: family.DefaultTask,
			Tasks:       tasks,
		})
	}

	return c.JSON(fiber.Map{"integrations": integrations})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Planweave API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Planweave API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
