// Package main provides the Planweave API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/planweave/planweave/pkg/cache"
	"github.com/planweave/planweave/pkg/eventbus"
	"github.com/planweave/planweave/pkg/modelclient"
	"github.com/planweave/planweave/pkg/persistence"
	"github.com/planweave/planweave/pkg/pipeline"
	"github.com/planweave/planweave/pkg/planner"
	"github.com/planweave/planweave/pkg/registry"
	"github.com/planweave/planweave/pkg/services"
	"github.com/planweave/planweave/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	client      *modelclient.Client
	planCache   *cache.PlanCache
	modelName   string
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
	client *modelclient.Client,
	planCache *cache.PlanCache,
	modelName string,
) *API {
	return &API{
		logger:      logger,
		persistence: store,
		registry:    reg,
		eventBus:    eventBus,
		client:      client,
		planCache:   planCache,
		modelName:   modelName,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithTracer enables tracing for the pipeline and the plan service.
func (a *API) WithTracer(tracer trace.Tracer) *API {
	a.tracer = tracer

	return a
}

func (a *API) App() *fiber.App {
	var pipelineOpts []pipeline.Option
	if a.tracer != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithTracer(a.tracer))
	}

	pipe := pipeline.New(a.registry, a.logger, pipelineOpts...)
	wp := planner.New(a.client, a.registry, pipe, a.logger)

	planService := services.NewPlan(wp, a.persistence, a.eventBus, a.logger).
		WithModelInfo("openai", a.modelName)
	if a.planCache != nil {
		planService.WithCache(a.planCache)
	}

	if a.tracer != nil {
		planService.WithTracer(a.tracer)
	}

	workflowService := services.NewWorkflow(a.persistence)

	handlers := web.NewAPIHandlers(planService, workflowService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Planweave API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
