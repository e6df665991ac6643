package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/planweave/planweave/pkg/cache"
	"github.com/planweave/planweave/pkg/cmd"
	"github.com/planweave/planweave/pkg/config"
	"github.com/planweave/planweave/pkg/log"
	"github.com/planweave/planweave/pkg/modelclient"
	"github.com/planweave/planweave/pkg/otelhelper"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "planweave-api",
		Usage:                 "Generate and manage workflows from natural-language prompts",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PLANWEAVE_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file path or postgres URL)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (gochannel, kafka)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "model-api-key",
				Usage:   "API key for the model provider",
				Sources: cli.EnvVars("MODEL_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "model-base-url",
				Usage:   "Base URL of the model provider API",
				Sources: cli.EnvVars("MODEL_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Model name used for plan generation",
				Sources: cli.EnvVars("MODEL_NAME"),
			},
			&cli.StringFlag{
				Name:    "catalog-source",
				Usage:   "Integration catalog source (JSON file path or postgres URL, empty for built-in)",
				Sources: cli.EnvVars("CATALOG_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "catalog-refresh",
				Usage:   "Cron schedule for catalog reloads (empty disables)",
				Sources: cli.EnvVars("CATALOG_REFRESH_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the plan cache (empty disables caching)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "Plan cache entry lifetime",
				Sources: cli.EnvVars("PLAN_CACHE_TTL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces (configure the exporter via OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			log.Setup(cfg.LogLevel)

			logger.InfoContext(ctx, "Initializing Planweave API")

			reg, source, err := cmd.NewRegistry(ctx, logger, cfg.Catalog.Source)
			if err != nil {
				return err
			}

			refresher, err := cmd.NewRegistryRefresher(
				ctx, reg, source, cfg.Catalog.RefreshSchedule, logger)
			if err != nil {
				return err
			}

			if refresher != nil {
				defer refresher.Stop()
			}

			store, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(cfg.EventBus, "planweave-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			client, err := modelclient.NewClient(modelclient.Config{
				BaseURL:     cfg.Model.BaseURL,
				APIKey:      cfg.Model.APIKey,
				Model:       cfg.Model.Name,
				Temperature: cfg.Model.Temperature,
				MaxTokens:   cfg.Model.MaxTokens,
			}, logger)
			if err != nil {
				return err
			}

			var planCache *cache.PlanCache
			if cfg.RedisURL != "" {
				planCache, err = cache.NewPlanCache(cfg.RedisURL, cfg.CacheTTL, logger)
				if err != nil {
					return err
				}

				defer func() {
					if err := planCache.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close plan cache", "error", err)
					}
				}()
			}

			api := NewAPI(logger, store, reg, eventBus, client, planCache, cfg.Model.Name)

			if cfg.Tracing {
				tracer, err := otelhelper.NewTracer(ctx, "planweave-api")
				if err != nil {
					return err
				}

				api.WithTracer(tracer)
			}

			return api.Start(cfg.Port)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

// loadConfig merges the optional config file with explicit flags. Flags win
// over the file; the file wins over built-in defaults.
func loadConfig(command *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if command.IsSet("port") {
		cfg.Port = command.Int("port")
	}

	if command.IsSet("database-url") {
		cfg.DatabaseURL = command.String("database-url")
	}

	if command.IsSet("event-bus") {
		cfg.EventBus = command.String("event-bus")
	}

	if command.IsSet("model-api-key") {
		cfg.Model.APIKey = command.String("model-api-key")
	}

	if command.IsSet("model-base-url") {
		cfg.Model.BaseURL = command.String("model-base-url")
	}

	if command.IsSet("model") {
		cfg.Model.Name = command.String("model")
	}

	if command.IsSet("catalog-source") {
		cfg.Catalog.Source = command.String("catalog-source")
	}

	if command.IsSet("catalog-refresh") {
		cfg.Catalog.RefreshSchedule = command.String("catalog-refresh")
	}

	if command.IsSet("redis-url") {
		cfg.RedisURL = command.String("redis-url")
	}

	if command.IsSet("cache-ttl") {
		cfg.CacheTTL = command.Duration("cache-ttl")
	}

	if command.IsSet("tracing") {
		cfg.Tracing = command.Bool("tracing")
	}

	if command.IsSet("log-level") {
		cfg.LogLevel = command.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
