// Command planweave-plan generates a single workflow from a prompt and
// prints the outcome as JSON. Accepted plans are stored in the configured
// database; rejections exit non-zero with the defect list.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/planweave/planweave/pkg/cmd"
	"github.com/planweave/planweave/pkg/log"
	"github.com/planweave/planweave/pkg/modelclient"
	"github.com/planweave/planweave/pkg/pipeline"
	"github.com/planweave/planweave/pkg/planner"
	"github.com/planweave/planweave/pkg/services"
)

func main() {
	logger := log.WithModule("plan")

	command := &cli.Command{
		Name:      "planweave-plan",
		Usage:     "Generate one workflow from a natural-language prompt",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file path or postgres URL)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "model-api-key",
				Usage:    "API key for the model provider",
				Required: true,
				Sources:  cli.EnvVars("MODEL_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "model-base-url",
				Usage:   "Base URL of the model provider API",
				Sources: cli.EnvVars("MODEL_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Model name used for plan generation",
				Value:   "gpt-4o",
				Sources: cli.EnvVars("MODEL_NAME"),
			},
			&cli.StringFlag{
				Name:    "catalog-source",
				Usage:   "Integration catalog source (JSON file path or postgres URL, empty for built-in)",
				Sources: cli.EnvVars("CATALOG_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "category",
				Usage:   "Category recorded on the generated workflow",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			prompt := strings.TrimSpace(strings.Join(command.Args().Slice(), " "))
			if prompt == "" {
				return cli.Exit("a prompt is required", 2)
			}

			reg, _, err := cmd.NewRegistry(ctx, logger, command.String("catalog-source"))
			if err != nil {
				return err
			}

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			client, err := modelclient.NewClient(modelclient.Config{
				BaseURL: command.String("model-base-url"),
				APIKey:  command.String("model-api-key"),
				Model:   command.String("model"),
			}, logger)
			if err != nil {
				return err
			}

			pipe := pipeline.New(reg, logger)
			wp := planner.New(client, reg, pipe, logger)
			planService := services.NewPlan(wp, store, nil, logger).
				WithModelInfo("openai", command.String("model"))

			resp, err := planService.Generate(ctx, services.PlanRequest{
				Prompt:   prompt,
				Category: command.String("category"),
			})
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(output))

			if !resp.Accepted() {
				return cli.Exit("", 1)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			if message := exitErr.Error(); message != "" {
				fmt.Fprintln(os.Stderr, message)
			}

			os.Exit(exitErr.ExitCode())
		}

		logger.Error("Planning failed", "error", err)
		os.Exit(1)
	}
}
