// Command planweave-registry inspects the integration catalog the planner
// wires workflows against.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"github.com/planweave/planweave/pkg/cmd"
	"github.com/planweave/planweave/pkg/log"
	"github.com/planweave/planweave/pkg/registry"
)

func main() {
	logger := log.WithModule("registry")

	command := &cli.Command{
		Name:  "planweave-registry",
		Usage: "Inspect the integration catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog-source",
				Usage:   "Integration catalog source (JSON file path or postgres URL, empty for built-in)",
				Sources: cli.EnvVars("CATALOG_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Output format (table, json)",
				Value:   "table",
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

			reg, _, err := cmd.NewRegistry(ctx, logger, command.String("catalog-source"))
			if err != nil {
				return err
			}

			families := reg.Families()

			if command.String("format") == "json" {
				output, err := json.MarshalIndent(families, "", "  ")
				if err != nil {
					return err
				}

				fmt.Println(string(output))

				return nil
			}

			printCatalogTable(families)

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Catalog inspection failed", "error", err)
		os.Exit(1)
	}
}

func printCatalogTable(families []registry.Family) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tKEYWORD\tDEFAULT TASK\tTASKS")

	for _, family := range families {
		tasks := make([]string, 0, len(family.Tasks))
		for _, task := range family.Tasks {
			tasks = append(tasks, task.Name)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			family.ID, family.TypeName, family.Keyword,
			family.DefaultTask, strings.Join(tasks, ", "))
	}

	_ = w.Flush()
}
