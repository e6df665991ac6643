// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planweave/planweave/pkg/registry"
)

// NewRegistry creates the integration catalog. An empty catalogSource uses
// the built-in defaults; a path loads a JSON catalog file; a postgres URL
// reads the integrations tables.
func NewRegistry(ctx context.Context, logger *slog.Logger, catalogSource string) (*registry.Registry, registry.Source, error) {
	if catalogSource == "" {
		return registry.Default(logger), nil, nil
	}

	source, err := newCatalogSource(ctx, catalogSource)
	if err != nil {
		return nil, nil, err
	}

	families, err := source.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load integration catalog: %w", err)
	}

	return registry.New(logger, families), source, nil
}

// NewRegistryRefresher starts periodic catalog reloads on the given cron
// schedule. A nil source (built-in catalog) needs no refresher.
func NewRegistryRefresher(
	ctx context.Context,
	reg *registry.Registry,
	source registry.Source,
	schedule string,
	logger *slog.Logger,
) (*registry.Refresher, error) {
	if source == nil || schedule == "" {
		return nil, nil
	}

	refresher := registry.NewRefresher(reg, source, logger)
	if err := refresher.Start(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to start catalog refresher: %w", err)
	}

	return refresher, nil
}

func newCatalogSource(ctx context.Context, catalogSource string) (registry.Source, error) {
	if parsePersistenceProvider(catalogSource) == "postgresql" {
		source, err := registry.NewPostgresSource(ctx, catalogSource)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog database: %w", err)
		}

		return source, nil
	}

	return registry.NewFileSource(catalogSource), nil
}
