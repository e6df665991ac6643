package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Refresher periodically reloads the live catalog from a source, so registry
// updates reach the pipeline without a redeploy.
type Refresher struct {
	registry *Registry
	source   Source
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewRefresher wires a registry to a source.
func NewRefresher(registry *Registry, source Source, logger *slog.Logger) *Refresher {
	return &Refresher{
		registry: registry,
		source:   source,
		logger:   logger,
	}
}

// Start performs one immediate load and then reloads on the given cron
// schedule (e.g. "@every 5m"). A failed reload keeps the previous catalog.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if err := r.reload(ctx); err != nil {
		return err
	}

	r.cron = cron.New()

	_, err := r.cron.AddFunc(schedule, func() {
		if err := r.reload(ctx); err != nil {
			r.logger.ErrorContext(ctx, "Failed to refresh integration catalog", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid catalog refresh schedule %q: %w", schedule, err)
	}

	r.cron.Start()

	return nil
}

// Stop halts scheduled reloads.
func (r *Refresher) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Refresher) reload(ctx context.Context) error {
	families, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load integration catalog: %w", err)
	}

	r.registry.Replace(families)
	r.logger.InfoContext(ctx, "Integration catalog loaded", "families", len(families))

	return nil
}
