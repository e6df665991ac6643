// Package planner turns a natural-language automation request into a
// validated workflow document: it prompts the model, parses the raw answer
// into a candidate, and runs the candidate through the repair pipeline.
package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planweave/planweave/pkg/pipeline"
	"github.com/planweave/planweave/pkg/registry"
)

// ModelClient produces raw completion text for a system+user prompt pair.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Planner coordinates one planning request end to end.
type Planner struct {
	client   ModelClient
	registry *registry.Registry
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// New creates a planner over the given model client, catalog, and pipeline.
func New(client ModelClient, reg *registry.Registry, pipe *pipeline.Pipeline, logger *slog.Logger) *Planner {
	return &Planner{
		client:   client,
		registry: reg,
		pipeline: pipe,
		logger:   logger.With("module", "planner"),
	}
}

// Plan generates a candidate for the prompt and repairs and validates it.
// A non-nil error means no candidate reached the pipeline (model failure or
// unusable text); a returned Result may still carry validation defects.
func (p *Planner) Plan(ctx context.Context, prompt string) (*pipeline.Result, error) {
	system := SystemPrompt(p.registry.Families())

	raw, err := p.client.Complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow candidate: %w", err)
	}

	doc, err := ParseCandidate(raw)
	if err != nil {
		p.logger.WarnContext(ctx, "Model produced an unusable candidate", "error", err)

		return nil, err
	}

	result := p.pipeline.Run(ctx, doc)

	p.logger.InfoContext(ctx, "Planning request finished",
		"nodes", result.NodeCount,
		"valid", result.Valid(),
	)

	return result, nil
}
