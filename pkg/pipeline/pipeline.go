// Package pipeline converts a raw candidate workflow document into a graph
// that satisfies the execution engine's structural contract, repairing the
// defects it can and reporting the ones it cannot.
//
// Stages run strictly forward over one mutable document:
//
//	SchemaEnforced -> ReferenceNormalized -> Sanitized -> Repaired ->
//	FormatNormalized -> {Valid | Rejected(defects)}
//
// The validator is last and never mutates. A rejected document cannot
// re-enter the pipeline; the caller's only recourse is a fresh candidate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

// Stage is one in-place transform over the candidate document.
type Stage interface {
	Name() string
	Apply(doc *models.Document)
}

// Pipeline owns the fixed stage sequence and the final validation gate.
type Pipeline struct {
	stages    []Stage
	validator *Validator
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer enables one span per stage on the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithRepairStrategy swaps the connection repair heuristic.
func WithRepairStrategy(strategy RepairStrategy) Option {
	return func(p *Pipeline) {
		for i, stage := range p.stages {
			if repairer, ok := stage.(*AutoRepairer); ok {
				p.stages[i] = &AutoRepairer{strategy: strategy, logger: repairer.logger}
			}
		}
	}
}

// New builds the standard pipeline over the given integration registry.
func New(reg *registry.Registry, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: []Stage{
			NewSchemaEnforcer(reg, logger),
			NewReferenceNormalizer(),
			NewConnectionSanitizer(logger),
			NewAutoRepairer(PositionalStrategy{}, logger),
			NewFormatNormalizer(),
		},
		validator: NewValidator(reg),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Result is the outcome of one pipeline run. An empty defect list means the
// document satisfies every invariant and may be handed to the engine.
type Result struct {
	Document  *models.Document
	Defects   []string
	NodeCount int
}

// Valid reports whether the document passed the final validation gate.
func (r *Result) Valid() bool {
	return len(r.Defects) == 0
}

// Message returns the human-readable summary of the run.
func (r *Result) Message() string {
	if r.Valid() {
		return fmt.Sprintf("workflow plan generated with %d nodes", r.NodeCount)
	}

	return fmt.Sprintf("workflow validation failed with %d defects", len(r.Defects))
}

// Run executes all stages in order and then validates. The document is
// mutated in place; after Run returns it must be treated as immutable.
func (p *Pipeline) Run(ctx context.Context, doc *models.Document) *Result {
	for _, stage := range p.stages {
		p.runStage(ctx, stage, doc)
	}

	defects := p.validator.Validate(doc)

	nodeCount := 0
	if graph := doc.Graph(); graph != nil {
		nodeCount = len(graph.Data.Nodes)
	}

	result := &Result{
		Document:  doc,
		Defects:   defects,
		NodeCount: nodeCount,
	}

	p.logger.DebugContext(ctx, "Pipeline run finished",
		"nodes", nodeCount,
		"defects", len(defects),
	)

	return result
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, doc *models.Document) {
	if p.tracer != nil {
		var span trace.Span

		ctx, span = p.tracer.Start(ctx, "pipeline."+stage.Name(),
			trace.WithAttributes(attribute.String("planweave.stage", stage.Name())))
		defer span.End()
	}

	stage.Apply(doc)
	p.logger.DebugContext(ctx, "Pipeline stage applied", "stage", stage.Name())
}
