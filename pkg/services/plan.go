package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planweave/planweave/pkg/eventbus"
	"github.com/planweave/planweave/pkg/events"
	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/otelhelper"
	"github.com/planweave/planweave/pkg/persistence"
	"github.com/planweave/planweave/pkg/pipeline"
)

const maxPromptLength = 4000

// WorkflowPlanner generates a repaired and validated candidate for a prompt.
type WorkflowPlanner interface {
	Plan(ctx context.Context, prompt string) (*pipeline.Result, error)
}

// DocumentCache stores validated documents keyed by prompt. A hit skips the
// model call entirely.
type DocumentCache interface {
	Get(ctx context.Context, prompt string) (*models.Document, bool)
	Set(ctx context.Context, prompt string, doc *models.Document)
}

// PlanRequest is one planning request from a client.
type PlanRequest struct {
	Prompt   string `json:"prompt"             validate:"required"`
	Category string `json:"category,omitempty"`
}

// PlanResponse carries the session record plus, on acceptance, the stored
// workflow, or, on rejection, the residual defect list.
type PlanResponse struct {
	Session  *models.PlanSession `json:"session"`
	Workflow *models.Workflow    `json:"workflow,omitempty"`
	Defects  []string            `json:"defects,omitempty"`
	Message  string              `json:"message"`
}

// Accepted reports whether the request produced a stored workflow.
func (r *PlanResponse) Accepted() bool {
	return r.Session != nil && r.Session.Status == models.PlanSessionAccepted
}

// Plan orchestrates a planning request: cache lookup, candidate generation,
// persistence of the outcome, and lifecycle event publication.
type Plan struct {
	planner     WorkflowPlanner
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	cache       DocumentCache
	validate    *validator.Validate
	tracer      trace.Tracer
	provider    string
	model       string
	logger      *slog.Logger
}

// NewPlan creates a plan service. The publisher may be nil for one-shot CLI
// use; events are then skipped.
func NewPlan(
	wp WorkflowPlanner,
	store persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Plan {
	return &Plan{
		planner:     wp,
		persistence: store,
		publisher:   publisher,
		validate:    validator.New(),
		logger:      logger.With("module", "plan_service"),
	}
}

// WithCache enables the prompt-keyed document cache.
func (s *Plan) WithCache(c DocumentCache) *Plan {
	s.cache = c

	return s
}

// WithTracer enables a span per planning request.
func (s *Plan) WithTracer(tracer trace.Tracer) *Plan {
	s.tracer = tracer

	return s
}

// WithModelInfo records the provider and model names on every session.
func (s *Plan) WithModelInfo(provider, model string) *Plan {
	s.provider = provider
	s.model = model

	return s
}

// Generate runs one planning request end to end. A nil error with a
// non-accepted response means the candidate finished the pipeline but kept
// defects; the session is stored either way.
func (s *Plan) Generate(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx)
	defer span.End()

	session := &models.PlanSession{
		ID:        uuid.New().String(),
		Status:    models.PlanSessionFailed,
		Prompt:    req.Prompt,
		Provider:  s.provider,
		Model:     s.model,
		CreatedAt: time.Now().UTC(),
	}

	span.SetAttributes(attribute.String(otelhelper.SessionIDKey, session.ID))

	if doc, ok := s.cachedDocument(ctx, req.Prompt); ok {
		session.Cached = true
		span.SetAttributes(attribute.Bool(otelhelper.CacheHitKey, true))

		return s.accept(ctx, session, doc, len(doc.Graph().Data.Nodes), req.Category)
	}

	result, err := s.planner.Plan(ctx, req.Prompt)
	if err != nil {
		s.completeSession(ctx, session)
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("%w: %w", ErrPlanGeneration, err)
	}

	span.SetAttributes(
		attribute.Int(otelhelper.NodeCountKey, result.NodeCount),
		attribute.Int(otelhelper.DefectCountKey, len(result.Defects)),
	)

	if !result.Valid() {
		session.Status = models.PlanSessionRejected
		session.Defects = result.Defects
		s.completeSession(ctx, session)
		s.publishRejected(ctx, session)

		return &PlanResponse{
			Session: session,
			Defects: result.Defects,
			Message: result.Message(),
		}, nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, req.Prompt, result.Document)
	}

	return s.accept(ctx, session, result.Document, result.NodeCount, req.Category)
}

// GetSession retrieves a planning session by its ID.
func (s *Plan) GetSession(ctx context.Context, id string) (*models.PlanSession, error) {
	session, err := s.persistence.SessionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// ListSessions retrieves all planning sessions, newest first.
func (s *Plan) ListSessions(ctx context.Context) ([]*models.PlanSession, error) {
	return s.persistence.SessionRepository().List(ctx)
}

func (s *Plan) validateRequest(req *PlanRequest) error {
	req.Prompt = strings.TrimSpace(req.Prompt)

	if req.Prompt == "" {
		return NewValidationError(
			"Generate", "PROMPT_REQUIRED", "prompt is required", ErrPromptRequired)
	}

	if len(req.Prompt) > maxPromptLength {
		return NewValidationError(
			"Generate", "PROMPT_TOO_LONG",
			fmt.Sprintf("prompt exceeds %d characters", maxPromptLength),
			ErrPromptTooLong)
	}

	if err := s.validate.Struct(req); err != nil {
		return NewValidationError("Generate", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	return nil
}

// startSpan opens a request span, or returns the context's span (a no-op
// when tracing is disabled).
func (s *Plan) startSpan(ctx context.Context) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return otelhelper.StartSpan(ctx, s.tracer, "plan.generate",
		attribute.String(otelhelper.ProviderKey, s.provider),
		attribute.String(otelhelper.ModelKey, s.model),
	)
}

func (s *Plan) cachedDocument(ctx context.Context, prompt string) (*models.Document, bool) {
	if s.cache == nil {
		return nil, false
	}

	doc, ok := s.cache.Get(ctx, prompt)
	if !ok || doc.Graph() == nil {
		return nil, false
	}

	return doc, true
}

func (s *Plan) accept(
	ctx context.Context,
	session *models.PlanSession,
	doc *models.Document,
	nodeCount int,
	category string,
) (*PlanResponse, error) {
	graph := doc.Graph()
	now := time.Now().UTC()

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        graph.Name,
		Description: graph.Description,
		Category:    category,
		Document:    doc,
		Active:      graph.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		s.completeSession(ctx, session)

		return nil, fmt.Errorf("failed to store generated workflow: %w", err)
	}

	session.Status = models.PlanSessionAccepted
	session.WorkflowID = workflow.ID
	s.completeSession(ctx, session)
	s.publishAccepted(ctx, session, workflow, nodeCount)

	return &PlanResponse{
		Session:  session,
		Workflow: workflow,
		Message:  fmt.Sprintf("workflow plan generated with %d nodes", nodeCount),
	}, nil
}

// completeSession stamps the completion time and stores the session. The
// session is an audit record; a storage failure is logged, not surfaced.
func (s *Plan) completeSession(ctx context.Context, session *models.PlanSession) {
	now := time.Now().UTC()
	session.CompletedAt = &now

	if err := s.persistence.SessionRepository().Save(ctx, session); err != nil {
		s.logger.WarnContext(ctx, "Failed to store planning session",
			"session_id", session.ID, "error", err)
	}
}

func (s *Plan) publishAccepted(
	ctx context.Context,
	session *models.PlanSession,
	workflow *models.Workflow,
	nodeCount int,
) {
	if s.publisher == nil {
		return
	}

	accepted := events.PlanAccepted{
		BaseEvent:  s.baseEvent(events.PlanAcceptedEvent, session.ID),
		WorkflowID: workflow.ID,
		NodeCount:  nodeCount,
		Cached:     session.Cached,
	}
	if err := s.publisher.Publish(ctx, session.ID, accepted); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish plan accepted event", "error", err)
	}

	created := events.WorkflowCreated{
		BaseEvent:    s.baseEvent(events.WorkflowCreatedEvent, session.ID),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
	}
	if err := s.publisher.Publish(ctx, workflow.ID, created); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish workflow created event", "error", err)
	}
}

func (s *Plan) publishRejected(ctx context.Context, session *models.PlanSession) {
	if s.publisher == nil {
		return
	}

	rejected := events.PlanRejected{
		BaseEvent: s.baseEvent(events.PlanRejectedEvent, session.ID),
		Prompt:    session.Prompt,
		Defects:   session.Defects,
	}
	if err := s.publisher.Publish(ctx, session.ID, rejected); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish plan rejected event", "error", err)
	}
}

func (s *Plan) baseEvent(eventType events.EventType, sessionID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}
