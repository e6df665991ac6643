// Package persistence provides the storage abstraction for generated
// workflows and planning sessions.
package persistence

import (
	"context"

	"github.com/planweave/planweave/pkg/models"
)

// Persistence is the storage backend contract. Implementations exist for the
// local filesystem and PostgreSQL.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	SessionRepository() SessionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores validated workflows.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository stores planning sessions, accepted and rejected alike,
// so rejected prompts remain auditable.
type SessionRepository interface {
	List(ctx context.Context) ([]*models.PlanSession, error)
	GetByID(ctx context.Context, id string) (*models.PlanSession, error)
	Save(ctx context.Context, session *models.PlanSession) error
}
