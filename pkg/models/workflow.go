package models

import "time"

// Workflow is the persisted record wrapping a validated document. Only
// documents that passed the full pipeline are ever stored.
type Workflow struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"        validate:"required"`
	Description    string    `json:"description" validate:"required"`
	Category       string    `json:"category,omitempty"`
	Document       *Document `json:"document"`
	Active         bool      `json:"is_active"`
	ExecutionCount int       `json:"execution_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PlanSessionStatus is the outcome of one planning request.
type PlanSessionStatus string

const (
	PlanSessionAccepted PlanSessionStatus = "accepted" // Document passed validation
	PlanSessionRejected PlanSessionStatus = "rejected" // Residual defects after repair
	PlanSessionFailed   PlanSessionStatus = "failed"   // Model call or parsing failed
)

// PlanSession records one planning request end to end: the prompt, the model
// that served it, and either the generated workflow or the defect list.
type PlanSession struct {
	ID          string            `json:"id"`
	Status      PlanSessionStatus `json:"status"`
	Prompt      string            `json:"prompt"`
	Provider    string            `json:"ai_provider,omitempty"`
	Model       string            `json:"ai_model,omitempty"`
	Defects     []string          `json:"defects,omitempty"`
	WorkflowID  string            `json:"workflow_id,omitempty"`
	Cached      bool              `json:"cached,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}
