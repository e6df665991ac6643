// Package web provides the HTTP handlers for the planning API.
package web

// CreatePlanRequest is the request body for generating a workflow plan.
type CreatePlanRequest struct {
	Prompt   string `json:"prompt"             validate:"required,min=3"`
	Category string `json:"category,omitempty"`
}

// IntegrationResponse describes one catalog entry for API consumers. The
// catalog drives what the planner can wire integration nodes to.
type IntegrationResponse struct {
	ID          int      `json:"id"`
	Keyword     string   `json:"keyword"`
	TypeName    string   `json:"type_name"`
	DefaultTask string   `json:"default_task"`
	Tasks       []string `json:"tasks"`
}
