// Package file provides file-based persistence for workflows and planning
// sessions. Each record is one JSON document under the configured root,
// suitable for development and single-node deployments.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/planweave/planweave/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	sessionRepo  *SessionRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A file:// prefix is accepted and stripped.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{"workflows", "sessions"} {
		if err := os.MkdirAll(filepath.Join(cleanRoot, dir), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(filepath.Join(cleanRoot, "workflows")),
		sessionRepo:  NewSessionRepository(filepath.Join(cleanRoot, "sessions")),
	}, nil
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// SessionRepository returns the planning session repository.
func (p *Persistence) SessionRepository() persistence.SessionRepository {
	return p.sessionRepo
}

// HealthCheck verifies the storage root still exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
