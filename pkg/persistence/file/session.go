package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/persistence"
)

// SessionRepository stores each planning session as <id>.json.
type SessionRepository struct {
	dir string
}

// NewSessionRepository creates a session repository over the directory.
func NewSessionRepository(dir string) *SessionRepository {
	return &SessionRepository{dir: dir}
}

// List returns all sessions sorted by creation time, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]*models.PlanSession, error) {
	files, err := fs.Glob(os.DirFS(r.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]*models.PlanSession, 0, len(files))

	for _, file := range files {
		session, err := r.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// GetByID loads one session.
func (r *SessionRepository) GetByID(_ context.Context, id string) (*models.PlanSession, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewSessionError("GetByID", id, persistence.ErrSessionNotFound)
		}

		return nil, persistence.NewSessionError("GetByID", id, err)
	}

	var session models.PlanSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, persistence.NewSessionError("GetByID", id, err)
	}

	return &session, nil
}

// Save writes the session, creating or replacing its file.
func (r *SessionRepository) Save(_ context.Context, session *models.PlanSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	if err := os.WriteFile(r.path(session.ID), data, 0o600); err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	return nil
}

func (r *SessionRepository) path(id string) string {
	return filepath.Join(r.dir, filepath.Base(id)+".json")
}
