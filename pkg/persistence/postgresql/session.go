package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/persistence"
)

// SessionRepository stores planning sessions with the defect list as JSONB.
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a session repository over the database.
func NewSessionRepository(db *sql.DB, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

const sessionColumns = `id, status, prompt, ai_provider, ai_model, defects, workflow_id, cached, created_at, completed_at`

// List returns all sessions, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]*models.PlanSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM plan_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, persistence.NewSessionError("List", "", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.PlanSession

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, persistence.NewSessionError("List", "", err)
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewSessionError("List", "", err)
	}

	return sessions, nil
}

// GetByID returns one session.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.PlanSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM plan_sessions WHERE id = $1`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewSessionError("GetByID", id, persistence.ErrSessionNotFound)
		}

		return nil, persistence.NewSessionError("GetByID", id, err)
	}

	return session, nil
}

// Save inserts or updates the session.
func (r *SessionRepository) Save(ctx context.Context, session *models.PlanSession) error {
	defects, err := json.Marshal(session.Defects)
	if err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	var workflowID any
	if session.WorkflowID != "" {
		workflowID = session.WorkflowID
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plan_sessions (id, status, prompt, ai_provider, ai_model, defects, workflow_id, cached, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			defects = EXCLUDED.defects,
			workflow_id = EXCLUDED.workflow_id,
			cached = EXCLUDED.cached,
			completed_at = EXCLUDED.completed_at`,
		session.ID, string(session.Status), session.Prompt, session.Provider, session.Model,
		defects, workflowID, session.Cached, session.CreatedAt, session.CompletedAt)
	if err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	return nil
}

func scanSession(row rowScanner) (*models.PlanSession, error) {
	var (
		session    models.PlanSession
		defects    []byte
		workflowID sql.NullString
	)

	err := row.Scan(&session.ID, &session.Status, &session.Prompt, &session.Provider,
		&session.Model, &defects, &workflowID, &session.Cached, &session.CreatedAt, &session.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(defects, &session.Defects); err != nil {
		return nil, err
	}

	session.WorkflowID = workflowID.String

	return &session, nil
}
