package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "callfloor/db/tx"
	"callfloor/models"
)

type PostgresSessionsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresSessionsRepository(db *sqlx.DB, schema string) *PostgresSessionsRepository {
	return &PostgresSessionsRepository{db: db, schema: schema}
}

// Column names for sessions table
var sessionsColumns = []string{
	"id",
	"agent_id",
	"login_at",
	"logout_at",
	"status",
	"campaign_id",
	"session_token",
	"emergency_flag",
	"emergency_at",
}

// UpsertActiveSession writes the single session row for an agent. The
// agent_id unique key makes a repeat login overwrite token, login time and
// status in place, which supersedes any previous session without a separate
// revoke step.
func (r *PostgresSessionsRepository) UpsertActiveSession(
	ctx context.Context,
	session *models.Session,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(sessionsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.sessions (id, agent_id, login_at, logout_at, status, campaign_id, session_token, emergency_flag, emergency_at)
		VALUES ($1, $2, $3, NULL, $4, $5, $6, FALSE, NULL)
		ON CONFLICT (agent_id)
		DO UPDATE SET
			login_at = EXCLUDED.login_at,
			logout_at = NULL,
			status = EXCLUDED.status,
			campaign_id = EXCLUDED.campaign_id,
			session_token = EXCLUDED.session_token,
			emergency_flag = FALSE,
			emergency_at = NULL
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query,
		session.ID, session.AgentID, session.LoginAt, session.Status,
		session.CampaignID, session.SessionToken).
		StructScan(session)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (r *PostgresSessionsRepository) GetSessionByAgentID(
	ctx context.Context,
	agentID string,
) (mo.Option[*models.Session], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(sessionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions
		WHERE agent_id = $1`, columnsStr, r.schema)

	var session models.Session
	err := db.GetContext(ctx, &session, query, agentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Session](), nil
		}
		return mo.None[*models.Session](), fmt.Errorf("failed to get session: %w", err)
	}

	return mo.Some(&session), nil
}

// CloseSession marks the agent's session closed and clears the stored token.
// Returns false when no open session existed (logout is idempotent).
func (r *PostgresSessionsRepository) CloseSession(
	ctx context.Context,
	agentID string,
	logoutAt time.Time,
	emergency bool,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.sessions
		SET logout_at = $2,
			status = $3,
			session_token = '',
			emergency_flag = $4,
			emergency_at = CASE WHEN $4 THEN $2 ELSE emergency_at END
		WHERE agent_id = $1 AND status = $5`, r.schema)

	result, err := db.ExecContext(ctx, query,
		agentID, logoutAt, models.SessionStatusClosed, emergency, models.SessionStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetOpenSessionsByAdminID returns every active session whose agent is owned
// by the given admin, excluding the admin's own session.
func (r *PostgresSessionsRepository) GetOpenSessionsByAdminID(
	ctx context.Context,
	adminID string,
) ([]*models.Session, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	var aliasedColumns []string
	for _, col := range sessionsColumns {
		aliasedColumns = append(aliasedColumns, "s."+col)
	}
	columnsStr := strings.Join(aliasedColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions s
		INNER JOIN %s.agents a ON s.agent_id = a.id
		WHERE a.admin_id = $1 AND s.status = $2 AND s.agent_id != $1
		ORDER BY s.login_at ASC`, columnsStr, r.schema, r.schema)

	var sessions []*models.Session
	err := db.SelectContext(ctx, &sessions, query, adminID, models.SessionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get open sessions by admin: %w", err)
	}

	return sessions, nil
}

// GetAllOpenSessions returns every active session system-wide.
func (r *PostgresSessionsRepository) GetAllOpenSessions(
	ctx context.Context,
) ([]*models.Session, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(sessionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions
		WHERE status = $1
		ORDER BY login_at ASC`, columnsStr, r.schema)

	var sessions []*models.Session
	err := db.SelectContext(ctx, &sessions, query, models.SessionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get all open sessions: %w", err)
	}

	return sessions, nil
}
