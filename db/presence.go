package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "callfloor/db/tx"
	"callfloor/models"
)

type PostgresPresenceRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresPresenceRepository(db *sqlx.DB, schema string) *PostgresPresenceRepository {
	return &PostgresPresenceRepository{db: db, schema: schema}
}

var agentStatesColumns = []string{
	"agent_id",
	"state_name",
	"started_at",
	"status",
}

var presenceIntervalsColumns = []string{
	"id",
	"agent_id",
	"state_name",
	"started_at",
	"ended_at",
	"duration_seconds",
}

// GetCurrentState returns the agent's single open state row, locking it so a
// concurrent transition or logout on the same agent serializes behind us.
func (r *PostgresPresenceRepository) GetCurrentState(
	ctx context.Context,
	agentID string,
	forUpdate bool,
) (mo.Option[*models.AgentState], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(agentStatesColumns, ", ")
	lockClause := ""
	if forUpdate {
		lockClause = " FOR UPDATE"
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.agent_states
		WHERE agent_id = $1%s`, columnsStr, r.schema, lockClause)

	var state models.AgentState
	err := db.GetContext(ctx, &state, query, agentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.AgentState](), nil
		}
		return mo.None[*models.AgentState](), fmt.Errorf("failed to get current state: %w", err)
	}

	return mo.Some(&state), nil
}

// UpsertCurrentState overwrites the agent's current state row. The agent_id
// unique key guarantees at most one open state per agent.
func (r *PostgresPresenceRepository) UpsertCurrentState(
	ctx context.Context,
	state *models.AgentState,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(agentStatesColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.agent_states (agent_id, state_name, started_at, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_id)
		DO UPDATE SET
			state_name = EXCLUDED.state_name,
			started_at = EXCLUDED.started_at,
			status = EXCLUDED.status
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query,
		state.AgentID, state.StateName, state.StartedAt, state.Status).
		StructScan(state)
	if err != nil {
		return fmt.Errorf("failed to upsert current state: %w", err)
	}

	return nil
}

// DeleteCurrentState removes the open state row on logout. Returns false
// when the agent had no open state.
func (r *PostgresPresenceRepository) DeleteCurrentState(
	ctx context.Context,
	agentID string,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.agent_states
		WHERE agent_id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, agentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete current state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// DeleteAllCurrentStates wipes every open state row (emergency reset).
func (r *PostgresPresenceRepository) DeleteAllCurrentStates(ctx context.Context) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.agent_states`, r.schema)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to delete all current states: %w", err)
	}

	return nil
}

// InsertInterval appends a completed interval to the history.
func (r *PostgresPresenceRepository) InsertInterval(
	ctx context.Context,
	interval *models.PresenceInterval,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(presenceIntervalsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.presence_intervals (id, agent_id, state_name, started_at, ended_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query,
		interval.ID, interval.AgentID, interval.StateName,
		interval.StartedAt, interval.EndedAt, interval.DurationSeconds).
		StructScan(interval)
	if err != nil {
		return fmt.Errorf("failed to insert presence interval: %w", err)
	}

	return nil
}

// GetIntervalsByAgentID returns the agent's completed intervals, newest first.
func (r *PostgresPresenceRepository) GetIntervalsByAgentID(
	ctx context.Context,
	agentID string,
	limit int,
) ([]*models.PresenceInterval, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(presenceIntervalsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.presence_intervals
		WHERE agent_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`, columnsStr, r.schema)

	var intervals []*models.PresenceInterval
	err := db.SelectContext(ctx, &intervals, query, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get presence intervals: %w", err)
	}

	return intervals, nil
}
