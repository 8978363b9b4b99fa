package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "callfloor/db/tx"
	"callfloor/models"
)

type PostgresLiveMetricsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresLiveMetricsRepository(db *sqlx.DB, schema string) *PostgresLiveMetricsRepository {
	return &PostgresLiveMetricsRepository{db: db, schema: schema}
}

var liveMetricsColumns = []string{
	"id",
	"agent_id",
	"metric_date",
	"login_hour",
	"login_count",
	"break_count",
	"break_names",
	"break_durations",
	"calls_dialed",
	"calls_answered",
	"calls_failed",
	"status",
	"wrapup",
	"wait_until",
}

// UpsertDay ensures the (agent, day) row exists. A fresh row starts at one
// login with a clean slate; a repeat login the same day bumps login_count
// and clears any leftover wrap-up gate.
func (r *PostgresLiveMetricsRepository) UpsertDay(
	ctx context.Context,
	metrics *models.LiveMetrics,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(liveMetricsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.live_metrics
			(id, agent_id, metric_date, login_hour, login_count, break_count, break_names, break_durations,
			 calls_dialed, calls_answered, calls_failed, status, wrapup, wait_until)
		VALUES ($1, $2, $3, 0, 1, 0, '', '', 0, 0, 0, $4, FALSE, NULL)
		ON CONFLICT (agent_id, metric_date)
		DO UPDATE SET
			login_count = %s.live_metrics.login_count + 1,
			status = EXCLUDED.status,
			wrapup = FALSE,
			wait_until = NULL
		RETURNING %s`, r.schema, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query,
		metrics.ID, metrics.AgentID, metrics.MetricDate, metrics.Status).
		StructScan(metrics)
	if err != nil {
		return fmt.Errorf("failed to upsert live metrics day: %w", err)
	}

	return nil
}

func (r *PostgresLiveMetricsRepository) GetByAgentAndDate(
	ctx context.Context,
	agentID string,
	date time.Time,
) (mo.Option[*models.LiveMetrics], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(liveMetricsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.live_metrics
		WHERE agent_id = $1 AND metric_date = $2`, columnsStr, r.schema)

	var metrics models.LiveMetrics
	err := db.GetContext(ctx, &metrics, query, agentID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.LiveMetrics](), nil
		}
		return mo.None[*models.LiveMetrics](), fmt.Errorf("failed to get live metrics: %w", err)
	}

	return mo.Some(&metrics), nil
}

// AddLoginHours folds an elapsed session duration into login_hour.
func (r *PostgresLiveMetricsRepository) AddLoginHours(
	ctx context.Context,
	agentID string,
	date time.Time,
	hours decimal.Decimal,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.live_metrics
		SET login_hour = ROUND(login_hour + $3, 2)
		WHERE agent_id = $1 AND metric_date = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID, date, hours); err != nil {
		return fmt.Errorf("failed to add login hours: %w", err)
	}

	return nil
}

// AppendBreak folds one closed break interval into the day's cumulative
// break bookkeeping: count, comma-accumulated names and durations.
func (r *PostgresLiveMetricsRepository) AppendBreak(
	ctx context.Context,
	agentID string,
	date time.Time,
	breakName string,
	durationSeconds int64,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.live_metrics
		SET break_count = break_count + 1,
			break_names = CASE WHEN break_names = '' THEN $3 ELSE break_names || ',' || $3 END,
			break_durations = CASE WHEN break_durations = '' THEN $4::text ELSE break_durations || ',' || $4::text END
		WHERE agent_id = $1 AND metric_date = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID, date, breakName, durationSeconds); err != nil {
		return fmt.Errorf("failed to append break: %w", err)
	}

	return nil
}

// UpdateInstantStatus mirrors the presence status (1 ready / 2 break) onto
// the day's row.
func (r *PostgresLiveMetricsRepository) UpdateInstantStatus(
	ctx context.Context,
	agentID string,
	date time.Time,
	status int,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.live_metrics
		SET status = $3
		WHERE agent_id = $1 AND metric_date = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID, date, status); err != nil {
		return fmt.Errorf("failed to update instant status: %w", err)
	}

	return nil
}

// SetWrapup flips the wrap-up flag. waitUntil is nil when clearing.
func (r *PostgresLiveMetricsRepository) SetWrapup(
	ctx context.Context,
	agentID string,
	date time.Time,
	wrapup bool,
	waitUntil *time.Time,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.live_metrics
		SET wrapup = $3, wait_until = $4
		WHERE agent_id = $1 AND metric_date = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID, date, wrapup, waitUntil); err != nil {
		return fmt.Errorf("failed to set wrapup: %w", err)
	}

	return nil
}

// IncrementCallCounter bumps one of the per-status call counters. The column
// name is validated against a fixed set, never interpolated from input.
func (r *PostgresLiveMetricsRepository) IncrementCallCounter(
	ctx context.Context,
	agentID string,
	date time.Time,
	counter string,
) error {
	switch counter {
	case "calls_dialed", "calls_answered", "calls_failed":
	default:
		return fmt.Errorf("unknown call counter: %s", counter)
	}

	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.live_metrics
		SET %s = %s + 1
		WHERE agent_id = $1 AND metric_date = $2`, r.schema, counter, counter)

	if _, err := db.ExecContext(ctx, query, agentID, date); err != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	return nil
}

// PurgeBefore removes the agent's metric rows from earlier days.
func (r *PostgresLiveMetricsRepository) PurgeBefore(
	ctx context.Context,
	agentID string,
	date time.Time,
) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.live_metrics
		WHERE agent_id = $1 AND metric_date < $2`, r.schema)

	result, err := db.ExecContext(ctx, query, agentID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale metrics: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// DeleteAll wipes every metrics row (emergency reset).
func (r *PostgresLiveMetricsRepository) DeleteAll(ctx context.Context) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.live_metrics`, r.schema)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to delete all live metrics: %w", err)
	}

	return nil
}
