package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "callfloor/db/tx"
	"callfloor/models"
)

type PostgresOTPJournalRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresOTPJournalRepository(db *sqlx.DB, schema string) *PostgresOTPJournalRepository {
	return &PostgresOTPJournalRepository{db: db, schema: schema}
}

var otpJournalColumns = []string{
	"id",
	"agent_id",
	"event",
	"attempt",
	"created_at",
}

// InsertEvent appends one audit entry. The per-agent attempt counter is
// derived from the journal itself; two concurrent inserts can read the same
// MAX and share an attempt number, which the audit trail tolerates.
func (r *PostgresOTPJournalRepository) InsertEvent(
	ctx context.Context,
	entry *models.OTPJournalEntry,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(otpJournalColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.otp_journal (id, agent_id, event, attempt, created_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(attempt), 0) + 1 FROM %s.otp_journal WHERE agent_id = $2),
			NOW())
		RETURNING %s`, r.schema, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query, entry.ID, entry.AgentID, entry.Event).
		StructScan(entry)
	if err != nil {
		return fmt.Errorf("failed to insert otp journal entry: %w", err)
	}

	return nil
}

// GetEventsByAgentID returns the agent's audit trail, newest first.
func (r *PostgresOTPJournalRepository) GetEventsByAgentID(
	ctx context.Context,
	agentID string,
	limit int,
) ([]*models.OTPJournalEntry, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(otpJournalColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.otp_journal
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, columnsStr, r.schema)

	var entries []*models.OTPJournalEntry
	err := db.SelectContext(ctx, &entries, query, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get otp journal entries: %w", err)
	}

	return entries, nil
}
