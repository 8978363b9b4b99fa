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

type PostgresLeadsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresLeadsRepository(db *sqlx.DB, schema string) *PostgresLeadsRepository {
	return &PostgresLeadsRepository{db: db, schema: schema}
}

var leadsColumns = []string{
	"id",
	"admin_id",
	"campaign_id",
	"username",
	"first_name",
	"last_name",
	"phone",
	"email",
	"dial_status",
	"created_at",
}

// LockNextUnassignedLead selects the oldest NEW lead in the campaign with no
// assignee, locking the row. SKIP LOCKED lets two concurrent dispatchers
// each grab a different lead instead of one blocking on the other's lock.
// Must be called inside a transaction.
func (r *PostgresLeadsRepository) LockNextUnassignedLead(
	ctx context.Context,
	campaignID string,
) (mo.Option[*models.Lead], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(leadsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.leads
		WHERE campaign_id = $1 AND dial_status = $2 AND username IS NULL
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, columnsStr, r.schema)

	var lead models.Lead
	err := db.GetContext(ctx, &lead, query, campaignID, models.DialStatusNew)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Lead](), nil
		}
		return mo.None[*models.Lead](), fmt.Errorf("failed to lock unassigned lead: %w", err)
	}

	return mo.Some(&lead), nil
}

// LockNextOwnLead selects the oldest NEW lead already assigned to the agent,
// locking the row. The dispatcher only falls back to this once the
// unassigned pool is drained. Must be called inside a transaction.
func (r *PostgresLeadsRepository) LockNextOwnLead(
	ctx context.Context,
	campaignID, username string,
) (mo.Option[*models.Lead], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(leadsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.leads
		WHERE campaign_id = $1 AND dial_status = $2 AND username = $3
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, columnsStr, r.schema)

	var lead models.Lead
	err := db.GetContext(ctx, &lead, query, campaignID, models.DialStatusNew, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Lead](), nil
		}
		return mo.None[*models.Lead](), fmt.Errorf("failed to lock own lead: %w", err)
	}

	return mo.Some(&lead), nil
}

// MarkDialing claims a locked lead for the agent. The dial_status guard
// means a lead that slipped to another state between lock and update is not
// silently re-claimed.
func (r *PostgresLeadsRepository) MarkDialing(
	ctx context.Context,
	leadID int64,
	username string,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.leads
		SET dial_status = $3, username = $2
		WHERE id = $1 AND dial_status = $4`, r.schema)

	result, err := db.ExecContext(ctx, query,
		leadID, username, models.DialStatusDialing, models.DialStatusNew)
	if err != nil {
		return false, fmt.Errorf("failed to mark lead dialing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// UpdateDialStatus records a disposition outcome on a claimed lead.
func (r *PostgresLeadsRepository) UpdateDialStatus(
	ctx context.Context,
	leadID int64,
	status models.DialStatus,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.leads
		SET dial_status = $2
		WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, leadID, status)
	if err != nil {
		return false, fmt.Errorf("failed to update dial status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *PostgresLeadsRepository) GetLeadByID(
	ctx context.Context,
	leadID int64,
) (mo.Option[*models.Lead], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(leadsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.leads
		WHERE id = $1`, columnsStr, r.schema)

	var lead models.Lead
	err := db.GetContext(ctx, &lead, query, leadID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Lead](), nil
		}
		return mo.None[*models.Lead](), fmt.Errorf("failed to get lead: %w", err)
	}

	return mo.Some(&lead), nil
}

// InsertLead adds one lead to a campaign queue. Bulk import lives outside
// this service; this path exists for tests and manual seeding.
func (r *PostgresLeadsRepository) InsertLead(
	ctx context.Context,
	lead *models.Lead,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(leadsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.leads (admin_id, campaign_id, username, first_name, last_name, phone, email, dial_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(ctx, query,
		lead.AdminID, lead.CampaignID, lead.Username, lead.FirstName,
		lead.LastName, lead.Phone, lead.Email, lead.DialStatus).
		StructScan(lead)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// DeleteLead removes one lead. Test cleanup only.
func (r *PostgresLeadsRepository) DeleteLead(ctx context.Context, leadID int64) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.leads WHERE id = $1`, r.schema)

	if _, err := db.ExecContext(ctx, query, leadID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return nil
}
