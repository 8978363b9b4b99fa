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

type PostgresAgentsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresAgentsRepository(db *sqlx.DB, schema string) *PostgresAgentsRepository {
	return &PostgresAgentsRepository{db: db, schema: schema}
}

// Column names for agents table
var agentsColumns = []string{
	"id",
	"admin_id",
	"role",
	"status",
	"campaign_id",
	"dial_priority",
	"password",
	"email",
	"phone",
	"session_token",
	"otp_code",
	"otp_expires_at",
	"created_at",
	"updated_at",
}

// CreateAgent inserts a provisioning record. Used by provisioning tooling
// and test seeding; the floor service itself never creates agents.
func (r *PostgresAgentsRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.agents (id, admin_id, role, status, campaign_id, dial_priority, password, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`, r.schema)

	err := db.QueryRowxContext(
		ctx,
		query,
		agent.ID,
		agent.AdminID,
		agent.Role,
		agent.Status,
		agent.CampaignID,
		agent.DialPriority,
		agent.Password,
		agent.Email,
		agent.Phone,
	).Scan(&agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

// DeleteAgent removes a provisioning record and everything cascading from it.
func (r *PostgresAgentsRepository) DeleteAgent(ctx context.Context, agentID string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.agents WHERE id = $1`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	return nil
}

func (r *PostgresAgentsRepository) GetAgentByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Agent], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(agentsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.agents
		WHERE id = $1`, columnsStr, r.schema)

	var agent models.Agent
	err := db.GetContext(ctx, &agent, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Agent](), nil
		}
		return mo.None[*models.Agent](), fmt.Errorf("failed to get agent: %w", err)
	}

	return mo.Some(&agent), nil
}

func (r *PostgresAgentsRepository) GetAgentsByAdminID(
	ctx context.Context,
	adminID string,
) ([]*models.Agent, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(agentsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.agents
		WHERE admin_id = $1
		ORDER BY dial_priority ASC, id ASC`, columnsStr, r.schema)

	var agents []*models.Agent
	err := db.SelectContext(ctx, &agents, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agents by admin: %w", err)
	}

	return agents, nil
}

// UpdateSessionToken stores the freshly minted token on the agent row.
// Passing nil clears it (logout).
func (r *PostgresAgentsRepository) UpdateSessionToken(
	ctx context.Context,
	agentID string,
	token *string,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.agents
		SET session_token = $2, updated_at = NOW()
		WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, agentID, token)
	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("agent %s not found", agentID)
	}

	return nil
}

// SetOTP persists a freshly generated one-time code with its expiry.
func (r *PostgresAgentsRepository) SetOTP(
	ctx context.Context,
	agentID, code string,
	expiresAt time.Time,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.agents
		SET otp_code = $2, otp_expires_at = $3, updated_at = NOW()
		WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, agentID, code, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("agent %s not found", agentID)
	}

	return nil
}

// ClearOTP removes the stored code after verification or expiry.
func (r *PostgresAgentsRepository) ClearOTP(ctx context.Context, agentID string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.agents
		SET otp_code = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`, r.schema)

	if _, err := db.ExecContext(ctx, query, agentID); err != nil {
		return fmt.Errorf("failed to clear otp: %w", err)
	}

	return nil
}
