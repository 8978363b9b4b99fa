package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"

	"callfloor/appctx"
	"callfloor/config"
	"callfloor/db"
	"callfloor/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "test-secret"
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
		JWTSecret:      jwtSecret,
	}, nil
}

// CreateTestAgent creates a floor agent with a unique ID to avoid constraint
// violations, and registers cleanup to remove it after the test.
func CreateTestAgent(t *testing.T, agentsRepo *db.PostgresAgentsRepository, role models.AgentRole) *models.Agent {
	return CreateTestAgentWithAdmin(t, agentsRepo, role, "admin-"+uuid.New().String())
}

// CreateTestAgentWithAdmin creates a test agent owned by a specific admin
func CreateTestAgentWithAdmin(
	t *testing.T,
	agentsRepo *db.PostgresAgentsRepository,
	role models.AgentRole,
	adminID string,
) *models.Agent {
	testAgent := &models.Agent{
		ID:           "agent-" + uuid.New().String(),
		AdminID:      adminID,
		Role:         role,
		Status:       models.AgentStatusActive,
		CampaignID:   "campaign-" + uuid.New().String(),
		DialPriority: 1,
		Password:     "test-password",
		Email:        "test@example.com",
		Phone:        "+15550100",
	}

	err := agentsRepo.CreateAgent(context.Background(), testAgent)
	require.NoError(t, err, "Failed to create test agent")

	t.Cleanup(func() {
		_ = agentsRepo.DeleteAgent(context.Background(), testAgent.ID)
	})

	return testAgent
}

// CreateTestLead seeds one dialable lead into the agent's campaign
func CreateTestLead(
	t *testing.T,
	leadsRepo *db.PostgresLeadsRepository,
	adminID, campaignID string,
) *models.Lead {
	testLead := &models.Lead{
		AdminID:    adminID,
		CampaignID: campaignID,
		FirstName:  "Test",
		LastName:   "Lead",
		Phone:      "+15550199",
		Email:      "lead@example.com",
		DialStatus: models.DialStatusNew,
	}

	err := leadsRepo.InsertLead(context.Background(), testLead)
	require.NoError(t, err, "Failed to create test lead")

	t.Cleanup(func() {
		_ = leadsRepo.DeleteLead(context.Background(), testLead.ID)
	})

	return testLead
}

// CreateTestContext creates a context with the given agent set for testing
func CreateTestContext(agent *models.Agent) context.Context {
	ctx := context.Background()
	return appctx.SetAgent(ctx, agent)
}
