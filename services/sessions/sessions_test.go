package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfloor/db"
	"callfloor/models"
	"callfloor/services/metrics"
	"callfloor/services/presence"
	"callfloor/services/txmanager"
	"callfloor/testutils"
)

type integrationDeps struct {
	agentsRepo     *db.PostgresAgentsRepository
	sessionsRepo   *db.PostgresSessionsRepository
	presenceRepo   *db.PostgresPresenceRepository
	metricsService *metrics.MetricsService
}

// setupIntegration wires the service against a real database. Skipped when
// no test database is configured.
func setupIntegration(t *testing.T) (*SessionsService, *integrationDeps) {
	cfg, err := testutils.LoadTestConfig()
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { dbConn.Close() })

	agentsRepo := db.NewPostgresAgentsRepository(dbConn, cfg.DatabaseSchema)
	sessionsRepo := db.NewPostgresSessionsRepository(dbConn, cfg.DatabaseSchema)
	presenceRepo := db.NewPostgresPresenceRepository(dbConn, cfg.DatabaseSchema)
	metricsRepo := db.NewPostgresLiveMetricsRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)
	metricsService := metrics.NewMetricsService(metricsRepo)
	presenceService := presence.NewPresenceService(presenceRepo, metricsService, txManager)
	sessionsService := NewSessionsService(
		agentsRepo, sessionsRepo, presenceService, metricsService, txManager, cfg.JWTSecret)

	return sessionsService, &integrationDeps{
		agentsRepo:     agentsRepo,
		sessionsRepo:   sessionsRepo,
		presenceRepo:   presenceRepo,
		metricsService: metricsService,
	}
}

func TestLoginSupersedesPriorToken(t *testing.T) {
	service, deps := setupIntegration(t)
	ctx := context.Background()
	agent := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAgent)

	firstToken, err := service.Login(ctx, agent)
	require.NoError(t, err)

	maybeAgent, err := service.CheckToken(ctx, firstToken)
	require.NoError(t, err)
	require.True(t, maybeAgent.IsPresent())
	assert.Equal(t, agent.ID, maybeAgent.MustGet().ID)

	secondToken, err := service.Login(ctx, agent)
	require.NoError(t, err)
	require.NotEqual(t, firstToken, secondToken)

	// The superseded token still verifies structurally but no longer
	// matches storage, so it must be rejected.
	maybeAgent, err = service.CheckToken(ctx, firstToken)
	require.NoError(t, err)
	assert.False(t, maybeAgent.IsPresent())

	maybeAgent, err = service.CheckToken(ctx, secondToken)
	require.NoError(t, err)
	require.True(t, maybeAgent.IsPresent())

	// Logout closes the session and invalidates the surviving token too
	require.NoError(t, service.Logout(ctx, agent.ID))

	maybeAgent, err = service.CheckToken(ctx, secondToken)
	require.NoError(t, err)
	assert.False(t, maybeAgent.IsPresent())
}

func TestForceCloseFoldsLoginDuration(t *testing.T) {
	service, deps := setupIntegration(t)
	ctx := context.Background()
	agent := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAgent)

	_, err := service.Login(ctx, agent)
	require.NoError(t, err)

	// Backdate the login so the folded duration is visible at two decimals
	maybeSession, err := deps.sessionsRepo.GetSessionByAgentID(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeSession.IsPresent())
	session := maybeSession.MustGet()
	session.LoginAt = session.LoginAt.Add(-90 * time.Minute)
	require.NoError(t, deps.sessionsRepo.UpsertActiveSession(ctx, session))

	closed, err := service.ForceClose(ctx, agent.ID, false)
	require.NoError(t, err)
	assert.True(t, closed)

	maybeSession, err = deps.sessionsRepo.GetSessionByAgentID(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeSession.IsPresent())
	session = maybeSession.MustGet()
	assert.Equal(t, models.SessionStatusClosed, session.Status)
	assert.False(t, session.EmergencyFlag)
	require.NotNil(t, session.LogoutAt)

	maybeMetrics, err := deps.metricsService.GetToday(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeMetrics.IsPresent())
	assert.True(t, maybeMetrics.MustGet().LoginHour.Equal(decimal.NewFromFloat(1.5)),
		"login_hour = %s, want 1.5", maybeMetrics.MustGet().LoginHour)

	// Logout also tears down the open presence state
	maybeState, err := deps.presenceRepo.GetCurrentState(ctx, agent.ID, false)
	require.NoError(t, err)
	assert.False(t, maybeState.IsPresent())

	// A second close is a clean no-op
	closed, err = service.ForceClose(ctx, agent.ID, false)
	require.NoError(t, err)
	assert.False(t, closed)
}
