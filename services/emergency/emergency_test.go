package emergency

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
	"callfloor/services/metrics"
	"callfloor/services/presence"
	"callfloor/services/sessions"
	"callfloor/services/txmanager"
	"callfloor/testutils"
)

type integrationDeps struct {
	agentsRepo      *db.PostgresAgentsRepository
	sessionsRepo    *db.PostgresSessionsRepository
	presenceRepo    *db.PostgresPresenceRepository
	sessionsService *sessions.SessionsService
	metricsService  *metrics.MetricsService
}

// setupIntegration wires the full service stack against a real database.
// Skipped when no test database is configured.
func setupIntegration(t *testing.T) (*EmergencyService, *integrationDeps) {
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
	sessionsService := sessions.NewSessionsService(
		agentsRepo, sessionsRepo, presenceService, metricsService, txManager, cfg.JWTSecret)
	service := NewEmergencyService(
		agentsRepo, sessionsRepo, presenceRepo, sessionsService, metricsService, txManager)

	return service, &integrationDeps{
		agentsRepo:      agentsRepo,
		sessionsRepo:    sessionsRepo,
		presenceRepo:    presenceRepo,
		sessionsService: sessionsService,
		metricsService:  metricsService,
	}
}

func backdateLogin(t *testing.T, deps *integrationDeps, agentID string, by time.Duration) {
	ctx := context.Background()
	maybeSession, err := deps.sessionsRepo.GetSessionByAgentID(ctx, agentID)
	require.NoError(t, err)
	require.True(t, maybeSession.IsPresent())
	session := maybeSession.MustGet()
	session.LoginAt = session.LoginAt.Add(-by)
	require.NoError(t, deps.sessionsRepo.UpsertActiveSession(ctx, session))
}

func TestForceLogoutStampsEmergencyFlag(t *testing.T) {
	service, deps := setupIntegration(t)
	ctx := context.Background()

	admin := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAdmin)
	target := testutils.CreateTestAgentWithAdmin(t, deps.agentsRepo, models.AgentRoleAgent, admin.ID)

	token, err := deps.sessionsService.Login(ctx, target)
	require.NoError(t, err)

	require.NoError(t, service.ForceLogout(ctx, admin.ID, target.ID))

	// A forced closure must be distinguishable from a self-logout
	maybeSession, err := deps.sessionsRepo.GetSessionByAgentID(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, maybeSession.IsPresent())
	session := maybeSession.MustGet()
	assert.Equal(t, models.SessionStatusClosed, session.Status)
	assert.True(t, session.EmergencyFlag)
	require.NotNil(t, session.EmergencyAt)
	require.NotNil(t, session.LogoutAt)

	maybeAgent, err := deps.sessionsService.CheckToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, maybeAgent.IsPresent())

	// Repeating the force logout is a no-op, not an error
	require.NoError(t, service.ForceLogout(ctx, admin.ID, target.ID))
}

func TestForceLogoutAllClosesFleet(t *testing.T) {
	service, deps := setupIntegration(t)
	ctx := context.Background()

	admin := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAdmin)
	first := testutils.CreateTestAgentWithAdmin(t, deps.agentsRepo, models.AgentRoleAgent, admin.ID)
	second := testutils.CreateTestAgentWithAdmin(t, deps.agentsRepo, models.AgentRoleAgent, admin.ID)

	_, err := deps.sessionsService.Login(ctx, first)
	require.NoError(t, err)
	_, err = deps.sessionsService.Login(ctx, second)
	require.NoError(t, err)

	backdateLogin(t, deps, first.ID, 30*time.Minute)
	backdateLogin(t, deps, second.ID, 90*time.Minute)

	closed, err := service.ForceLogoutAll(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	expected := map[string]decimal.Decimal{
		first.ID:  decimal.NewFromFloat(0.5),
		second.ID: decimal.NewFromFloat(1.5),
	}
	for agentID, wantHours := range expected {
		maybeSession, err := deps.sessionsRepo.GetSessionByAgentID(ctx, agentID)
		require.NoError(t, err)
		require.True(t, maybeSession.IsPresent())
		assert.Equal(t, models.SessionStatusClosed, maybeSession.MustGet().Status)
		assert.True(t, maybeSession.MustGet().EmergencyFlag)

		maybeMetrics, err := deps.metricsService.GetToday(ctx, agentID)
		require.NoError(t, err)
		require.True(t, maybeMetrics.IsPresent())
		assert.True(t, maybeMetrics.MustGet().LoginHour.Equal(wantHours),
			"login_hour = %s, want %s", maybeMetrics.MustGet().LoginHour, wantHours)

		maybeState, err := deps.presenceRepo.GetCurrentState(ctx, agentID, false)
		require.NoError(t, err)
		assert.False(t, maybeState.IsPresent())
	}

	// A second sweep finds nothing left to close
	closed, err = service.ForceLogoutAll(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestForceLogoutAuthorization(t *testing.T) {
	service, deps := setupIntegration(t)
	ctx := context.Background()

	outsider := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAgent)
	target := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAgent)

	t.Run("plain agent cannot force logout", func(t *testing.T) {
		err := service.ForceLogout(ctx, outsider.ID, target.ID)
		require.Error(t, err)
		assert.True(t, core.IsNotAuthorizedError(err))
	})

	t.Run("unknown target reads as not found", func(t *testing.T) {
		admin := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAdmin)
		err := service.ForceLogout(ctx, admin.ID, "agent-missing")
		require.Error(t, err)
		assert.True(t, core.IsNotFoundError(err))
	})

	t.Run("plain agent cannot sweep a fleet", func(t *testing.T) {
		_, err := service.ForceLogoutAll(ctx, outsider.ID)
		require.Error(t, err)
		assert.True(t, core.IsNotAuthorizedError(err))
	})

	t.Run("non-superadmin cannot reset the floor", func(t *testing.T) {
		admin := testutils.CreateTestAgent(t, deps.agentsRepo, models.AgentRoleAdmin)
		err := service.EmergencyReset(ctx, admin.ID)
		require.Error(t, err)
		assert.True(t, core.IsNotAuthorizedError(err))
	})
}
