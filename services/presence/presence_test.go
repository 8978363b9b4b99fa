package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfloor/db"
	"callfloor/models"
	"callfloor/services/metrics"
	"callfloor/services/txmanager"
	"callfloor/testutils"
)

// setupIntegration wires the service against a real database. Skipped when
// no test database is configured.
func setupIntegration(t *testing.T) (*PresenceService, *db.PostgresPresenceRepository, *db.PostgresAgentsRepository, *metrics.MetricsService) {
	cfg, err := testutils.LoadTestConfig()
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { dbConn.Close() })

	presenceRepo := db.NewPostgresPresenceRepository(dbConn, cfg.DatabaseSchema)
	agentsRepo := db.NewPostgresAgentsRepository(dbConn, cfg.DatabaseSchema)
	metricsRepo := db.NewPostgresLiveMetricsRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)
	metricsService := metrics.NewMetricsService(metricsRepo)
	service := NewPresenceService(presenceRepo, metricsService, txManager)

	return service, presenceRepo, agentsRepo, metricsService
}

func TestStateTransitionRoundTrip(t *testing.T) {
	service, presenceRepo, agentsRepo, metricsService := setupIntegration(t)
	ctx := context.Background()
	agent := testutils.CreateTestAgent(t, agentsRepo, models.AgentRoleAgent)

	_, err := metricsService.EnsureToday(ctx, agent.ID)
	require.NoError(t, err)

	require.NoError(t, service.SeedReady(ctx, agent.ID))

	maybeState, err := service.GetState(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeState.IsPresent())
	assert.Equal(t, models.StateReady, maybeState.MustGet().StateName)
	assert.Equal(t, models.PresenceStatusReady, maybeState.MustGet().Status)

	// Ready -> Lunch closes the Ready interval into history
	require.NoError(t, service.SetState(ctx, agent.ID, "Lunch"))

	maybeState, err = service.GetState(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeState.IsPresent())
	assert.Equal(t, "Lunch", maybeState.MustGet().StateName)
	assert.Equal(t, models.PresenceStatusBreak, maybeState.MustGet().Status)

	intervals, err := presenceRepo.GetIntervalsByAgentID(ctx, agent.ID, 10)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, models.StateReady, intervals[0].StateName)
	assert.False(t, intervals[0].EndedAt.Before(intervals[0].StartedAt))
	assert.Equal(t,
		int64(intervals[0].EndedAt.Sub(intervals[0].StartedAt).Seconds()),
		intervals[0].DurationSeconds)

	// Lunch -> Ready completes the break and folds it into the day's metrics
	require.NoError(t, service.SetState(ctx, agent.ID, models.StateReady))

	maybeMetrics, err := metricsService.GetToday(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeMetrics.IsPresent())
	assert.Equal(t, 1, maybeMetrics.MustGet().BreakCount)
	assert.Equal(t, "Lunch", maybeMetrics.MustGet().BreakNames)

	intervals, err = presenceRepo.GetIntervalsByAgentID(ctx, agent.ID, 10)
	require.NoError(t, err)
	require.Len(t, intervals, 2)

	// Logout folds the final interval and leaves no open state behind
	require.NoError(t, service.CloseCurrent(ctx, agent.ID))

	maybeState, err = service.GetState(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, maybeState.IsPresent())

	intervals, err = presenceRepo.GetIntervalsByAgentID(ctx, agent.ID, 10)
	require.NoError(t, err)
	assert.Len(t, intervals, 3)
}

func TestSetStateWithoutOpenState(t *testing.T) {
	service, _, agentsRepo, _ := setupIntegration(t)
	ctx := context.Background()
	agent := testutils.CreateTestAgent(t, agentsRepo, models.AgentRoleAgent)

	err := service.SetState(ctx, agent.ID, "Lunch")
	require.Error(t, err)
}

func TestSeedReadyFoldsLeftoverBreak(t *testing.T) {
	service, _, agentsRepo, metricsService := setupIntegration(t)
	ctx := context.Background()
	agent := testutils.CreateTestAgent(t, agentsRepo, models.AgentRoleAgent)

	_, err := metricsService.EnsureToday(ctx, agent.ID)
	require.NoError(t, err)

	require.NoError(t, service.SeedReady(ctx, agent.ID))
	require.NoError(t, service.SetState(ctx, agent.ID, "Tea"))

	// A re-login while a break is still open must not lose the break
	require.NoError(t, service.SeedReady(ctx, agent.ID))

	maybeState, err := service.GetState(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeState.IsPresent())
	assert.Equal(t, models.StateReady, maybeState.MustGet().StateName)

	maybeMetrics, err := metricsService.GetToday(ctx, agent.ID)
	require.NoError(t, err)
	require.True(t, maybeMetrics.IsPresent())
	assert.Equal(t, 1, maybeMetrics.MustGet().BreakCount)
	assert.Equal(t, "Tea", maybeMetrics.MustGet().BreakNames)

	require.NoError(t, service.CloseCurrent(ctx, agent.ID))
}
