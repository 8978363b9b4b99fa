package metrics

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"callfloor/models"
)

// MockMetricsService implements services.MetricsService for testing
type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) EnsureToday(ctx context.Context, agentID string) (*models.LiveMetrics, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LiveMetrics), args.Error(1)
}

func (m *MockMetricsService) GetToday(ctx context.Context, agentID string) (mo.Option[*models.LiveMetrics], error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(mo.Option[*models.LiveMetrics]), args.Error(1)
}

func (m *MockMetricsService) AddLoginDuration(ctx context.Context, agentID string, elapsed time.Duration) error {
	args := m.Called(ctx, agentID, elapsed)
	return args.Error(0)
}

func (m *MockMetricsService) RecordBreak(ctx context.Context, agentID, breakName string, durationSeconds int64) error {
	args := m.Called(ctx, agentID, breakName, durationSeconds)
	return args.Error(0)
}

func (m *MockMetricsService) SetInstantStatus(ctx context.Context, agentID string, status int) error {
	args := m.Called(ctx, agentID, status)
	return args.Error(0)
}

func (m *MockMetricsService) SetWrapup(ctx context.Context, agentID string, wrapup bool, waitUntil *time.Time) error {
	args := m.Called(ctx, agentID, wrapup, waitUntil)
	return args.Error(0)
}

func (m *MockMetricsService) RecordDial(ctx context.Context, agentID string) error {
	args := m.Called(ctx, agentID)
	return args.Error(0)
}

func (m *MockMetricsService) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
