package presence

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"callfloor/models"
)

// MockPresenceService implements services.PresenceService for testing
type MockPresenceService struct {
	mock.Mock
}

func (m *MockPresenceService) SeedReady(ctx context.Context, agentID string) error {
	args := m.Called(ctx, agentID)
	return args.Error(0)
}

func (m *MockPresenceService) SetState(ctx context.Context, agentID, stateName string) error {
	args := m.Called(ctx, agentID, stateName)
	return args.Error(0)
}

func (m *MockPresenceService) GetState(ctx context.Context, agentID string) (mo.Option[*models.AgentState], error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(mo.Option[*models.AgentState]), args.Error(1)
}

func (m *MockPresenceService) CloseCurrent(ctx context.Context, agentID string) error {
	args := m.Called(ctx, agentID)
	return args.Error(0)
}
