package sessions

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"callfloor/models"
)

// MockSessionsService implements services.SessionsService for testing
type MockSessionsService struct {
	mock.Mock
}

func (m *MockSessionsService) Login(ctx context.Context, agent *models.Agent) (string, error) {
	args := m.Called(ctx, agent)
	return args.String(0), args.Error(1)
}

func (m *MockSessionsService) CheckToken(ctx context.Context, token string) (mo.Option[*models.Agent], error) {
	args := m.Called(ctx, token)
	return args.Get(0).(mo.Option[*models.Agent]), args.Error(1)
}

func (m *MockSessionsService) Logout(ctx context.Context, agentID string) error {
	args := m.Called(ctx, agentID)
	return args.Error(0)
}

func (m *MockSessionsService) ForceClose(ctx context.Context, agentID string, emergency bool) (bool, error) {
	args := m.Called(ctx, agentID, emergency)
	return args.Bool(0), args.Error(1)
}
