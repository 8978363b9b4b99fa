package dispatch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"callfloor/models"
	"callfloor/services"
)

// MockDispatchService is a mock implementation of DispatchService
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) NextLead(ctx context.Context, agent *models.Agent) (*models.DispatchResult, error) {
	args := m.Called(ctx, agent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

func (m *MockDispatchService) SetWrapup(ctx context.Context, agentID string, wrapup bool) error {
	args := m.Called(ctx, agentID, wrapup)
	return args.Error(0)
}

func (m *MockDispatchService) WrapupStatus(ctx context.Context, agentID string) (*services.WrapupStatus, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WrapupStatus), args.Error(1)
}
