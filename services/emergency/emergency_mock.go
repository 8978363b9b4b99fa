package emergency

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmergencyService is a mock implementation of EmergencyService
type MockEmergencyService struct {
	mock.Mock
}

func (m *MockEmergencyService) ForceLogout(ctx context.Context, initiatorID, targetID string) error {
	args := m.Called(ctx, initiatorID, targetID)
	return args.Error(0)
}

func (m *MockEmergencyService) ForceLogoutAll(ctx context.Context, adminID string) (int, error) {
	args := m.Called(ctx, adminID)
	return args.Int(0), args.Error(1)
}

func (m *MockEmergencyService) EmergencyReset(ctx context.Context, initiatorID string) error {
	args := m.Called(ctx, initiatorID)
	return args.Error(0)
}
