package auth

import (
	"context"

	"github.com/stretchr/testify/mock"

	"callfloor/models"
)

// MockAuthService implements services.AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, agentID, secret string) (*models.Agent, bool, error) {
	args := m.Called(ctx, agentID, secret)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Agent), args.Bool(1), args.Error(2)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, agentID, code string) (*models.Agent, error) {
	args := m.Called(ctx, agentID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}
