package livecalls

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRegistry implements Registry for testing
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) HasLiveCall(ctx context.Context, agentID string) (bool, error) {
	args := m.Called(ctx, agentID)
	return args.Bool(0), args.Error(1)
}
