package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSender implements Sender for testing
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendOTP(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

func (m *MockSender) Channel() string {
	args := m.Called()
	return args.String(0)
}
