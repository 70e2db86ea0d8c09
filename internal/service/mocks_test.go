package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock for Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, chatID int64, text string, buttons [][]Button) error {
	args := m.Called(ctx, chatID, text, buttons)
	return args.Error(0)
}
