package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockChatClient is a mock implementation of the ChatClient interface
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) PostMessage(ctx context.Context, channelID, content string) (string, error) {
	args := m.Called(ctx, channelID, content)
	return args.String(0), args.Error(1)
}

func (m *MockChatClient) ListMessagesAfter(ctx context.Context, channelID, afterID string) ([]Message, error) {
	args := m.Called(ctx, channelID, afterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockChatClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	args := m.Called(ctx, channelID, messageID)
	return args.Error(0)
}
