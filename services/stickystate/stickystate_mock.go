package stickystate

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStateStore is a mock implementation of the StateStore interface
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Load(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockStateStore) Save(ctx context.Context, mapping map[string]string) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}
