package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of Cache using testify/mock.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetProgress(ctx context.Context, jobID string) (*Progress, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Progress), args.Error(1)
}

func (m *MockCache) SetProgress(ctx context.Context, jobID string, p *Progress, ttl time.Duration) error {
	args := m.Called(ctx, jobID, p, ttl)
	return args.Error(0)
}

func (m *MockCache) InvalidateJob(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
