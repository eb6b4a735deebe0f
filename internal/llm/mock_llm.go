package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/punitarani/prompt-gen/internal/prompt"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GeneratePairs(ctx context.Context, fullPrompt string) ([]prompt.Pair, error) {
	args := m.Called(ctx, fullPrompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]prompt.Pair), args.Error(1)
}
