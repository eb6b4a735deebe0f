package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

func TestEnqueueWithRetry(t *testing.T) {
	task := Task{Type: TaskTypeExtract, Payload: []byte(`{}`)}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(nil).Once()

		if err := EnqueueWithRetry(context.Background(), q, task, 3, time.Millisecond); err != nil {
			t.Fatalf("EnqueueWithRetry() error = %v", err)
		}
		q.AssertExpectations(t)
	})

	t.Run("retries until an attempt succeeds", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(errors.New("broker unavailable")).Twice()
		q.On("Enqueue", mock.Anything, task).Return(nil).Once()

		if err := EnqueueWithRetry(context.Background(), q, task, 3, time.Millisecond); err != nil {
			t.Fatalf("EnqueueWithRetry() error = %v", err)
		}
		q.AssertExpectations(t)
	})

	t.Run("returns last error when all attempts fail", func(t *testing.T) {
		q := new(MockQueue)
		wantErr := errors.New("broker unavailable")
		q.On("Enqueue", mock.Anything, task).Return(wantErr).Times(3)

		err := EnqueueWithRetry(context.Background(), q, task, 3, time.Millisecond)
		if !errors.Is(err, wantErr) {
			t.Fatalf("EnqueueWithRetry() error = %v, want %v", err, wantErr)
		}
		q.AssertExpectations(t)
	})

	t.Run("stops retrying when context is cancelled", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(errors.New("broker unavailable")).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := EnqueueWithRetry(ctx, q, task, 3, time.Hour)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("EnqueueWithRetry() error = %v, want context.Canceled", err)
		}
		q.AssertExpectations(t)
	})
}
