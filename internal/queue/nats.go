package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/punitarani/prompt-gen/internal/retry"
)

const (
	subjectPrefix      = "tasks."
	defaultMaxAttempts = 5
)

type natsQueue struct {
	nc  *nats.Conn
	log *slog.Logger
}

// NewNATS wraps a core NATS connection as a task queue. Each task type gets
// its own subject, and workers of the same type share a queue group so a task
// is delivered to exactly one of them.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{nc: nc, log: log}
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("queue: task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.nc.Publish(subjectPrefix+string(task.Type), body)
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	group := "workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subjectPrefix+string(taskType), group, func(msg *nats.Msg) {
		var task Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			q.log.Error("dropping undecodable task", "type", taskType, "err", err)
			return
		}
		q.run(ctx, task, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

// run executes one task, honoring its delayed-delivery time and re-enqueueing
// with backoff on failure until the attempt budget runs out.
func (q *natsQueue) run(ctx context.Context, task Task, handler Handler) {
	if wait := time.Until(task.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	err := handler(ctx, task)
	if err == nil {
		return
	}

	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = defaultMaxAttempts
	}
	log := q.log.With("id", task.ID, "type", task.Type, "attempt", task.Attempts)
	if task.Attempts >= task.MaxAttempts {
		log.Error("task failed permanently", "err", err)
		return
	}
	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, time.Second))
	if enqErr := q.Enqueue(ctx, task); enqErr != nil {
		log.Error("failed to re-enqueue task", "err", err, "enqueue_err", enqErr)
		return
	}
	log.Warn("task failed, retrying", "err", err, "not_before", task.NotBefore)
}
