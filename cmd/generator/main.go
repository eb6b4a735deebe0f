package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/punitarani/prompt-gen/internal/app"
	"github.com/punitarani/prompt-gen/internal/httputil"
	"github.com/punitarani/prompt-gen/internal/prompt"
	"github.com/punitarani/prompt-gen/internal/queue"
	"github.com/punitarani/prompt-gen/internal/store"
)

type generateTaskPayload struct {
	JobID         string `json:"job_id"`
	ChunkID       string `json:"chunk_id"`
	ChunkText     string `json:"chunk_text"`
	BasePrompt    string `json:"base_prompt"`
	RequestPrompt string `json:"request_prompt"`
}

func main() {
	deps, err := app.BuildGenerator()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("generator worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeGenerate, func(ctx context.Context, task queue.Task) error {
			var payload generateTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleGenerate(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, "generator", deps.Config.Port)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("generator service stopped", "err", err)
	}
}

func handleGenerate(ctx context.Context, deps app.Deps, payload generateTaskPayload) error {
	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return err
	}
	chunkID, err := uuid.Parse(payload.ChunkID)
	if err != nil {
		return err
	}

	fullPrompt := prompt.Build(payload.BasePrompt, payload.RequestPrompt, payload.ChunkText)
	pairs, err := deps.LLM.GeneratePairs(ctx, fullPrompt)
	if err != nil {
		return err
	}

	// Zero pairs is a valid model response; the chunk still counts as processed.
	storePairs := make([]store.Pair, 0, len(pairs))
	for _, p := range pairs {
		storePairs = append(storePairs, store.Pair{
			ChunkID:    chunkID,
			ChunkText:  payload.ChunkText,
			Prompt:     p.Prompt,
			Generation: p.Generation,
		})
	}
	if err := deps.Store.SavePairs(ctx, jobID, storePairs); err != nil {
		return err
	}
	if err := deps.Store.MarkChunkProcessed(ctx, jobID, chunkID); err != nil {
		return err
	}
	if err := deps.Cache.InvalidateJob(ctx, jobID.String()); err != nil {
		deps.Log.Warn("failed to invalidate cached progress", "err", err, "job_id", jobID)
	}

	return finishJobIfDone(ctx, deps, jobID)
}

// finishJobIfDone marks the job done once every chunk has been processed.
func finishJobIfDone(ctx context.Context, deps app.Deps, jobID uuid.UUID) error {
	job, err := deps.Store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != store.JobRunning {
		return nil
	}
	processed, err := deps.Store.CountProcessedChunks(ctx, jobID)
	if err != nil {
		return err
	}
	if processed < job.ChunkCount {
		return nil
	}
	deps.Log.Info("job complete", "job_id", jobID, "chunks", processed)
	return deps.Store.UpdateJobStatus(ctx, jobID, store.JobDone)
}
