package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/punitarani/prompt-gen/internal/app"
	"github.com/punitarani/prompt-gen/internal/chunker"
	"github.com/punitarani/prompt-gen/internal/httputil"
	"github.com/punitarani/prompt-gen/internal/queue"
	"github.com/punitarani/prompt-gen/internal/store"
	"github.com/punitarani/prompt-gen/internal/textnorm"
)

type extractTaskPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("extractor worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeExtract, func(ctx context.Context, task queue.Task) error {
			var payload extractTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleExtract(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, "extractor", deps.Config.Port)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("extractor service stopped", "err", err)
	}
}

func handleExtract(ctx context.Context, deps app.Deps, payload extractTaskPayload) error {
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return err
	}

	text := textnorm.Format(payload.Content)
	chunks, err := chunker.ChunkText(text, chunker.Options{
		MinChars: deps.Config.ChunkMinChars,
		MaxChars: deps.Config.ChunkMaxChars,
	})
	if err != nil {
		// Bad chunk bounds never heal on retry; mark the document failed.
		if upErr := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); upErr != nil {
			deps.Log.Error("failed to mark document failed", "err", upErr, "document_id", docID)
		}
		return err
	}

	storeChunks := make([]store.Chunk, 0, len(chunks))
	for _, c := range chunks {
		storeChunks = append(storeChunks, store.Chunk{
			Index:     c.Index,
			Text:      c.Text,
			CharCount: c.CharCount,
		})
	}
	if _, err := deps.Store.SaveChunks(ctx, docID, storeChunks); err != nil {
		return err
	}

	deps.Log.Info("document chunked", "document_id", docID, "filename", payload.Filename, "chunks", len(storeChunks))
	return deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusReady)
}
