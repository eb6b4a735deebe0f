package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/punitarani/prompt-gen/internal/app"
	"github.com/punitarani/prompt-gen/internal/cache"
	"github.com/punitarani/prompt-gen/internal/llm"
	"github.com/punitarani/prompt-gen/internal/prompt"
	"github.com/punitarani/prompt-gen/internal/store"
)

func newTestDeps(st store.Store, l llm.Client, c cache.Cache) app.Deps {
	return app.Deps{
		Store: st,
		LLM:   l,
		Cache: c,
		Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleGenerate(t *testing.T) {
	jobID := uuid.New()
	chunkID := uuid.New()

	basePayload := generateTaskPayload{
		JobID:     jobID.String(),
		ChunkID:   chunkID.String(),
		ChunkText: "The subject context chunk.",
	}

	tests := []struct {
		name    string
		payload generateTaskPayload
		setup   func(*store.MockStore, *llm.MockClient, *cache.MockCache)
		wantErr bool
	}{
		{
			name:    "successful generation saves pairs and progress",
			payload: basePayload,
			setup: func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {
				l.On("GeneratePairs", mock.Anything, mock.MatchedBy(func(p string) bool {
					return strings.Contains(p, "Context: The subject context chunk.")
				})).Return([]prompt.Pair{{Prompt: "p", Generation: "g"}}, nil).Once()

				s.On("SavePairs", mock.Anything, jobID, mock.MatchedBy(func(pairs []store.Pair) bool {
					return len(pairs) == 1 && pairs[0].ChunkID == chunkID && pairs[0].ChunkText == basePayload.ChunkText
				})).Return(nil).Once()
				s.On("MarkChunkProcessed", mock.Anything, jobID, chunkID).Return(nil).Once()
				c.On("InvalidateJob", mock.Anything, jobID.String()).Return(nil).Once()

				// Job not yet complete
				s.On("GetJob", mock.Anything, jobID).
					Return(store.Job{ID: jobID, Status: store.JobRunning, ChunkCount: 5}, nil).Once()
				s.On("CountProcessedChunks", mock.Anything, jobID).Return(3, nil).Once()
			},
			wantErr: false,
		},
		{
			name:    "last chunk marks job done",
			payload: basePayload,
			setup: func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {
				l.On("GeneratePairs", mock.Anything, mock.Anything).
					Return([]prompt.Pair{{Prompt: "p", Generation: "g"}}, nil).Once()
				s.On("SavePairs", mock.Anything, jobID, mock.Anything).Return(nil).Once()
				s.On("MarkChunkProcessed", mock.Anything, jobID, chunkID).Return(nil).Once()
				c.On("InvalidateJob", mock.Anything, jobID.String()).Return(nil).Once()

				s.On("GetJob", mock.Anything, jobID).
					Return(store.Job{ID: jobID, Status: store.JobRunning, ChunkCount: 5}, nil).Once()
				s.On("CountProcessedChunks", mock.Anything, jobID).Return(5, nil).Once()
				s.On("UpdateJobStatus", mock.Anything, jobID, store.JobDone).Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name:    "zero pairs still counts the chunk as processed",
			payload: basePayload,
			setup: func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {
				l.On("GeneratePairs", mock.Anything, mock.Anything).
					Return([]prompt.Pair{}, nil).Once()
				s.On("SavePairs", mock.Anything, jobID, mock.MatchedBy(func(pairs []store.Pair) bool {
					return len(pairs) == 0
				})).Return(nil).Once()
				s.On("MarkChunkProcessed", mock.Anything, jobID, chunkID).Return(nil).Once()
				c.On("InvalidateJob", mock.Anything, jobID.String()).Return(nil).Once()

				s.On("GetJob", mock.Anything, jobID).
					Return(store.Job{ID: jobID, Status: store.JobRunning, ChunkCount: 2}, nil).Once()
				s.On("CountProcessedChunks", mock.Anything, jobID).Return(1, nil).Once()
			},
			wantErr: false,
		},
		{
			name:    "llm failure propagates for retry",
			payload: basePayload,
			setup: func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {
				l.On("GeneratePairs", mock.Anything, mock.Anything).
					Return(nil, errors.New("rate limited")).Once()
				// SavePairs should NOT be called
			},
			wantErr: true,
		},
		{
			name: "invalid job id returns error",
			payload: generateTaskPayload{
				JobID:   "not-a-uuid",
				ChunkID: chunkID.String(),
			},
			setup:   func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {},
			wantErr: true,
		},
		{
			name:    "cache invalidation failure is non-fatal",
			payload: basePayload,
			setup: func(s *store.MockStore, l *llm.MockClient, c *cache.MockCache) {
				l.On("GeneratePairs", mock.Anything, mock.Anything).
					Return([]prompt.Pair{{Prompt: "p", Generation: "g"}}, nil).Once()
				s.On("SavePairs", mock.Anything, jobID, mock.Anything).Return(nil).Once()
				s.On("MarkChunkProcessed", mock.Anything, jobID, chunkID).Return(nil).Once()
				c.On("InvalidateJob", mock.Anything, jobID.String()).
					Return(errors.New("redis down")).Once()

				s.On("GetJob", mock.Anything, jobID).
					Return(store.Job{ID: jobID, Status: store.JobRunning, ChunkCount: 5}, nil).Once()
				s.On("CountProcessedChunks", mock.Anything, jobID).Return(1, nil).Once()
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockLLM := new(llm.MockClient)
			mockCache := new(cache.MockCache)
			if tt.setup != nil {
				tt.setup(mockStore, mockLLM, mockCache)
			}
			deps := newTestDeps(mockStore, mockLLM, mockCache)

			err := handleGenerate(context.Background(), deps, tt.payload)

			if (err != nil) != tt.wantErr {
				t.Errorf("handleGenerate() error = %v, wantErr %v", err, tt.wantErr)
			}
			mockStore.AssertExpectations(t)
			mockLLM.AssertExpectations(t)
			mockCache.AssertExpectations(t)
		})
	}
}
