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
	"github.com/punitarani/prompt-gen/internal/config"
	"github.com/punitarani/prompt-gen/internal/store"
)

func newTestDeps(st store.Store) app.Deps {
	return app.Deps{
		Store: st,
		Config: config.Config{
			ChunkMinChars: 10,
			ChunkMaxChars: 80,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleExtract(t *testing.T) {
	validDocID := uuid.New()

	tests := []struct {
		name    string
		payload extractTaskPayload
		setup   func(*store.MockStore)
		wantErr bool
	}{
		{
			name: "successful extract saves chunks and marks ready",
			payload: extractTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "test.txt",
				Content:    "This is the first sentence of the document. Here is another one to chunk.",
			},
			setup: func(s *store.MockStore) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.MatchedBy(func(chunks []store.Chunk) bool {
					return len(chunks) > 0
				})).Return([]store.Chunk{{ID: uuid.New(), DocumentID: validDocID}}, nil).Once()
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusReady).
					Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name: "raw content is normalized before chunking",
			payload: extractTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "messy.txt",
				Content:    "Spaced    out\n\ntext. It   still chunks\tcleanly after collapsing.",
			},
			setup: func(s *store.MockStore) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.MatchedBy(func(chunks []store.Chunk) bool {
					for _, c := range chunks {
						if strings.Contains(c.Text, "  ") || strings.ContainsAny(c.Text, "\n\t") {
							return false
						}
					}
					return len(chunks) > 0
				})).Return([]store.Chunk{{ID: uuid.New()}}, nil).Once()
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusReady).
					Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name: "invalid document ID returns error",
			payload: extractTaskPayload{
				DocumentID: "invalid-uuid",
				Filename:   "test.txt",
				Content:    "Test content",
			},
			setup:   func(s *store.MockStore) {},
			wantErr: true,
		},
		{
			name: "store SaveChunks failure propagates error",
			payload: extractTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "test.txt",
				Content:    "A sentence long enough to produce at least one chunk here.",
			},
			setup: func(s *store.MockStore) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.Anything).
					Return(nil, errors.New("database error")).Once()
				// UpdateDocumentStatus should NOT be called
			},
			wantErr: true,
		},
		{
			name: "empty content still marks document ready",
			payload: extractTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "empty.txt",
				Content:    "",
			},
			setup: func(s *store.MockStore) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.MatchedBy(func(chunks []store.Chunk) bool {
					return len(chunks) == 0
				})).Return([]store.Chunk{}, nil).Once()
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusReady).
					Return(nil).Once()
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			if tt.setup != nil {
				tt.setup(mockStore)
			}
			deps := newTestDeps(mockStore)

			err := handleExtract(context.Background(), deps, tt.payload)

			if (err != nil) != tt.wantErr {
				t.Errorf("handleExtract() error = %v, wantErr %v", err, tt.wantErr)
			}
			mockStore.AssertExpectations(t)
		})
	}
}

func TestHandleExtractInvalidBoundsMarksFailed(t *testing.T) {
	docID := uuid.New()
	mockStore := new(store.MockStore)
	mockStore.On("UpdateDocumentStatus", mock.Anything, docID, store.StatusFailed).
		Return(nil).Once()

	deps := newTestDeps(mockStore)
	deps.Config.ChunkMinChars = 500
	deps.Config.ChunkMaxChars = 100

	err := handleExtract(context.Background(), deps, extractTaskPayload{
		DocumentID: docID.String(),
		Filename:   "test.txt",
		Content:    "Some content to chunk with broken bounds.",
	})
	if err == nil {
		t.Error("expected error for invalid chunk bounds")
	}
	mockStore.AssertExpectations(t)
}
