package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrJobNotFound      = errors.New("job not found")
)

type Document struct {
	ID        uuid.UUID
	Filename  string
	Status    DocumentStatus
	CreatedAt time.Time
}

type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Index      int
	Text       string
	CharCount  int
}

// Job is one dataset-generation run over the chunks of a set of documents.
type Job struct {
	ID            uuid.UUID
	Status        JobStatus
	Quantity      int
	BasePrompt    string
	RequestPrompt string
	DocumentIDs   []uuid.UUID
	ChunkCount    int
	CreatedAt     time.Time
}

// Pair is one generated dataset row, tied back to its source chunk.
type Pair struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	ChunkID    uuid.UUID
	ChunkText  string
	Prompt     string
	Generation string
	CreatedAt  time.Time
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateDocument(ctx context.Context, filename string) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
	SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error)
	ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error)

	CreateJob(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus) error
	SavePairs(ctx context.Context, jobID uuid.UUID, pairs []Pair) error
	ListPairs(ctx context.Context, jobID uuid.UUID) ([]Pair, error)

	// MarkChunkProcessed records that a chunk finished generation for a job,
	// whether or not it produced pairs. CountProcessedChunks reports how many
	// of the job's chunks are done; it drives progress and completion.
	MarkChunkProcessed(ctx context.Context, jobID, chunkID uuid.UUID) error
	CountProcessedChunks(ctx context.Context, jobID uuid.UUID) (int, error)
}
