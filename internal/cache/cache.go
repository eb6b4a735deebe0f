package cache

import (
	"context"
	"time"
)

// Cache shields the store from polling traffic on job progress.
type Cache interface {
	// GetProgress retrieves cached progress for a job.
	// Returns nil on a cache miss.
	GetProgress(ctx context.Context, jobID string) (*Progress, error)

	// SetProgress stores job progress with a TTL.
	SetProgress(ctx context.Context, jobID string, p *Progress, ttl time.Duration) error

	// InvalidateJob drops cached progress for a job (called after new pairs land).
	InvalidateJob(ctx context.Context, jobID string) error

	// Close closes the cache connection.
	Close() error
}

// Progress is the polling payload served to clients.
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Label     string `json:"label"`
}
