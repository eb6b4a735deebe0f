package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetProgress(ctx context.Context, jobID string) (*Progress, error) {
	return nil, nil
}

func (c *NoOpCache) SetProgress(ctx context.Context, jobID string, p *Progress, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) InvalidateJob(ctx context.Context, jobID string) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
