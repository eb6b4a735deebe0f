package llm

import (
	"context"

	"github.com/punitarani/prompt-gen/internal/prompt"
)

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// GeneratePairs sends the assembled prompt and returns the parsed
	// prompt/generation pairs. Zero pairs is a valid response.
	GeneratePairs(ctx context.Context, fullPrompt string) ([]prompt.Pair, error)
}
