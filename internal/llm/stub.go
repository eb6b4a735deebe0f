package llm

import (
	"context"
	"math/rand"

	"github.com/punitarani/prompt-gen/internal/prompt"
)

// StubClient fabricates pairs locally without any API call. Used for
// offline runs and tests.
type StubClient struct {
	rng *rand.Rand
}

// NewStubClient seeds a stub generator.
func NewStubClient(seed int64) *StubClient {
	return &StubClient{rng: rand.New(rand.NewSource(seed))}
}

func (c *StubClient) GeneratePairs(_ context.Context, _ string) ([]prompt.Pair, error) {
	return []prompt.Pair{{
		Prompt:     "prompt " + c.randomString(10),
		Generation: "generation " + c.randomString(20),
	}}, nil
}

func (c *StubClient) randomString(length int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, length)
	for i := range b {
		b[i] = letters[c.rng.Intn(len(letters))]
	}
	return string(b)
}
