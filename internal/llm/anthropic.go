package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/punitarani/prompt-gen/internal/prompt"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	model     anthropic.Model
	maxTokens int64
	client    *anthropic.Client
}

const (
	defaultAnthropicModel     = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens = 1024
)

// NewAnthropicClient builds a Messages API client.
func NewAnthropicClient(apiKey string, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	cli := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))
	return &AnthropicClient{
		model:     anthropic.Model(model),
		maxTokens: defaultAnthropicMaxTokens,
		client:    &cli,
	}, nil
}

func (c *AnthropicClient) GeneratePairs(ctx context.Context, fullPrompt string) ([]prompt.Pair, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil anthropic client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	msg, err := c.client.Messages.New(reqCtx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt)),
		},
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("anthropic: empty response")
	}
	return prompt.ParsePairs([]byte(b.String()))
}
