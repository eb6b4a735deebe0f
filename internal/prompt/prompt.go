package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultBase is the subject context preamble sent ahead of every chunk.
const DefaultBase = `You are a scientifically accurate AI that has been tasked with generating a prompt and its generation.

The prompt should be a sentence or two that is grammatically correct and makes sense.
The prompt is the input to the AI by a human and is typically a question or a statement that is open-ended.

The generation can be anything that is factually accurate and grammatically correct.
The generation is the output of the AI and is typically a paragraph or two that answers the prompt.
However, the generation can be shorter or longer based on the prompt and its complexity.

Generate a prompt and its generation based on the subject context.
The subject context is provided below.`

// DefaultRequest is appended after the chunk to ask for pairs in JSON form.
const DefaultRequest = `Now, generate a prompt and its generation based on the subject context.
You must generate between 0 and 5 prompts and their generations.
Only generate multiple prompts and their generations if they are semantically unique.`

// Pair is one generated prompt/generation row of the dataset.
type Pair struct {
	Prompt     string `json:"prompt"`
	Generation string `json:"generation"`
}

type response struct {
	Response []Pair `json:"response"`
}

// Build assembles the full model prompt for a chunk. Empty base or request
// strings fall back to the defaults.
func Build(base, request, chunk string) string {
	if base == "" {
		base = DefaultBase
	}
	if request == "" {
		request = DefaultRequest
	}
	return fmt.Sprintf(`%s

Context: %s

%s

Output the prompt and its generation formatted as a JSON object.
{"response": [{"prompt": "...", "generation": "..."}]}

If you are unable to generate a prompt and its generation, output a JSON object with an empty list as the response.`,
		base, chunk, request)
}

// ParsePairs decodes a model response of the form
// {"response": [{"prompt": ..., "generation": ...}, ...]}.
// An empty response list is a valid result, not an error. Markdown code
// fences around the JSON object are tolerated.
func ParsePairs(raw []byte) ([]Pair, error) {
	cleaned := stripFences(strings.TrimSpace(string(raw)))
	var resp response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("prompt: decode model response: %w", err)
	}
	pairs := make([]Pair, 0, len(resp.Response))
	for _, p := range resp.Response {
		if p.Prompt == "" || p.Generation == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
