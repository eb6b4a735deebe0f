package chunker

import (
	"fmt"
	"strings"
)

// Default bounds on chunk length in characters.
const (
	DefaultMinChars = 40
	DefaultMaxChars = 160
)

// Options controls how text is chunked. Zero values take the defaults.
type Options struct {
	MinChars int
	MaxChars int
}

// Chunk represents a slice of the document text.
type Chunk struct {
	Index     int
	Text      string
	CharCount int
}

// ChunkText splits normalized document text into bounded-length chunks aligned
// to sentence boundaries where possible. Sentences are greedily accumulated
// into a chunk while it stays at or below MaxChars; a chunk that would fall
// below MinChars when closed out is dropped, except for slices forced out of a
// single oversized sentence, which are emitted unconditionally.
//
// The input is assumed to already be normalized (printable characters only,
// whitespace collapsed to single spaces); see textnorm.Format.
func ChunkText(text string, opts Options) ([]Chunk, error) {
	if opts.MinChars == 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.MaxChars == 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.MinChars < 0 || opts.MaxChars < 0 {
		return nil, fmt.Errorf("chunker: bounds must be positive (min=%d, max=%d)", opts.MinChars, opts.MaxChars)
	}
	if opts.MinChars > opts.MaxChars {
		return nil, fmt.Errorf("chunker: min chars %d exceeds max chars %d", opts.MinChars, opts.MaxChars)
	}

	var chunks []Chunk
	emit := func(s string) {
		chunks = append(chunks, Chunk{Index: len(chunks), Text: s, CharCount: len(s)})
	}

	current := ""
	for _, sentence := range SplitSentences(text) {
		// A single sentence longer than MaxChars leaves the accumulator
		// oversized; slice it down before consuming more input. Forced
		// slices bypass the MinChars floor.
		for len(current) > opts.MaxChars {
			emit(strings.TrimSpace(current[:opts.MaxChars]))
			current = current[opts.MaxChars:]
		}

		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) <= opts.MaxChars {
			current = candidate
			continue
		}

		if trimmed := strings.TrimSpace(current); len(trimmed) >= opts.MinChars {
			emit(trimmed)
		}
		current = sentence
	}

	for len(current) > opts.MaxChars {
		emit(strings.TrimSpace(current[:opts.MaxChars]))
		current = current[opts.MaxChars:]
	}
	// The trailing remainder is held to the floor; a short tail is dropped
	// rather than emitted under-length.
	if trimmed := strings.TrimSpace(current); len(trimmed) >= opts.MinChars {
		emit(trimmed)
	}
	return chunks, nil
}

// SplitSentences breaks text after a '.' or '?' followed by a whitespace
// character, consuming the separator. Two lookbehind shapes suppress the
// break to skip common abbreviation forms: word char, dot, word char, any
// char ending at the split point (catches "e.g." and "U.S."), and uppercase,
// lowercase, dot ending at the split point (catches "Mr." and "Dr.").
//
// This is a fixed heuristic, not a sentence tokenizer; it knowingly misses
// abbreviations outside those two shapes.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 1; i < len(text); i++ {
		if !isSpace(text[i]) {
			continue
		}
		if text[i-1] != '.' && text[i-1] != '?' {
			continue
		}
		if abbreviationBefore(text, i) {
			continue
		}
		sentences = append(sentences, text[start:i])
		start = i + 1
		i++ // separator consumed
	}
	return append(sentences, text[start:])
}

// abbreviationBefore reports whether either exclusion shape ends at split
// position i (the index of the whitespace separator).
func abbreviationBefore(text string, i int) bool {
	// \w\.\w. ending at i
	if i >= 4 && isWord(text[i-4]) && text[i-3] == '.' && isWord(text[i-2]) {
		return true
	}
	// [A-Z][a-z]\. ending at i
	if i >= 3 && text[i-3] >= 'A' && text[i-3] <= 'Z' && text[i-2] >= 'a' && text[i-2] <= 'z' && text[i-1] == '.' {
		return true
	}
	return false
}

func isWord(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
