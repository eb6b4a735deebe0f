package chunker

import (
	"strings"
	"testing"
)

func TestChunkTextSentenceAccumulation(t *testing.T) {
	text := "Hello world. This is a test sentence that is somewhat longer than the minimum. Short."
	chunks, err := ChunkText(text, Options{MinChars: 10, MaxChars: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Hello world.",
		"This is a test sentence that is somewhat",
		"longer than the minimum. Short.",
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, c.Text, want[i])
		}
		if c.Index != i {
			t.Errorf("chunk %d: index %d", i, c.Index)
		}
		if c.CharCount != len(c.Text) {
			t.Errorf("chunk %d: char count %d, text length %d", i, c.CharCount, len(c.Text))
		}
		if len(c.Text) > 40 {
			t.Errorf("chunk %d exceeds max chars: %d", i, len(c.Text))
		}
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunks, err := ChunkText("", Options{MinChars: 10, MaxChars: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkTextShortInputDropped(t *testing.T) {
	// A lone sentence below the floor never reaches MinChars and is dropped.
	chunks, err := ChunkText("too short", Options{MinChars: 40, MaxChars: 160})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d: %v", len(chunks), chunks)
	}
}

func TestChunkTextForcedSlices(t *testing.T) {
	// One giant "sentence" with no whitespace or punctuation is sliced into
	// exact MaxChars pieces, none filtered by the floor.
	text := strings.Repeat("a", 500)
	chunks, err := ChunkText(text, Options{MinChars: 40, MaxChars: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) != 100 {
			t.Errorf("chunk %d: expected length 100, got %d", i, len(c.Text))
		}
	}
}

func TestChunkTextForcedSliceBelowFloor(t *testing.T) {
	// Forced slices are emitted even when trimming leaves them under MinChars;
	// only the natural tail is held to the floor.
	text := strings.Repeat("b", 105)
	chunks, err := ChunkText(text, Options{MinChars: 40, MaxChars: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk (5-char tail dropped), got %d", len(chunks))
	}
	if len(chunks[0].Text) != 100 {
		t.Errorf("expected forced slice of 100 chars, got %d", len(chunks[0].Text))
	}
}

func TestChunkTextDropsShortTail(t *testing.T) {
	text := "This is a reasonably long first sentence for the chunk. Tiny."
	chunks, err := ChunkText(text, Options{MinChars: 20, MaxChars: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "This is a reasonably long first sentence for the chunk." {
		t.Errorf("unexpected chunk: %q", chunks[0].Text)
	}
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("Sentences of a reasonable length pad out the document body. ", 20)
	chunks, err := ChunkText(strings.TrimSpace(text), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks with default options")
	}
	for i, c := range chunks {
		if len(c.Text) > DefaultMaxChars {
			t.Errorf("chunk %d exceeds default max chars: %d", i, len(c.Text))
		}
	}
}

func TestChunkTextInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"min above max", Options{MinChars: 200, MaxChars: 100}},
		{"negative min", Options{MinChars: -1, MaxChars: 100}},
		{"negative max", Options{MinChars: 10, MaxChars: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ChunkText("some text", tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestChunkTextOrderAndBounds(t *testing.T) {
	text := "Alpha comes first in the story. Bravo follows right after it. " +
		"Charlie is the third of the group. Delta closes out the opening act. " +
		"Echo starts the second half here. Foxtrot keeps the narrative going strong."
	chunks, err := ChunkText(text, Options{MinChars: 20, MaxChars: 80})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Chunks must appear in source order: each chunk's first word occurs
	// later in the input than the previous chunk's.
	prev := -1
	for i, c := range chunks {
		if len(c.Text) > 80 {
			t.Errorf("chunk %d exceeds max chars: %d", i, len(c.Text))
		}
		pos := strings.Index(text, strings.Fields(c.Text)[0])
		if pos <= prev {
			t.Errorf("chunk %d out of order (pos %d after %d)", i, pos, prev)
		}
		prev = pos
	}
}

func TestChunkTextRechunkStable(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog near the river bank. " +
		"A second sentence continues the passage with more detail. " +
		"Third sentences tend to wrap up the paragraph nicely."
	opts := Options{MinChars: 20, MaxChars: 70}
	first, err := ChunkText(text, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parts []string
	total := 0
	for _, c := range first {
		parts = append(parts, c.Text)
		total += len(c.Text)
	}
	second, err := ChunkText(strings.Join(parts, " "), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retotal := 0
	for _, c := range second {
		if len(c.Text) > opts.MaxChars {
			t.Errorf("rechunked chunk exceeds max chars: %d", len(c.Text))
		}
		retotal += len(c.Text)
	}
	// Re-chunking emitted content may only lose a sub-MinChars tail.
	if total-retotal > opts.MinChars {
		t.Errorf("rechunking lost %d chars, more than the floor %d", total-retotal, opts.MinChars)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain boundaries",
			text: "One fish. Two fish? Red fish.",
			want: []string{"One fish.", "Two fish?", "Red fish."},
		},
		{
			name: "title abbreviation not split",
			text: "Mr. Smith went to town. He came back.",
			want: []string{"Mr. Smith went to town.", "He came back."},
		},
		{
			name: "lowercase abbreviation not split",
			text: "Use tools, e.g. hammers, with care. Stay safe.",
			want: []string{"Use tools, e.g. hammers, with care.", "Stay safe."},
		},
		{
			name: "dotted acronym not split",
			text: "The U.S. economy grew. Markets rallied.",
			want: []string{"The U.S. economy grew.", "Markets rallied."},
		},
		{
			name: "no terminal punctuation",
			text: "no boundary here at all",
			want: []string{"no boundary here at all"},
		},
		{
			name: "empty",
			text: "",
			want: []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
