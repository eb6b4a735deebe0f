// Package export serializes generated datasets into the CSV download format:
// one row per prompt/generation pair with the source chunk alongside.
package export

import (
	"encoding/csv"
	"io"

	"github.com/punitarani/prompt-gen/internal/store"
)

// Filename is the default attachment name for dataset downloads.
const Filename = "data.csv"

var header = []string{"chunk", "prompt", "generation"}

// WriteCSV streams pairs as CSV with a header row.
func WriteCSV(w io.Writer, pairs []store.Pair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := cw.Write([]string{p.ChunkText, p.Prompt, p.Generation}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
