package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/punitarani/prompt-gen/internal/chunker"
	"github.com/punitarani/prompt-gen/internal/extract"
	"github.com/punitarani/prompt-gen/internal/textnorm"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Split a document into chunks and print them",
	Long: `Extract text from a PDF or TXT file, normalize it, and print the
resulting chunks with their lengths. Useful for tuning --min-chars and
--max-chars before a generation run.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !extract.Supported(path) {
		return fmt.Errorf("unsupported file type %q (only PDF and TXT allowed)", filepath.Ext(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	text, err := extract.Text(path, content)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	chunks, err := chunker.ChunkText(textnorm.Format(text), chunker.Options{
		MinChars: minChars,
		MaxChars: maxChars,
	})
	if err != nil {
		return err
	}

	for _, c := range chunks {
		fmt.Printf("[%d] (%d chars) %s\n", c.Index, c.CharCount, c.Text)
	}
	fmt.Printf("%d chunks\n", len(chunks))
	return nil
}
