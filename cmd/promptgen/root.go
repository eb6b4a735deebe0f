package main

import (
	"github.com/spf13/cobra"
)

var (
	minChars int
	maxChars int
)

var rootCmd = &cobra.Command{
	Use:   "promptgen",
	Short: "Build synthetic prompt/generation datasets from documents",
	Long: `promptgen runs the dataset pipeline offline against local files:
extract text from PDF/TXT documents, split it into sentence-aligned chunks,
generate prompt/generation pairs per chunk, and export the result as CSV.

Example usage:
  promptgen chunk paper.pdf                            # Inspect chunking output
  promptgen generate notes.txt --quantity 50 -o data.csv
  promptgen export --db prompt-gen.db --job <id> -o data.csv`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&minChars, "min-chars", 40, "minimum chunk length in characters")
	rootCmd.PersistentFlags().IntVar(&maxChars, "max-chars", 160, "maximum chunk length in characters")
}
