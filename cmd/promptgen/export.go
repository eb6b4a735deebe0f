package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/punitarani/prompt-gen/internal/export"
	"github.com/punitarani/prompt-gen/internal/store"
)

var (
	expDBPath  string
	expJobID   string
	expOutPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored job's pairs as CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&expDBPath, "db", "prompt-gen.db", "local database path")
	exportCmd.Flags().StringVar(&expJobID, "job", "", "job id to export (printed by generate)")
	exportCmd.Flags().StringVarP(&expOutPath, "out", "o", export.Filename, "output CSV path")
	_ = exportCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := store.NewBolt(expDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := writeCSV(cmd.Context(), st, expJobID, expOutPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", expOutPath)
	return nil
}

func writeCSV(ctx context.Context, st store.Store, jobID, outPath string) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", jobID, err)
	}
	if _, err := st.GetJob(ctx, id); err != nil {
		return err
	}
	pairs, err := st.ListPairs(ctx, id)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()
	return export.WriteCSV(f, pairs)
}
