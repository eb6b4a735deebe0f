package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/punitarani/prompt-gen/internal/app"
	"github.com/punitarani/prompt-gen/internal/chunker"
	"github.com/punitarani/prompt-gen/internal/config"
	"github.com/punitarani/prompt-gen/internal/export"
	"github.com/punitarani/prompt-gen/internal/extract"
	"github.com/punitarani/prompt-gen/internal/logger"
	"github.com/punitarani/prompt-gen/internal/prompt"
	"github.com/punitarani/prompt-gen/internal/store"
	"github.com/punitarani/prompt-gen/internal/textnorm"
)

var (
	genQuantity   int
	genDBPath     string
	genOutPath    string
	genProvider   string
	genBasePrompt string
	genReqPrompt  string
	genWorkers    int
)

var generateCmd = &cobra.Command{
	Use:   "generate <files...>",
	Short: "Run the full dataset pipeline over local files",
	Long: `Chunk the given documents, generate prompt/generation pairs for up to
--quantity chunks, store everything in a local database, and write the
dataset CSV. The stub provider fabricates pairs without API calls; use
--provider openai or --provider anthropic with the matching API key in the
environment for real generations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&genQuantity, "quantity", "q", 10, "number of chunks to process")
	generateCmd.Flags().StringVar(&genDBPath, "db", "prompt-gen.db", "local database path")
	generateCmd.Flags().StringVarP(&genOutPath, "out", "o", export.Filename, "output CSV path")
	generateCmd.Flags().StringVar(&genProvider, "provider", "stub", "LLM provider: stub, openai or anthropic")
	generateCmd.Flags().StringVar(&genBasePrompt, "base-prompt", "", "override the base prompt")
	generateCmd.Flags().StringVar(&genReqPrompt, "request-prompt", "", "override the request prompt")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 10, "parallel generation requests (MAX_WORKERS if unset)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.New("warn") // keep the terminal for the progress bar

	cfg := config.Load()
	cfg.LLMProvider = genProvider
	if !cmd.Flags().Changed("workers") {
		genWorkers = cfg.MaxWorkers
	}
	llmClient, err := app.BuildLLM(cfg, log)
	if err != nil {
		return err
	}

	st, err := store.NewBolt(genDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	job, chunks, err := ingest(ctx, st, args)
	if err != nil {
		return err
	}
	fmt.Printf("job %s: %d chunks across %d files\n", job.ID, len(chunks), len(args))

	bar := progressbar.Default(int64(len(chunks)), "generating")
	var mu sync.Mutex // bolt writes are serialized; keep pair batches atomic per chunk

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(genWorkers)
	for _, c := range chunks {
		g.Go(func() error {
			fullPrompt := prompt.Build(genBasePrompt, genReqPrompt, c.Text)
			pairs, err := llmClient.GeneratePairs(gctx, fullPrompt)
			if err != nil {
				return fmt.Errorf("generation failed for chunk %d: %w", c.Index, err)
			}
			storePairs := make([]store.Pair, 0, len(pairs))
			for _, p := range pairs {
				storePairs = append(storePairs, store.Pair{
					ChunkID:    c.ID,
					ChunkText:  c.Text,
					Prompt:     p.Prompt,
					Generation: p.Generation,
				})
			}
			mu.Lock()
			defer mu.Unlock()
			if err := st.SavePairs(gctx, job.ID, storePairs); err != nil {
				return err
			}
			if err := st.MarkChunkProcessed(gctx, job.ID, c.ID); err != nil {
				return err
			}
			return bar.Add(1)
		})
	}
	if err := g.Wait(); err != nil {
		_ = st.UpdateJobStatus(ctx, job.ID, store.JobFailed)
		return err
	}
	if err := st.UpdateJobStatus(ctx, job.ID, store.JobDone); err != nil {
		return err
	}

	if err := writeCSV(ctx, st, job.ID.String(), genOutPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s (job %s)\n", genOutPath, job.ID)
	return nil
}

// ingest chunks each file into the store and creates the generation job.
func ingest(ctx context.Context, st store.Store, paths []string) (store.Job, []store.Chunk, error) {
	var job store.Job
	var all []store.Chunk
	for _, path := range paths {
		if !extract.Supported(path) {
			return job, nil, fmt.Errorf("unsupported file type: %s", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return job, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		text, err := extract.Text(path, content)
		if err != nil {
			return job, nil, fmt.Errorf("failed to extract %s: %w", path, err)
		}
		chunks, err := chunker.ChunkText(textnorm.Format(text), chunker.Options{
			MinChars: minChars,
			MaxChars: maxChars,
		})
		if err != nil {
			return job, nil, err
		}

		doc, err := st.CreateDocument(ctx, path)
		if err != nil {
			return job, nil, err
		}
		storeChunks := make([]store.Chunk, 0, len(chunks))
		for _, c := range chunks {
			storeChunks = append(storeChunks, store.Chunk{Index: c.Index, Text: c.Text, CharCount: c.CharCount})
		}
		saved, err := st.SaveChunks(ctx, doc.ID, storeChunks)
		if err != nil {
			return job, nil, err
		}
		if err := st.UpdateDocumentStatus(ctx, doc.ID, store.StatusReady); err != nil {
			return job, nil, err
		}
		job.DocumentIDs = append(job.DocumentIDs, doc.ID)
		all = append(all, saved...)
	}
	if len(all) == 0 {
		return job, nil, fmt.Errorf("no chunks produced from input files")
	}
	if len(all) > genQuantity {
		all = all[:genQuantity]
	}
	job.Quantity = genQuantity
	job.ChunkCount = len(all)
	job.BasePrompt = genBasePrompt
	job.RequestPrompt = genReqPrompt
	created, err := st.CreateJob(ctx, job)
	if err != nil {
		return job, nil, err
	}
	return created, all, nil
}
