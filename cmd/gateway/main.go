package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/punitarani/prompt-gen/internal/app"
	"github.com/punitarani/prompt-gen/internal/cache"
	"github.com/punitarani/prompt-gen/internal/export"
	"github.com/punitarani/prompt-gen/internal/extract"
	"github.com/punitarani/prompt-gen/internal/httputil"
	"github.com/punitarani/prompt-gen/internal/queue"
	"github.com/punitarani/prompt-gen/internal/store"
)

type extractTaskPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

type generateTaskPayload struct {
	JobID         string `json:"job_id"`
	ChunkID       string `json:"chunk_id"`
	ChunkText     string `json:"chunk_text"`
	BasePrompt    string `json:"base_prompt"`
	RequestPrompt string `json:"request_prompt"`
}

type createJobRequest struct {
	DocumentIDs   []string `json:"document_ids" validate:"required,min=1,dive,uuid4"`
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	BasePrompt    string   `json:"base_prompt" validate:"omitempty,max=2000"`
	RequestPrompt string   `json:"request_prompt" validate:"omitempty,max=2000"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Get("/api/documents/{id}", documentHandler(deps))
	r.Post("/api/jobs", createJobHandler(deps))
	r.Get("/api/jobs/{id}/progress", progressHandler(deps))
	r.Get("/api/jobs/{id}/pairs", pairsHandler(deps))
	r.Get("/api/jobs/{id}/export", exportHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if !extract.Supported(header.Filename) {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(header.Filename, content)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract text", err, http.StatusBadRequest)
			return
		}

		doc, err := deps.Store.CreateDocument(ctx, header.Filename)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist document", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(extractTaskPayload{
			DocumentID: doc.ID.String(),
			Filename:   header.Filename,
			Content:    text,
		})
		if err != nil {
			failDocument(deps, ctx, w, "marshal payload failed", err, doc.ID, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeExtract, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			failDocument(deps, ctx, w, "failed to enqueue document; please retry", err, doc.ID, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"document_id": doc.ID.String(),
			"status":      doc.Status,
		})
	}
}

// failDocument is a gateway-specific error handler that marks the document failed.
func failDocument(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, docID uuid.UUID, status int) {
	log := deps.Log.With("document_id", docID)
	if docID != uuid.Nil {
		if upErr := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark document failed", "err", upErr)
		}
	}
	httputil.Fail(log, w, message, err, status)
}

func documentHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid document id", err, http.StatusBadRequest)
			return
		}
		doc, err := deps.Store.GetDocument(r.Context(), docID)
		if err != nil {
			httputil.Fail(deps.Log, w, "document not found", err, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document_id": doc.ID.String(),
			"filename":    doc.Filename,
			"status":      doc.Status,
			"created_at":  doc.CreatedAt,
		})
	}
}

func createJobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		ctx := r.Context()
		job, chunks, err := prepareJob(ctx, deps, req)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		job, err = deps.Store.CreateJob(ctx, job)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist job", err, http.StatusInternalServerError)
			return
		}

		for _, c := range chunks {
			body, err := json.Marshal(generateTaskPayload{
				JobID:         job.ID.String(),
				ChunkID:       c.ID.String(),
				ChunkText:     c.Text,
				BasePrompt:    job.BasePrompt,
				RequestPrompt: job.RequestPrompt,
			})
			if err != nil {
				failJob(deps, ctx, w, "marshal task failed", err, job.ID)
				return
			}
			task := queue.Task{Type: queue.TaskTypeGenerate, Payload: body}
			if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
				failJob(deps, ctx, w, "failed to enqueue generation; please retry", err, job.ID)
				return
			}
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"job_id": job.ID.String(),
			"status": job.Status,
			"total":  job.ChunkCount,
		})
	}
}

// prepareJob resolves the request's documents into the chunk list the job
// will process: chunks in document order, trimmed to the requested quantity.
func prepareJob(ctx context.Context, deps app.Deps, req createJobRequest) (store.Job, []store.Chunk, error) {
	var docIDs []uuid.UUID
	var chunks []store.Chunk
	for _, idStr := range req.DocumentIDs {
		docID, err := uuid.Parse(idStr)
		if err != nil {
			return store.Job{}, nil, fmt.Errorf("invalid document id %q", idStr)
		}
		doc, err := deps.Store.GetDocument(ctx, docID)
		if err != nil {
			return store.Job{}, nil, fmt.Errorf("document %s not found", docID)
		}
		if doc.Status != store.StatusReady {
			return store.Job{}, nil, fmt.Errorf("document %s is not ready (status %s)", docID, doc.Status)
		}
		docChunks, err := deps.Store.ListChunks(ctx, docID)
		if err != nil {
			return store.Job{}, nil, fmt.Errorf("failed to list chunks for %s: %w", docID, err)
		}
		docIDs = append(docIDs, docID)
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return store.Job{}, nil, fmt.Errorf("documents contain no chunks")
	}
	if len(chunks) > req.Quantity {
		chunks = chunks[:req.Quantity]
	}
	job := store.Job{
		Status:        store.JobRunning,
		Quantity:      req.Quantity,
		BasePrompt:    req.BasePrompt,
		RequestPrompt: req.RequestPrompt,
		DocumentIDs:   docIDs,
		ChunkCount:    len(chunks),
	}
	return job, chunks, nil
}

func failJob(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, jobID uuid.UUID) {
	log := deps.Log.With("job_id", jobID)
	if upErr := deps.Store.UpdateJobStatus(ctx, jobID, store.JobFailed); upErr != nil {
		log.Error("failed to mark job failed", "err", upErr)
	}
	httputil.Fail(log, w, message, err, http.StatusInternalServerError)
}

func progressHandler(deps app.Deps) http.HandlerFunc {
	cacheTTL := time.Duration(deps.Config.CacheTTL) * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()

		if cached, err := deps.Cache.GetProgress(ctx, jobID.String()); err == nil && cached != nil {
			httputil.WriteJSON(w, http.StatusOK, cached)
			return
		}

		job, err := deps.Store.GetJob(ctx, jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "job not found", err, http.StatusNotFound)
			return
		}
		processed, err := deps.Store.CountProcessedChunks(ctx, jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to count progress", err, http.StatusInternalServerError)
			return
		}
		p := &cache.Progress{
			Processed: processed,
			Total:     job.ChunkCount,
			Label:     fmt.Sprintf("%d/%d", processed, job.ChunkCount),
		}
		if err := deps.Cache.SetProgress(ctx, jobID.String(), p, cacheTTL); err != nil {
			deps.Log.Warn("failed to cache progress", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func pairsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		pairs, err := deps.Store.ListPairs(r.Context(), jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list pairs", err, http.StatusInternalServerError)
			return
		}
		rows := make([]map[string]any, 0, len(pairs))
		for _, p := range pairs {
			rows = append(rows, map[string]any{
				"chunk":      p.ChunkText,
				"prompt":     p.Prompt,
				"generation": p.Generation,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"pairs": rows})
	}
}

func exportHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		job, err := deps.Store.GetJob(ctx, jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "job not found", err, http.StatusNotFound)
			return
		}
		// Download is held back while generation runs, matching the disabled
		// download button during an active run.
		if job.Status == store.JobRunning {
			httputil.Fail(deps.Log, w, "generation in progress, please wait", nil, http.StatusConflict)
			return
		}
		pairs, err := deps.Store.ListPairs(ctx, jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list pairs", err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		if err := export.WriteCSV(w, pairs); err != nil {
			deps.Log.Error("failed to write csv", "err", err, "job_id", jobID)
		}
	}
}
