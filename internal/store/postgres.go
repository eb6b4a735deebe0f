package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	const lockID = 987654321

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
			ord INT,
			text TEXT,
			char_count INT
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			status TEXT,
			quantity INT,
			base_prompt TEXT,
			request_prompt TEXT,
			document_ids UUID[],
			chunk_count INT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS pairs (
			id UUID PRIMARY KEY,
			job_id UUID REFERENCES jobs(id) ON DELETE CASCADE,
			chunk_id UUID REFERENCES chunks(id) ON DELETE CASCADE,
			chunk_text TEXT,
			prompt TEXT,
			generation TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS job_chunks (
			job_id UUID REFERENCES jobs(id) ON DELETE CASCADE,
			chunk_id UUID,
			processed_at TIMESTAMPTZ DEFAULT now(),
			PRIMARY KEY (job_id, chunk_id)
		);`,
		`CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks(document_id, ord);`,
		`CREATE INDEX IF NOT EXISTS pairs_job_idx ON pairs(job_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, filename string) (Document, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents(id, filename, status) VALUES($1,$2,$3)`,
		id, filename, StatusProcessing)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Filename: filename, Status: StatusProcessing, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	row := s.db.QueryRowContext(ctx, `SELECT id, filename, status, created_at FROM documents WHERE id=$1`, id)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Status, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostgresStore) SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		cid := uuid.New()
		_, err := tx.ExecContext(ctx, `INSERT INTO chunks(id, document_id, ord, text, char_count) VALUES($1,$2,$3,$4,$5)`,
			cid, docID, c.Index, c.Text, c.CharCount)
		if err != nil {
			return nil, err
		}
		c.ID = cid
		c.DocumentID = docID
		out = append(out, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ord, text, char_count FROM chunks WHERE document_id=$1 ORDER BY ord`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &c.CharCount); err != nil {
			return nil, err
		}
		c.DocumentID = docID
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateJob(ctx context.Context, job Job) (Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobRunning
	}
	job.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs(id, status, quantity, base_prompt, request_prompt, document_ids, chunk_count)
		VALUES($1,$2,$3,$4,$5,$6,$7)`,
		job.ID, job.Status, job.Quantity, job.BasePrompt, job.RequestPrompt, pqUUIDArray(job.DocumentIDs), job.ChunkCount)
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	var job Job
	var docIDs []string
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, quantity, base_prompt, request_prompt, document_ids, chunk_count, created_at
		FROM jobs WHERE id=$1`, id)
	if err := row.Scan(&job.ID, &job.Status, &job.Quantity, &job.BasePrompt, &job.RequestPrompt,
		pq.Array(&docIDs), &job.ChunkCount, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	for _, d := range docIDs {
		parsed, err := uuid.Parse(d)
		if err != nil {
			return Job{}, fmt.Errorf("invalid document id %q on job %s: %w", d, id, err)
		}
		job.DocumentIDs = append(job.DocumentIDs, parsed)
	}
	return job, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) SavePairs(ctx context.Context, jobID uuid.UUID, pairs []Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, p := range pairs {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pairs(id, job_id, chunk_id, chunk_text, prompt, generation)
			VALUES($1,$2,$3,$4,$5,$6)`,
			p.ID, jobID, p.ChunkID, p.ChunkText, p.Prompt, p.Generation)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListPairs(ctx context.Context, jobID uuid.UUID) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunk_id, chunk_text, prompt, generation, created_at
		FROM pairs WHERE job_id=$1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.ID, &p.ChunkID, &p.ChunkText, &p.Prompt, &p.Generation, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.JobID = jobID
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkChunkProcessed(ctx context.Context, jobID, chunkID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_chunks(job_id, chunk_id) VALUES($1,$2)
		ON CONFLICT (job_id, chunk_id) DO NOTHING`, jobID, chunkID)
	return err
}

func (s *PostgresStore) CountProcessedChunks(ctx context.Context, jobID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_chunks WHERE job_id=$1`, jobID).Scan(&n)
	return n, err
}

func pqUUIDArray(items []uuid.UUID) any {
	if len(items) == 0 {
		return pq.Array([]string{})
	}
	strs := make([]string, len(items))
	for i, id := range items {
		strs[i] = id.String()
	}
	return pq.Array(strs)
}
