package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	bucketDocs      = []byte("docs")
	bucketDocChunks = []byte("doc_chunks")
	bucketJobs      = []byte("jobs")
	bucketJobPairs  = []byte("job_pairs")
	bucketProgress  = []byte("job_progress")
)

// BoltStore is a single-file store used by the CLI; it implements the same
// contract as the Postgres store so the pipeline code does not care which
// backend it runs against. Contexts are accepted for interface parity but
// not used, bbolt is purely local.
type BoltStore struct {
	db *bbolt.DB
}

func NewBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketDocChunks, bucketJobs, bucketJobPairs, bucketProgress} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) CreateDocument(_ context.Context, filename string) (Document, error) {
	doc := Document{ID: uuid.New(), Filename: filename, Status: StatusProcessing, CreatedAt: time.Now()}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketDocs), doc.ID[:], doc)
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *BoltStore) GetDocument(_ context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket(bucketDocs), id[:], &doc, ErrDocumentNotFound)
	})
	return doc, err
}

func (s *BoltStore) UpdateDocumentStatus(_ context.Context, id uuid.UUID, status DocumentStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		var doc Document
		if err := getJSON(b, id[:], &doc, ErrDocumentNotFound); err != nil {
			return err
		}
		doc.Status = status
		return putJSON(b, id[:], doc)
	})
}

func (s *BoltStore) SaveChunks(_ context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error) {
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.ID = uuid.New()
		c.DocumentID = docID
		out = append(out, c)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketDocChunks), docID[:], out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) ListChunks(_ context.Context, docID uuid.UUID) ([]Chunk, error) {
	var out []Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get(docID[:])
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	return out, err
}

func (s *BoltStore) CreateJob(_ context.Context, job Job) (Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobRunning
	}
	job.CreatedAt = time.Now()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketJobs), job.ID[:], job)
	})
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

func (s *BoltStore) GetJob(_ context.Context, id uuid.UUID) (Job, error) {
	var job Job
	err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket(bucketJobs), id[:], &job, ErrJobNotFound)
	})
	return job, err
}

func (s *BoltStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status JobStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		var job Job
		if err := getJSON(b, id[:], &job, ErrJobNotFound); err != nil {
			return err
		}
		job.Status = status
		return putJSON(b, id[:], job)
	})
}

func (s *BoltStore) SavePairs(_ context.Context, jobID uuid.UUID, pairs []Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketJobPairs)
		var existing []Pair
		if data := b.Get(jobID[:]); data != nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				return err
			}
		}
		now := time.Now()
		for _, p := range pairs {
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
			p.JobID = jobID
			p.CreatedAt = now
			existing = append(existing, p)
		}
		return putJSON(b, jobID[:], existing)
	})
}

func (s *BoltStore) ListPairs(_ context.Context, jobID uuid.UUID) ([]Pair, error) {
	var out []Pair
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketJobPairs).Get(jobID[:])
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	return out, err
}

func (s *BoltStore) MarkChunkProcessed(_ context.Context, jobID, chunkID uuid.UUID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProgress).Put(progressKey(jobID, chunkID), []byte{1})
	})
}

func (s *BoltStore) CountProcessedChunks(_ context.Context, jobID uuid.UUID) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketProgress).Cursor()
		prefix := jobID[:]
		for k, _ := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, _ = c.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func progressKey(jobID, chunkID uuid.UUID) []byte {
	key := make([]byte, 0, 32)
	key = append(key, jobID[:]...)
	return append(key, chunkID[:]...)
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bbolt.Bucket, key []byte, v any, notFound error) error {
	data := b.Get(key)
	if data == nil {
		return notFound
	}
	return json.Unmarshal(data, v)
}
