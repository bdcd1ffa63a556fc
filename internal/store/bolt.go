package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
)

const (
	jobsBucket      = "jobs"
	batchesBucket   = "batches"
	batchJobsBucket = "batch_jobs"
)

// BoltStore is the bbolt-backed implementation of Store. bbolt gives us
// single-writer transactions, which is what MarkZipQueued's compare-and-set
// leans on.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o666, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{jobsBucket, batchesBucket, batchJobsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) PutJob(_ context.Context, job *Job) error {
	if job == nil || job.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(jobsBucket)).Put([]byte(job.JobID), payload)
	})
}

func (s *BoltStore) GetJob(_ context.Context, jobID string) (*Job, error) {
	var job *Job
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(jobsBucket)).Get([]byte(jobID))
		if raw == nil {
			return ErrNotFound
		}
		job = &Job{}
		return json.Unmarshal(raw, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *BoltStore) SetJobStatus(_ context.Context, jobID string, status domain.JobStatus, errMsg string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))
		raw := bucket.Get([]byte(jobID))
		if raw == nil {
			return ErrNotFound
		}
		var job Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return err
		}
		job.Status = status
		if status == domain.JobError {
			job.Error = errMsg
		} else {
			job.Error = ""
		}
		payload, err := json.Marshal(&job)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(jobID), payload)
	})
}

func (s *BoltStore) PutBatch(_ context.Context, batch *Batch) error {
	if batch == nil || batch.BatchID == "" {
		return fmt.Errorf("batch id is required")
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(batchesBucket)).Put([]byte(batch.BatchID), payload)
	})
}

func (s *BoltStore) GetBatch(_ context.Context, batchID string) (*Batch, error) {
	var batch *Batch
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(batchesBucket)).Get([]byte(batchID))
		if raw == nil {
			return ErrNotFound
		}
		batch = &Batch{}
		return json.Unmarshal(raw, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *BoltStore) AppendBatchJob(_ context.Context, batchID, jobID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(batchJobsBucket))
		ids, err := decodeJobIDs(bucket.Get([]byte(batchID)))
		if err != nil {
			return err
		}
		ids = append(ids, jobID)
		payload, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(batchID), payload)
	})
}

func (s *BoltStore) ListBatchJobs(_ context.Context, batchID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		ids, err = decodeJobIDs(tx.Bucket([]byte(batchJobsBucket)).Get([]byte(batchID)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkZipQueued performs the none -> queued compare-and-set inside a single
// write transaction. Returns false without error when another completion
// trigger already won.
func (s *BoltStore) MarkZipQueued(_ context.Context, batchID string) (bool, error) {
	won := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(batchesBucket))
		raw := bucket.Get([]byte(batchID))
		if raw == nil {
			return ErrNotFound
		}
		var batch Batch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return err
		}
		if batch.ZipStatus != domain.ZipNone {
			return nil
		}
		batch.ZipStatus = domain.ZipQueued
		payload, err := json.Marshal(&batch)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(batchID), payload); err != nil {
			return err
		}
		won = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (s *BoltStore) MarkZipDone(_ context.Context, batchID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(batchesBucket))
		raw := bucket.Get([]byte(batchID))
		if raw == nil {
			return ErrNotFound
		}
		var batch Batch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return err
		}
		batch.ZipStatus = domain.ZipDone
		payload, err := json.Marshal(&batch)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(batchID), payload)
	})
}

func (s *BoltStore) DeleteBatch(_ context.Context, batchID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		jobList := tx.Bucket([]byte(batchJobsBucket))
		ids, err := decodeJobIDs(jobList.Get([]byte(batchID)))
		if err != nil {
			return err
		}
		jobs := tx.Bucket([]byte(jobsBucket))
		for _, id := range ids {
			if err := jobs.Delete([]byte(id)); err != nil {
				return err
			}
		}
		if err := jobList.Delete([]byte(batchID)); err != nil {
			return err
		}
		return tx.Bucket([]byte(batchesBucket)).Delete([]byte(batchID))
	})
}

func decodeJobIDs(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
