package store

import (
	"context"
	"errors"
	"time"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
)

// ErrNotFound is returned when a job or batch key does not exist.
var ErrNotFound = errors.New("not found")

// Job is one (file, target-language) translation unit as persisted.
type Job struct {
	JobID          string           `json:"job_id"`
	BatchID        string           `json:"batch_id"`
	FilePath       string           `json:"file_path"`
	TargetLanguage string           `json:"target_language"`
	Status         domain.JobStatus `json:"status"`
	OutputPath     string           `json:"output_path"`
	Error          string           `json:"error,omitempty"`
}

// Batch is one user submission spanning N files x M target languages.
type Batch struct {
	BatchID         string           `json:"batch_id"`
	CreatedAt       time.Time        `json:"created_at"`
	TargetLanguages []string         `json:"target_languages"`
	TotalJobs       int              `json:"total_jobs"`
	UserID          string           `json:"user_id,omitempty"`
	ZipStatus       domain.ZipStatus `json:"zip_status"`
}

// Store is the durable job/batch state owned exclusively by the pipeline.
// All mutations are single-key or single-list-append operations; callers
// never get multi-key transactions, which is why batch completion is
// detected by re-scanning rather than by cross-key atomicity.
type Store interface {
	PutJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	// SetJobStatus updates status and, for error transitions, the message.
	SetJobStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) error

	PutBatch(ctx context.Context, batch *Batch) error
	GetBatch(ctx context.Context, batchID string) (*Batch, error)

	// AppendBatchJob appends a job id to the batch's append-only job list.
	AppendBatchJob(ctx context.Context, batchID, jobID string) error
	ListBatchJobs(ctx context.Context, batchID string) ([]string, error)

	// MarkZipQueued transitions the batch's zip status from none to queued
	// and reports whether this caller won the transition. Concurrent
	// duplicate completion triggers lose and must not enqueue packaging.
	MarkZipQueued(ctx context.Context, batchID string) (bool, error)
	MarkZipDone(ctx context.Context, batchID string) error

	// DeleteBatch removes the batch record, its job list and all its jobs.
	// Used only by the retention sweep, never during normal operation.
	DeleteBatch(ctx context.Context, batchID string) error
}
