package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
	"github.com/titrolabs/srt-batch-translator/internal/paths"
	"github.com/titrolabs/srt-batch-translator/internal/store"
)

// JobReport is one job's externally visible state.
type JobReport struct {
	JobID    string           `json:"jobId"`
	FileName string           `json:"fileName"`
	Language string           `json:"language"`
	Status   domain.JobStatus `json:"status"`
	Error    string           `json:"error,omitempty"`
}

// Report is the consistent batch view served to polling clients and used to
// seed push subscribers on connect.
type Report struct {
	Status          domain.BatchStatus `json:"status"`
	Jobs            []JobReport        `json:"jobs,omitempty"`
	ZipReady        bool               `json:"zipReady"`
	ZipURL          string             `json:"zipUrl,omitempty"`
	CreatedAt       time.Time          `json:"createdAt,omitzero"`
	TargetLanguages []string           `json:"targetLanguages,omitempty"`
	TotalJobs       int                `json:"totalJobs,omitempty"`
	FailedReason    string             `json:"failedReason,omitempty"`
}

// Service reconstructs batch state from the job store.
type Service struct {
	store      store.Store
	uploadsDir string
}

func NewService(st store.Store, uploadsDir string) *Service {
	return &Service{
		store:      st,
		uploadsDir: uploadsDir,
	}
}

// BatchStatus builds the aggregate view of a batch. An unknown batch id
// yields a not_found report, not an error; errors are reserved for store
// failures.
func (s *Service) BatchStatus(ctx context.Context, batchID string) (*Report, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if errors.Is(err, store.ErrNotFound) {
		return &Report{Status: domain.BatchNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	jobIDs, err := s.store.ListBatchJobs(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for batch %s: %w", batchID, err)
	}

	jobs := make([]JobReport, 0, len(jobIDs))
	statuses := make([]domain.JobStatus, 0, len(jobIDs))
	failedReason := ""
	for _, jobID := range jobIDs {
		job, err := s.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("load job %s: %w", jobID, err)
		}
		jobs = append(jobs, JobReport{
			JobID:    job.JobID,
			FileName: filepath.Base(job.FilePath),
			Language: job.TargetLanguage,
			Status:   job.Status,
			Error:    job.Error,
		})
		statuses = append(statuses, job.Status)
		if failedReason == "" && job.Status == domain.JobError {
			failedReason = job.Error
		}
	}

	report := &Report{
		Status:          domain.AggregateStatus(statuses),
		Jobs:            jobs,
		CreatedAt:       batch.CreatedAt,
		TargetLanguages: batch.TargetLanguages,
		TotalJobs:       batch.TotalJobs,
		FailedReason:    failedReason,
	}

	// The stored zip status says the archive was written, but clients only
	// care whether the artifact is actually retrievable, so readiness is a
	// live filesystem check.
	if s.artifactExists(batchID) {
		report.ZipReady = true
		report.ZipURL = paths.ArtifactURL(batchID)
	}

	return report, nil
}

func (s *Service) artifactExists(batchID string) bool {
	info, err := os.Stat(paths.ArtifactPath(s.uploadsDir, batchID))
	return err == nil && info.Size() > 0
}
