package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
	"github.com/titrolabs/srt-batch-translator/internal/paths"
	"github.com/titrolabs/srt-batch-translator/internal/store"
)

func newTestStore(t *testing.T) *store.BoltStore {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedBatch(t *testing.T, st store.Store, batchID string, statuses map[string]domain.JobStatus) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, st.PutBatch(ctx, &store.Batch{
		BatchID:         batchID,
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TargetLanguages: []string{"fr"},
		TotalJobs:       len(statuses),
	}))
	for jobID, jobStatus := range statuses {
		errMsg := ""
		if jobStatus == domain.JobError {
			errMsg = "translation failed"
		}
		require.NoError(t, st.PutJob(ctx, &store.Job{
			JobID:          jobID,
			BatchID:        batchID,
			FilePath:       "/uploads/" + batchID + "/original/" + jobID + ".srt",
			TargetLanguage: "fr",
			Status:         jobStatus,
			Error:          errMsg,
		}))
		require.NoError(t, st.AppendBatchJob(ctx, batchID, jobID))
	}
}

func TestBatchStatus_UnknownBatch(t *testing.T) {
	svc := NewService(newTestStore(t), t.TempDir())

	report, err := svc.BatchStatus(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchNotFound, report.Status)
	assert.Empty(t, report.Jobs)
	assert.False(t, report.ZipReady)
}

func TestBatchStatus_AggregatesJobStates(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, t.TempDir())

	seedBatch(t, st, "batch-1", map[string]domain.JobStatus{
		"job-a": domain.JobDone,
		"job-b": domain.JobInProgress,
		"job-c": domain.JobQueued,
	})

	report, err := svc.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchProcessingStarted, report.Status)
	assert.Len(t, report.Jobs, 3)
	assert.Equal(t, 3, report.TotalJobs)
	assert.Equal(t, []string{"fr"}, report.TargetLanguages)
	assert.Empty(t, report.FailedReason)
}

func TestBatchStatus_FailedReasonComesFromFirstErroredJob(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, t.TempDir())

	seedBatch(t, st, "batch-1", map[string]domain.JobStatus{
		"job-a": domain.JobError,
	})

	report, err := svc.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchProcessingFailed, report.Status)
	assert.Equal(t, "translation failed", report.FailedReason)
}

func TestBatchStatus_ZipReadyTracksArtifactOnDisk(t *testing.T) {
	st := newTestStore(t)
	uploads := t.TempDir()
	svc := NewService(st, uploads)

	seedBatch(t, st, "batch-1", map[string]domain.JobStatus{
		"job-a": domain.JobDone,
	})

	report, err := svc.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchProcessingCompleted, report.Status)
	assert.False(t, report.ZipReady)
	assert.Empty(t, report.ZipURL)

	artifact := paths.ArtifactPath(uploads, "batch-1")
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0o755))
	require.NoError(t, os.WriteFile(artifact, []byte("zip bytes"), 0o644))

	report, err = svc.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.True(t, report.ZipReady)
	assert.Equal(t, "/downloads/batch-1/results.zip", report.ZipURL)
}

func TestBatchStatus_EmptyArtifactIsNotReady(t *testing.T) {
	st := newTestStore(t)
	uploads := t.TempDir()
	svc := NewService(st, uploads)

	seedBatch(t, st, "batch-1", map[string]domain.JobStatus{
		"job-a": domain.JobDone,
	})

	artifact := paths.ArtifactPath(uploads, "batch-1")
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0o755))
	require.NoError(t, os.WriteFile(artifact, nil, 0o644))

	report, err := svc.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.False(t, report.ZipReady)
}
