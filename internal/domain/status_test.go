package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []JobStatus
		want     BatchStatus
	}{
		{"empty", nil, BatchQueue},
		{"all queued", []JobStatus{JobQueued, JobQueued}, BatchQueue},
		{"all done", []JobStatus{JobDone, JobDone, JobDone}, BatchProcessingCompleted},
		{"error wins over done", []JobStatus{JobDone, JobDone, JobError}, BatchProcessingFailed},
		{"error wins over in progress", []JobStatus{JobInProgress, JobError}, BatchProcessingFailed},
		{"in progress", []JobStatus{JobQueued, JobInProgress}, BatchProcessingStarted},
		{"done plus in progress", []JobStatus{JobDone, JobInProgress}, BatchProcessingStarted},
		{"mixed queued and done reads as started", []JobStatus{JobQueued, JobDone}, BatchProcessingStarted},
		{"single queued", []JobStatus{JobQueued}, BatchQueue},
		{"single error", []JobStatus{JobError}, BatchProcessingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.statuses))
		})
	}
}
