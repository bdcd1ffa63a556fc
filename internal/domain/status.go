package domain

// JobStatus tracks one (file, language) translation unit. Transitions are
// monotonic: queued -> in_progress -> done | error. Terminal states are
// final at this layer; queue-level retries re-enter at in_progress.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobInProgress JobStatus = "in_progress"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// ZipStatus tracks a batch's packaging lifecycle. The empty value means
// packaging has not been triggered yet.
type ZipStatus string

const (
	ZipNone   ZipStatus = ""
	ZipQueued ZipStatus = "queued"
	ZipDone   ZipStatus = "done"
)

// BatchStatus is the presentation-level aggregate derived from job statuses.
// It never feeds back into core decision logic; the completion check compares
// JobStatus values only.
type BatchStatus string

const (
	BatchQueue               BatchStatus = "queue"
	BatchProcessingStarted   BatchStatus = "processing_started"
	BatchProcessingCompleted BatchStatus = "processing_completed"
	BatchProcessingFailed    BatchStatus = "processing_failed"
	BatchNotFound            BatchStatus = "not_found"
)

// AggregateStatus derives the batch-level status from individual job
// statuses. Precedence, highest first: any error, all done, any in_progress,
// all queued. A mix of queued and done without anything in progress still
// reads as started so the status never flaps back to queue.
func AggregateStatus(statuses []JobStatus) BatchStatus {
	if len(statuses) == 0 {
		return BatchQueue
	}

	anyError := false
	anyInProgress := false
	allDone := true
	allQueued := true
	for _, s := range statuses {
		switch s {
		case JobError:
			anyError = true
		case JobInProgress:
			anyInProgress = true
		}
		if s != JobDone {
			allDone = false
		}
		if s != JobQueued {
			allQueued = false
		}
	}

	switch {
	case anyError:
		return BatchProcessingFailed
	case allDone:
		return BatchProcessingCompleted
	case anyInProgress:
		return BatchProcessingStarted
	case allQueued:
		return BatchQueue
	default:
		return BatchProcessingStarted
	}
}
