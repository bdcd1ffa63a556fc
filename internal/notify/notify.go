package notify

// EventType classifies lifecycle events pushed to subscribers.
type EventType string

const (
	EventJobStarted    EventType = "job_started"
	EventJobDone       EventType = "job_done"
	EventBatchComplete EventType = "batch_complete"
	EventZipReady      EventType = "zip_ready"
)

// JobDetails identifies the file/language pair a job event refers to.
type JobDetails struct {
	FileName string `json:"fileName"`
	Language string `json:"language"`
}

// Event is one push notification, keyed by batch id. Delivery is
// fire-and-forget; clients reconcile missed events through the status
// query service.
type Event struct {
	Type    EventType  `json:"type"`
	BatchID string     `json:"batchId"`
	JobID   string     `json:"jobId,omitempty"`
	Details JobDetails `json:"details,omitzero"`
	ZipURL  string     `json:"zipUrl,omitempty"`
}

// Subscriber receives events for the batch it registered for. Send must not
// block the publisher; slow subscribers drop events.
type Subscriber interface {
	Send(event Event)
}

// Registry maps batch ids to their current subscriber. It owns no durable
// state: associations are ephemeral and last-write-wins when a batch id
// re-registers. It can be backed by an in-process map or an external
// pub/sub without changing callers.
type Registry interface {
	Register(batchID string, sub Subscriber)
	Unregister(batchID string, sub Subscriber)
	Publish(event Event)
}
