package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSubscriber) Send(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSubscriber) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestMemoryRegistry_PublishToRegisteredSubscriber(t *testing.T) {
	r := NewMemoryRegistry()
	sub := &recordingSubscriber{}
	r.Register("batch-1", sub)

	r.Publish(Event{
		Type:    EventJobDone,
		BatchID: "batch-1",
		JobID:   "job-1",
		Details: JobDetails{FileName: "movie.srt", Language: "fr"},
	})

	events := sub.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobDone, events[0].Type)
	assert.Equal(t, "movie.srt", events[0].Details.FileName)
}

func TestMemoryRegistry_DropsWhenNobodyRegistered(t *testing.T) {
	r := NewMemoryRegistry()
	// Must not panic or block.
	r.Publish(Event{Type: EventBatchComplete, BatchID: "nobody-home"})
}

func TestMemoryRegistry_LateSubscriberMissesEarlierEvents(t *testing.T) {
	r := NewMemoryRegistry()

	r.Publish(Event{Type: EventJobDone, BatchID: "batch-1", JobID: "job-1"})

	sub := &recordingSubscriber{}
	r.Register("batch-1", sub)
	r.Publish(Event{Type: EventZipReady, BatchID: "batch-1", ZipURL: "/downloads/batch-1/results.zip"})

	events := sub.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventZipReady, events[0].Type)
}

func TestMemoryRegistry_ReRegisterLastWriteWins(t *testing.T) {
	r := NewMemoryRegistry()
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}

	r.Register("batch-1", first)
	r.Register("batch-1", second)
	r.Publish(Event{Type: EventBatchComplete, BatchID: "batch-1"})

	assert.Empty(t, first.received())
	assert.Len(t, second.received(), 1)
}

func TestMemoryRegistry_StaleUnregisterKeepsNewerSubscriber(t *testing.T) {
	r := NewMemoryRegistry()
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}

	r.Register("batch-1", first)
	r.Register("batch-1", second)
	// The first client disconnects after being replaced.
	r.Unregister("batch-1", first)

	r.Publish(Event{Type: EventBatchComplete, BatchID: "batch-1"})
	assert.Len(t, second.received(), 1)
}
