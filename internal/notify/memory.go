package notify

import (
	"sync"

	"github.com/titrolabs/srt-batch-translator/pkg/log"
)

// MemoryRegistry is the single-instance Registry: a mutex-guarded map from
// batch id to the most recent subscriber.
type MemoryRegistry struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		subs: make(map[string]Subscriber),
	}
}

func (r *MemoryRegistry) Register(batchID string, sub Subscriber) {
	if batchID == "" || sub == nil {
		return
	}
	r.mu.Lock()
	r.subs[batchID] = sub
	r.mu.Unlock()
	log.Debug("Registered subscriber for batch %s", batchID)
}

// Unregister removes the association only if sub is still the registered
// subscriber, so a stale disconnect never evicts a newer registration.
func (r *MemoryRegistry) Unregister(batchID string, sub Subscriber) {
	r.mu.Lock()
	if current, ok := r.subs[batchID]; ok && current == sub {
		delete(r.subs, batchID)
	}
	r.mu.Unlock()
}

// Publish delivers the event to the batch's subscriber, if any. Events for
// unsubscribed batches are dropped.
func (r *MemoryRegistry) Publish(event Event) {
	r.mu.RLock()
	sub := r.subs[event.BatchID]
	r.mu.RUnlock()

	if sub == nil {
		log.Debug("No subscriber for batch %s, dropping %s event", event.BatchID, event.Type)
		return
	}
	sub.Send(event)
}
