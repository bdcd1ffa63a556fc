package queue

import (
	"context"
	"sync"
	"time"

	"github.com/titrolabs/srt-batch-translator/pkg/log"
	"github.com/titrolabs/srt-batch-translator/pkg/retry"
)

// Handler processes one task. A non-nil error triggers queue-level
// redelivery up to the retry policy's attempt budget, so handlers must be
// idempotent.
type Handler[T any] func(ctx context.Context, task T) error

// FailureHandler is invoked after a task exhausts all attempts.
type FailureHandler[T any] func(task T, err error)

// Queue is an in-process task queue drained by a pool of workers. Tasks are
// independent; ordering between tasks is not guaranteed. Delivery is
// at-least-once from the handler's point of view because failed attempts
// are redriven.
type Queue[T any] struct {
	name        string
	workerCount int
	policy      retry.Policy
	taskTimeout time.Duration
	onExhausted FailureHandler[T]

	tasks    chan T
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
}

type Option[T any] func(*Queue[T])

// WithRetryPolicy sets the per-task redelivery policy.
func WithRetryPolicy[T any](policy retry.Policy) Option[T] {
	return func(q *Queue[T]) {
		q.policy = policy
	}
}

// WithTaskTimeout bounds each task attempt. A timed-out attempt counts as a
// failed attempt and is redriven by the retry policy.
func WithTaskTimeout[T any](timeout time.Duration) Option[T] {
	return func(q *Queue[T]) {
		q.taskTimeout = timeout
	}
}

// WithFailureHandler installs the callback run when a task permanently fails.
func WithFailureHandler[T any](fn FailureHandler[T]) Option[T] {
	return func(q *Queue[T]) {
		q.onExhausted = fn
	}
}

func New[T any](name string, workerCount int, opts ...Option[T]) *Queue[T] {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue[T]{
		name:        name,
		workerCount: workerCount,
		policy:      retry.DefaultPolicy(),
		tasks:       make(chan T, 1024),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a task without blocking the caller. When the buffer is full
// the hand-off is deferred to a goroutine rather than dropped; a stopped
// queue releases pending hand-offs instead of leaking them.
func (q *Queue[T]) Enqueue(task T) {
	select {
	case q.tasks <- task:
	default:
		go func() {
			select {
			case q.tasks <- task:
			case <-q.stopCh:
			}
		}()
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *Queue[T]) Start(handler Handler[T]) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(handler)
	}
}

// Stop shuts the pool down and waits for in-flight tasks to finish.
func (q *Queue[T]) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue[T]) worker(handler Handler[T]) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case task := <-q.tasks:
			q.process(handler, task)
		}
	}
}

func (q *Queue[T]) process(handler Handler[T], task T) {
	err := retry.Do(context.Background(), q.policy, func(ctx context.Context) error {
		if q.taskTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
			defer cancel()
		}
		return handler(ctx, task)
	})
	if err == nil {
		return
	}

	log.Error("Queue %s: task permanently failed after %d attempts: %v", q.name, q.policy.MaxAttempts, err)
	if q.onExhausted != nil {
		q.onExhausted(task, err)
	}
}
