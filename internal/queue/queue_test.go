package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titrolabs/srt-batch-translator/pkg/retry"
)

func TestQueue_ProcessesAllTasks(t *testing.T) {
	q := New[TranslationTask]("translation", 3)
	defer q.Stop()

	var processed atomic.Int32
	q.Start(func(_ context.Context, _ TranslationTask) error {
		processed.Add(1)
		return nil
	})

	for i := 0; i < 20; i++ {
		q.Enqueue(TranslationTask{JobID: "job"})
	}

	require.Eventually(t, func() bool {
		return processed.Load() == 20
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_RetriesFailedTask(t *testing.T) {
	q := New("translation", 1,
		WithRetryPolicy[TranslationTask](retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}))
	defer q.Stop()

	var attempts atomic.Int32
	q.Start(func(_ context.Context, _ TranslationTask) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	q.Enqueue(TranslationTask{JobID: "job-1"})

	require.Eventually(t, func() bool {
		return attempts.Load() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_FailureHandlerAfterExhaustion(t *testing.T) {
	var mu sync.Mutex
	var failed []PackagingTask
	var failErr error

	q := New("zip", 1,
		WithRetryPolicy[PackagingTask](retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}),
		WithFailureHandler(func(task PackagingTask, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, task)
			failErr = err
		}))
	defer q.Stop()

	wantErr := errors.New("disk full")
	q.Start(func(_ context.Context, _ PackagingTask) error {
		return wantErr
	})

	q.Enqueue(PackagingTask{BatchID: "batch-1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "batch-1", failed[0].BatchID)
	assert.ErrorIs(t, failErr, wantErr)
}

func TestQueue_TaskTimeoutCancelsContext(t *testing.T) {
	q := New("translation", 1,
		WithRetryPolicy[TranslationTask](retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}),
		WithTaskTimeout[TranslationTask](20*time.Millisecond))
	defer q.Stop()

	var sawDeadline atomic.Bool
	q.Start(func(ctx context.Context, _ TranslationTask) error {
		<-ctx.Done()
		sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	q.Enqueue(TranslationTask{JobID: "slow"})

	require.Eventually(t, func() bool {
		return sawDeadline.Load()
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_OverflowHandoffsReleasedOnStop(t *testing.T) {
	q := New[TranslationTask]("translation", 1)
	before := runtime.NumGoroutine()

	// Never started, so the buffer fills up and the surplus spills into
	// hand-off goroutines.
	for i := 0; i < 1200; i++ {
		q.Enqueue(TranslationTask{JobID: "job"})
	}
	q.Stop()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+8
	}, 2*time.Second, 10*time.Millisecond, "pending hand-offs must exit once the queue stops")
}

func TestQueue_StartTwiceIsNoop(t *testing.T) {
	q := New[PackagingTask]("zip", 2)
	defer q.Stop()

	var processed atomic.Int32
	handler := func(_ context.Context, _ PackagingTask) error {
		processed.Add(1)
		return nil
	}
	q.Start(handler)
	q.Start(handler)

	q.Enqueue(PackagingTask{BatchID: "batch-1"})

	require.Eventually(t, func() bool {
		return processed.Load() == 1
	}, time.Second, 10*time.Millisecond)
	// A second Start must not double the worker pool and double-process.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), processed.Load())
}
