// Package worker holds the queue handlers that drive a batch through its
// lifecycle: translating individual jobs, detecting batch completion and
// packaging the finished artifacts.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
	"github.com/titrolabs/srt-batch-translator/internal/notify"
	"github.com/titrolabs/srt-batch-translator/internal/queue"
	"github.com/titrolabs/srt-batch-translator/internal/store"
	"github.com/titrolabs/srt-batch-translator/internal/subtitle"
	"github.com/titrolabs/srt-batch-translator/internal/translator"
	"github.com/titrolabs/srt-batch-translator/pkg/log"
	"github.com/titrolabs/srt-batch-translator/pkg/retry"
)

const (
	defaultBatchSize = 10
	// detectSampleLimit bounds how much text is shipped for language
	// detection. A few sentences are plenty.
	detectSampleLimit = 1024
)

// PackagingEnqueuer hands packaging tasks to the packaging queue.
type PackagingEnqueuer interface {
	Enqueue(task queue.PackagingTask)
}

// Translation processes one translation task end to end. The handler is
// idempotent: redelivered tasks for an already translated job short-circuit
// on the existing output file.
type Translation struct {
	store      store.Store
	translator translator.Translator
	registry   notify.Registry
	packaging  PackagingEnqueuer
	batchSize  int
}

type TranslationOption func(*Translation)

// WithBatchSize sets how many subtitle blocks are sent per translation call.
func WithBatchSize(n int) TranslationOption {
	return func(t *Translation) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

func NewTranslation(st store.Store, tr translator.Translator, registry notify.Registry, packaging PackagingEnqueuer, opts ...TranslationOption) *Translation {
	t := &Translation{
		store:      st,
		translator: tr,
		registry:   registry,
		packaging:  packaging,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handle runs one translation job. Failures mark the job as errored and are
// returned to the queue so its retry policy can redrive the task.
func (t *Translation) Handle(ctx context.Context, task queue.TranslationTask) error {
	t.registry.Publish(notify.Event{
		Type:    notify.EventJobStarted,
		BatchID: task.BatchID,
		JobID:   task.JobID,
		Details: notify.JobDetails{
			FileName: filepath.Base(task.FilePath),
			Language: task.TargetLanguage,
		},
	})

	if err := t.store.SetJobStatus(ctx, task.JobID, domain.JobInProgress, ""); err != nil {
		return fmt.Errorf("mark job %s in progress: %w", task.JobID, err)
	}

	if done, err := outputReady(task.OutputPath); err == nil && done {
		log.Info("Worker: job %s output already present, skipping translation", task.JobID)
		return t.finishJob(ctx, task)
	}

	if err := t.translateJob(ctx, task); err != nil {
		if statusErr := t.store.SetJobStatus(ctx, task.JobID, domain.JobError, err.Error()); statusErr != nil {
			log.Error("Worker: mark job %s errored: %v", task.JobID, statusErr)
		}
		return err
	}
	return t.finishJob(ctx, task)
}

func (t *Translation) translateJob(ctx context.Context, task queue.TranslationTask) error {
	content, err := os.ReadFile(task.FilePath)
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	doc := subtitle.Parse(string(content))

	sample := doc.TranslatableText(detectSampleLimit)
	if sample == "" {
		// A structural-only file cannot be translated; retrying will not
		// change its content.
		return retry.Terminal(fmt.Errorf("no translatable text found in %s", filepath.Base(task.FilePath)))
	}
	sourceLang, err := t.translator.DetectLanguage(ctx, sample)
	if err != nil {
		return fmt.Errorf("detect source language: %w", err)
	}

	translated := make([][]string, len(doc.Blocks))
	for start := 0; start < len(doc.Blocks); start += t.batchSize {
		end := min(start+t.batchSize, len(doc.Blocks))
		texts := make([]string, 0, end-start)
		for _, block := range doc.Blocks[start:end] {
			texts = append(texts, block.JoinedText())
		}

		results, err := t.translator.TranslateBatch(ctx, texts, sourceLang, task.TargetLanguage)
		if err != nil {
			return fmt.Errorf("translate blocks %d-%d: %w", start, end-1, err)
		}
		if len(results) != len(texts) {
			// The backend lost alignment at the tail of this call. Segment i
			// still corresponds to block i, so keep what was returned and
			// fall back to the original text only for uncovered blocks.
			log.Warn("Worker: job %s got %d segments for %d blocks, keeping originals for the uncovered blocks",
				task.JobID, len(results), len(texts))
		}
		for i, segment := range results {
			if i >= len(texts) {
				break
			}
			translated[start+i] = strings.Split(segment, "\n")
		}
	}

	rendered := doc.Render(translated)
	if err := os.MkdirAll(filepath.Dir(task.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	output := strings.Join(rendered, "\n") + "\n"
	if err := os.WriteFile(task.OutputPath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func (t *Translation) finishJob(ctx context.Context, task queue.TranslationTask) error {
	if err := t.store.SetJobStatus(ctx, task.JobID, domain.JobDone, ""); err != nil {
		return fmt.Errorf("mark job %s done: %w", task.JobID, err)
	}
	t.registry.Publish(notify.Event{
		Type:    notify.EventJobDone,
		BatchID: task.BatchID,
		JobID:   task.JobID,
		Details: notify.JobDetails{
			FileName: filepath.Base(task.FilePath),
			Language: task.TargetLanguage,
		},
	})
	return t.checkBatchComplete(ctx, task.BatchID)
}

// checkBatchComplete re-reads every sibling job of the batch. Only a scan
// that observes all jobs done may trigger packaging, and the zip status CAS
// guarantees at most one of the concurrent observers does.
func (t *Translation) checkBatchComplete(ctx context.Context, batchID string) error {
	jobIDs, err := t.store.ListBatchJobs(ctx, batchID)
	if err != nil {
		return fmt.Errorf("list jobs of batch %s: %w", batchID, err)
	}
	for _, jobID := range jobIDs {
		job, err := t.store.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("load job %s: %w", jobID, err)
		}
		if job.Status != domain.JobDone {
			return nil
		}
	}

	t.registry.Publish(notify.Event{Type: notify.EventBatchComplete, BatchID: batchID})

	won, err := t.store.MarkZipQueued(ctx, batchID)
	if err != nil {
		return fmt.Errorf("queue packaging for batch %s: %w", batchID, err)
	}
	if !won {
		return nil
	}
	log.Info("Worker: batch %s complete, packaging queued", batchID)
	t.packaging.Enqueue(queue.PackagingTask{BatchID: batchID})
	return nil
}

// outputReady reports whether a previous attempt already produced the
// translated file.
func outputReady(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() > 0, nil
}
