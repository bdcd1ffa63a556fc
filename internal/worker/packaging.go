package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/titrolabs/srt-batch-translator/internal/archive"
	"github.com/titrolabs/srt-batch-translator/internal/domain"
	"github.com/titrolabs/srt-batch-translator/internal/notify"
	"github.com/titrolabs/srt-batch-translator/internal/paths"
	"github.com/titrolabs/srt-batch-translator/internal/queue"
	"github.com/titrolabs/srt-batch-translator/internal/store"
	"github.com/titrolabs/srt-batch-translator/pkg/log"
)

// AuditUpdater mirrors batch status into the relational audit trail.
type AuditUpdater interface {
	UpdateStatusByBatch(ctx context.Context, batchID string, status string) error
}

// Packaging archives a completed batch into its downloadable zip. Exactly
// one packaging task exists per batch; the handler itself stays idempotent
// because the queue may redrive it after a partial failure.
type Packaging struct {
	store      store.Store
	registry   notify.Registry
	audit      AuditUpdater
	uploadsDir string
}

type PackagingOption func(*Packaging)

// WithAuditUpdater enables best-effort audit status updates on completion.
func WithAuditUpdater(audit AuditUpdater) PackagingOption {
	return func(p *Packaging) {
		p.audit = audit
	}
}

func NewPackaging(st store.Store, registry notify.Registry, uploadsDir string, opts ...PackagingOption) *Packaging {
	p := &Packaging{
		store:      st,
		registry:   registry,
		uploadsDir: uploadsDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle builds the batch archive. The zip is assembled at a staging path
// and moved into place with a rename, so a downloadable results.zip is
// always complete.
func (p *Packaging) Handle(ctx context.Context, task queue.PackagingTask) error {
	batchDir := paths.BatchDir(p.uploadsDir, task.BatchID)

	// The uploaded sources are not part of the deliverable.
	if err := os.RemoveAll(paths.OriginalDir(p.uploadsDir, task.BatchID)); err != nil {
		log.Warn("Packaging: remove originals of batch %s: %v", task.BatchID, err)
	}

	// Drop any artifact from an earlier attempt so it cannot end up nested
	// inside the new archive.
	if err := os.Remove(paths.ArtifactPath(p.uploadsDir, task.BatchID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale archive of batch %s: %w", task.BatchID, err)
	}

	tempPath := paths.TempArtifactPath(p.uploadsDir, task.BatchID)
	if err := archive.ZipFolder(batchDir, tempPath); err != nil {
		return fmt.Errorf("archive batch %s: %w", task.BatchID, err)
	}
	if err := os.Rename(tempPath, paths.ArtifactPath(p.uploadsDir, task.BatchID)); err != nil {
		return fmt.Errorf("move archive of batch %s into place: %w", task.BatchID, err)
	}

	if err := p.store.MarkZipDone(ctx, task.BatchID); err != nil {
		return fmt.Errorf("mark zip done for batch %s: %w", task.BatchID, err)
	}
	if p.audit != nil {
		if err := p.audit.UpdateStatusByBatch(ctx, task.BatchID, string(domain.BatchProcessingCompleted)); err != nil {
			log.Warn("Packaging: audit update for batch %s failed: %v", task.BatchID, err)
		}
	}

	p.registry.Publish(notify.Event{
		Type:    notify.EventZipReady,
		BatchID: task.BatchID,
		ZipURL:  paths.ArtifactURL(task.BatchID),
	})
	log.Info("Packaging: batch %s archived", task.BatchID)
	return nil
}
