// Package retention removes expired batches: their files on disk, their
// pipeline state and their audit visibility.
package retention

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/titrolabs/srt-batch-translator/internal/paths"
	"github.com/titrolabs/srt-batch-translator/internal/store"
	"github.com/titrolabs/srt-batch-translator/pkg/icron"
	"github.com/titrolabs/srt-batch-translator/pkg/log"
)

// AuditStore is the slice of the audit trail the sweeper needs.
type AuditStore interface {
	ExpiredBatchIDs(ctx context.Context, now time.Time) ([]string, error)
	MarkDeleted(ctx context.Context, batchID string) error
}

type Sweeper struct {
	store      store.Store
	audit      AuditStore
	uploadsDir string
	cronExpr   string
	cron       *cron.Cron
}

func NewSweeper(st store.Store, audit AuditStore, uploadsDir, cronExpr string, cronEngine *cron.Cron) *Sweeper {
	return &Sweeper{
		store:      st,
		audit:      audit,
		uploadsDir: uploadsDir,
		cronExpr:   cronExpr,
		cron:       cronEngine,
	}
}

// Schedule registers the sweep on the cron engine. The caller starts and
// stops the engine.
func (s *Sweeper) Schedule() error {
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Error("Retention: sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention sweep %q: %w", s.cronExpr, err)
	}
	if info, infoErr := icron.GetTriggerInfo(s.cronExpr, time.Now()); infoErr == nil {
		log.Info("Retention: sweep scheduled, next run in %s", info.TimeUntilNext.Round(time.Minute))
	}
	return nil
}

// Sweep deletes every batch whose retention window has passed. Individual
// batch failures are logged and skipped so one stuck batch cannot block the
// rest.
func (s *Sweeper) Sweep(ctx context.Context) error {
	expired, err := s.audit.ExpiredBatchIDs(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("list expired batches: %w", err)
	}
	for _, batchID := range expired {
		if err := s.sweepBatch(ctx, batchID); err != nil {
			log.Warn("Retention: batch %s not swept: %v", batchID, err)
			continue
		}
		log.Info("Retention: batch %s swept", batchID)
	}
	return nil
}

func (s *Sweeper) sweepBatch(ctx context.Context, batchID string) error {
	if err := os.RemoveAll(paths.BatchDir(s.uploadsDir, batchID)); err != nil {
		return fmt.Errorf("remove batch directory: %w", err)
	}
	if err := s.store.DeleteBatch(ctx, batchID); err != nil {
		return fmt.Errorf("delete batch state: %w", err)
	}
	if err := s.audit.MarkDeleted(ctx, batchID); err != nil {
		return fmt.Errorf("mark audit record deleted: %w", err)
	}
	return nil
}
