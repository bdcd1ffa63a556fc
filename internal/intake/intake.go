// Package intake accepts batch submissions: it validates uploads, persists
// the per-pair job records and fans the translation tasks out to the queue.
package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/titrolabs/srt-batch-translator/internal/domain"
	"github.com/titrolabs/srt-batch-translator/internal/paths"
	"github.com/titrolabs/srt-batch-translator/internal/persistence"
	"github.com/titrolabs/srt-batch-translator/internal/queue"
	"github.com/titrolabs/srt-batch-translator/internal/store"
	"github.com/titrolabs/srt-batch-translator/pkg/log"
)

const (
	defaultMaxFileSize = 2 << 20 // 2 MiB, generous for subtitle files
	defaultFanOutLimit = 8
	defaultRetention   = 7 * 24 * time.Hour
)

// fileNameUnsafe matches every character that is not allowed to reach the
// filesystem. Matches are replaced with underscores.
var fileNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SourceFile is one uploaded subtitle file.
type SourceFile struct {
	Name    string
	Content []byte
}

// Result identifies an accepted submission.
type Result struct {
	BatchID   string `json:"batchId"`
	TotalJobs int    `json:"totalJobs"`
}

// Enqueuer hands translation tasks to the worker pool.
type Enqueuer interface {
	Enqueue(task queue.TranslationTask)
}

// AuditRecorder persists the relational audit trail. Failures are logged and
// never fail the submission.
type AuditRecorder interface {
	CreateRecord(ctx context.Context, rec *persistence.Record) error
}

type Service struct {
	store       store.Store
	tasks       Enqueuer
	audit       AuditRecorder
	uploadsDir  string
	maxFileSize int64
	fanOutLimit int
	retention   time.Duration
}

type Option func(*Service)

// WithAudit enables best-effort audit records for authenticated submissions.
func WithAudit(audit AuditRecorder) Option {
	return func(s *Service) {
		s.audit = audit
	}
}

// WithMaxFileSize overrides the per-file upload size cap in bytes.
func WithMaxFileSize(limit int64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxFileSize = limit
		}
	}
}

// WithFanOutLimit bounds how many job records are created concurrently.
func WithFanOutLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.fanOutLimit = limit
		}
	}
}

// WithRetention overrides how long batch artifacts are kept before the
// retention sweep may remove them.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewService(st store.Store, tasks Enqueuer, uploadsDir string, opts ...Option) *Service {
	s := &Service{
		store:       st,
		tasks:       tasks,
		uploadsDir:  uploadsDir,
		maxFileSize: defaultMaxFileSize,
		fanOutLimit: defaultFanOutLimit,
		retention:   defaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the upload, stores the originals and creates one queued
// job per (file, language) pair. Each job record is durable before its task
// is enqueued, so a worker can never receive a task it cannot look up.
func (s *Service) Submit(ctx context.Context, files []SourceFile, languages []string, userID string) (*Result, error) {
	cleaned, err := validateFiles(files, s.maxFileSize)
	if err != nil {
		return nil, err
	}
	if err := validateLanguages(languages); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	for _, file := range cleaned {
		srcPath := paths.SourcePath(s.uploadsDir, batchID, file.Name)
		if err := os.MkdirAll(filepath.Dir(srcPath), 0o755); err != nil {
			return nil, fmt.Errorf("create batch directory: %w", err)
		}
		if err := os.WriteFile(srcPath, file.Content, 0o644); err != nil {
			return nil, fmt.Errorf("store upload %s: %w", file.Name, err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fanOutLimit)
	for _, file := range cleaned {
		for _, lang := range languages {
			file, lang := file, lang
			group.Go(func() error {
				return s.createJob(groupCtx, batchID, file.Name, lang)
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	totalJobs := len(cleaned) * len(languages)
	if err := s.store.PutBatch(ctx, &store.Batch{
		BatchID:         batchID,
		CreatedAt:       time.Now().UTC(),
		TargetLanguages: languages,
		TotalJobs:       totalJobs,
		UserID:          userID,
	}); err != nil {
		return nil, fmt.Errorf("persist batch %s: %w", batchID, err)
	}

	s.recordAudit(ctx, batchID, cleaned, languages, userID)

	log.Info("Intake: accepted batch %s with %d jobs (%d files x %d languages)",
		batchID, totalJobs, len(cleaned), len(languages))
	return &Result{BatchID: batchID, TotalJobs: totalJobs}, nil
}

func (s *Service) createJob(ctx context.Context, batchID, fileName, lang string) error {
	jobID := uuid.NewString()
	job := &store.Job{
		JobID:          jobID,
		BatchID:        batchID,
		FilePath:       paths.SourcePath(s.uploadsDir, batchID, fileName),
		TargetLanguage: lang,
		Status:         domain.JobQueued,
		OutputPath:     paths.OutputPath(s.uploadsDir, batchID, fileName, lang),
	}
	if err := s.store.PutJob(ctx, job); err != nil {
		return fmt.Errorf("persist job %s/%s: %w", fileName, lang, err)
	}
	if err := s.store.AppendBatchJob(ctx, batchID, jobID); err != nil {
		return fmt.Errorf("register job %s in batch %s: %w", jobID, batchID, err)
	}
	s.tasks.Enqueue(queue.TranslationTask{
		JobID:          jobID,
		BatchID:        batchID,
		FilePath:       job.FilePath,
		TargetLanguage: lang,
		OutputPath:     job.OutputPath,
	})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, batchID string, files []SourceFile, languages []string, userID string) {
	if s.audit == nil || userID == "" {
		return
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	err := s.audit.CreateRecord(ctx, &persistence.Record{
		BatchID:           batchID,
		FileName:          strings.Join(names, ", "),
		SelectedLanguages: languages,
		Status:            string(domain.BatchQueue),
		UserID:            userID,
		DeletionDate:      time.Now().Add(s.retention),
	})
	if err != nil {
		log.Warn("Intake: audit record for batch %s failed: %v", batchID, err)
	}
}

// validateFiles checks the upload set and returns it with sanitized names.
func validateFiles(files []SourceFile, maxSize int64) ([]SourceFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	cleaned := make([]SourceFile, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		name := SanitizeFileName(file.Name)
		if name == "" || name == "." {
			return nil, fmt.Errorf("invalid file name %q", file.Name)
		}
		if !strings.EqualFold(filepath.Ext(name), ".srt") {
			return nil, fmt.Errorf("unsupported file type %q, only .srt is accepted", file.Name)
		}
		if int64(len(file.Content)) > maxSize {
			return nil, fmt.Errorf("file %q exceeds the %d byte limit", file.Name, maxSize)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate file name %q", name)
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, SourceFile{Name: name, Content: file.Content})
	}
	return cleaned, nil
}

func validateLanguages(languages []string) error {
	if len(languages) == 0 {
		return fmt.Errorf("no target languages provided")
	}
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		if _, err := language.ParseBase(lang); err != nil {
			return fmt.Errorf("invalid language code %q", lang)
		}
		if _, dup := seen[lang]; dup {
			return fmt.Errorf("duplicate language code %q", lang)
		}
		seen[lang] = struct{}{}
	}
	return nil
}

// SanitizeFileName strips any path components and replaces characters that
// are unsafe on disk. Only the base name survives, so uploads cannot escape
// their batch directory.
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	return fileNameUnsafe.ReplaceAllString(base, "_")
}
