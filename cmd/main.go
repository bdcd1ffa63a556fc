package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/titrolabs/srt-batch-translator/internal/config"
	"github.com/titrolabs/srt-batch-translator/internal/httpapi"
	"github.com/titrolabs/srt-batch-translator/internal/intake"
	"github.com/titrolabs/srt-batch-translator/internal/notify"
	"github.com/titrolabs/srt-batch-translator/internal/persistence"
	"github.com/titrolabs/srt-batch-translator/internal/queue"
	"github.com/titrolabs/srt-batch-translator/internal/retention"
	"github.com/titrolabs/srt-batch-translator/internal/status"
	"github.com/titrolabs/srt-batch-translator/internal/store"
	"github.com/titrolabs/srt-batch-translator/internal/translator"
	"github.com/titrolabs/srt-batch-translator/internal/worker"
	"github.com/titrolabs/srt-batch-translator/pkg/log"
	"github.com/titrolabs/srt-batch-translator/pkg/retry"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	setupLogger(cfg.Server)

	jobStore, err := store.NewBoltStore(cfg.Storage.JobDBPath)
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer jobStore.Close()

	auditStore, err := persistence.NewSQLiteStore(cfg.Storage.AuditDBPath)
	if err != nil {
		log.Fatal("Failed to open audit store: %v", err)
	}
	defer auditStore.Close()

	registry := notify.NewMemoryRegistry()
	trans := buildTranslator(cfg.LLM)

	policy := retry.Policy{
		MaxAttempts: cfg.Pipeline.TaskMaxAttempts,
		BaseDelay:   500 * time.Millisecond,
	}
	taskTimeout := time.Duration(cfg.Pipeline.TaskTimeoutSeconds) * time.Second

	packagingQueue := queue.New("packaging", cfg.Pipeline.PackagingWorkers,
		queue.WithRetryPolicy[queue.PackagingTask](policy),
		queue.WithTaskTimeout[queue.PackagingTask](taskTimeout),
	)
	translationQueue := queue.New("translation", cfg.Pipeline.TranslationWorkers,
		queue.WithRetryPolicy[queue.TranslationTask](policy),
		queue.WithTaskTimeout[queue.TranslationTask](taskTimeout),
	)

	translation := worker.NewTranslation(jobStore, trans, registry, packagingQueue,
		worker.WithBatchSize(cfg.Pipeline.TranslationBatchSize))
	packaging := worker.NewPackaging(jobStore, registry, cfg.Storage.UploadsDir,
		worker.WithAuditUpdater(auditStore))

	translationQueue.Start(translation.Handle)
	packagingQueue.Start(packaging.Handle)
	defer packagingQueue.Stop()
	defer translationQueue.Stop()

	cronEngine := cron.New()
	sweeper := retention.NewSweeper(jobStore, auditStore, cfg.Storage.UploadsDir,
		cfg.Pipeline.RetentionCron, cronEngine)
	if err := sweeper.Schedule(); err != nil {
		log.Fatal("Failed to schedule retention sweep: %v", err)
	}
	cronEngine.Start()
	defer cronEngine.Stop()

	intakeSvc := intake.NewService(jobStore, translationQueue, cfg.Storage.UploadsDir,
		intake.WithAudit(auditStore),
		intake.WithMaxFileSize(cfg.Storage.MaxFileSize),
		intake.WithRetention(time.Duration(cfg.Pipeline.RetentionDays)*24*time.Hour),
	)
	statusSvc := status.NewService(jobStore, cfg.Storage.UploadsDir)
	server := httpapi.NewServer(intakeSvc, statusSvc, registry, cfg.Storage.UploadsDir)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Server.HTTPAddr)
		errCh <- server.ListenAndServe(cfg.Server.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received %s, shutting down", sig)
	case err := <-errCh:
		log.Error("HTTP server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown: %v", err)
	}
}

func setupLogger(cfg config.ServerConfig) {
	level := log.ParseLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		if _, err := log.InitFileLogger(cfg.LogFile, level); err == nil {
			return
		}
		log.Warn("Failed to open log file %s, logging to stdout", cfg.LogFile)
	}
	log.InitLogger(level)
}

// buildTranslator picks the remote backend when an API key is configured and
// falls back to local-only language detection otherwise.
func buildTranslator(cfg config.LLMConfig) translator.Translator {
	if cfg.APIKey == "" {
		log.Warn("LLM_API_KEY not set, running with the local passthrough translator")
		return translator.NewPassthrough(translator.NewLocalDetector())
	}
	client, err := translator.NewClient(translator.Config{
		APIKey:      cfg.APIKey,
		APIURL:      cfg.APIURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}, translator.WithFallbackDetector(translator.NewLocalDetector()))
	if err != nil {
		log.Fatal("Failed to build translator: %v", err)
	}
	return client
}
