package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the translation provider (empty = local-only mode)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
//
// Storage Configuration:
// - UPLOADS_DIR: Batch working directory root (default: ./uploads)
// - JOB_DB_PATH: Job state database path (default: ./data/jobs.db)
// - AUDIT_DB_PATH: Audit trail database path (default: ./data/audit.db)
// - MAX_FILE_SIZE: Per-upload size cap in bytes (default: 2097152)
//
// Pipeline Configuration:
// - TRANSLATION_WORKERS: Translation queue worker count (default: 4)
// - PACKAGING_WORKERS: Packaging queue worker count (default: 1)
// - TRANSLATION_BATCH_SIZE: Subtitle blocks per translation call (default: 10)
// - TASK_MAX_ATTEMPTS: Queue attempts per task (default: 3)
// - TASK_TIMEOUT: Per-attempt timeout in seconds (default: 300)
// - RETENTION_DAYS: Days before batch artifacts expire (default: 7)
// - RETENTION_CRON: Sweep schedule (default: "0 0 * * *")
//
// Server Configuration:
// - HTTP_ADDR: Listen address (default: :8080)
// - LOG_LEVEL: debug|info|warn|error (default: info)
// - LOG_FILE: Log file path (empty = stdout)

type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Storage  StorageConfig  `json:"storage"`
	Pipeline PipelineConfig `json:"pipeline"`
	Server   ServerConfig   `json:"server"`
}

// LLMConfig holds the configuration for the translation backend.
// Supports any OpenAI-compatible provider (OpenRouter, OpenAI, etc.).
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

type StorageConfig struct {
	UploadsDir  string `json:"uploads_dir"`
	JobDBPath   string `json:"job_db_path"`
	AuditDBPath string `json:"audit_db_path"`
	MaxFileSize int64  `json:"max_file_size"`
}

type PipelineConfig struct {
	TranslationWorkers   int    `json:"translation_workers"`
	PackagingWorkers     int    `json:"packaging_workers"`
	TranslationBatchSize int    `json:"translation_batch_size"`
	TaskMaxAttempts      int    `json:"task_max_attempts"`
	TaskTimeoutSeconds   int    `json:"task_timeout_seconds"`
	RetentionDays        int    `json:"retention_days"`
	RetentionCron        string `json:"retention_cron"`
}

type ServerConfig struct {
	HTTPAddr string `json:"http_addr"`
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
		},
		Storage: StorageConfig{
			UploadsDir:  getEnvString("UPLOADS_DIR", "./uploads"),
			JobDBPath:   getEnvString("JOB_DB_PATH", "./data/jobs.db"),
			AuditDBPath: getEnvString("AUDIT_DB_PATH", "./data/audit.db"),
			MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE", 2<<20)),
		},
		Pipeline: PipelineConfig{
			TranslationWorkers:   getEnvInt("TRANSLATION_WORKERS", 4),
			PackagingWorkers:     getEnvInt("PACKAGING_WORKERS", 1),
			TranslationBatchSize: getEnvInt("TRANSLATION_BATCH_SIZE", 10),
			TaskMaxAttempts:      getEnvInt("TASK_MAX_ATTEMPTS", 3),
			TaskTimeoutSeconds:   getEnvInt("TASK_TIMEOUT", 300),
			RetentionDays:        getEnvInt("RETENTION_DAYS", 7),
			RetentionCron:        getEnvString("RETENTION_CRON", "0 0 * * *"),
		},
		Server: ServerConfig{
			HTTPAddr: getEnvString("HTTP_ADDR", ":8080"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
			LogFile:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Storage.UploadsDir == "" {
		return fmt.Errorf("UPLOADS_DIR is required")
	}
	if c.Storage.JobDBPath == "" {
		return fmt.Errorf("JOB_DB_PATH is required")
	}
	if c.Pipeline.TranslationWorkers <= 0 {
		return fmt.Errorf("TRANSLATION_WORKERS must be positive")
	}
	if c.Pipeline.PackagingWorkers <= 0 {
		return fmt.Errorf("PACKAGING_WORKERS must be positive")
	}
	if c.Pipeline.TranslationBatchSize <= 0 {
		return fmt.Errorf("TRANSLATION_BATCH_SIZE must be positive")
	}
	if c.Pipeline.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
