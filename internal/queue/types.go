package queue

// TranslationTask drives one (file, target-language) translation attempt.
type TranslationTask struct {
	JobID          string `json:"job_id"`
	BatchID        string `json:"batch_id"`
	FilePath       string `json:"file_path"`
	TargetLanguage string `json:"target_language"`
	OutputPath     string `json:"output_path"`
}

// PackagingTask drives the single archive build for a completed batch.
type PackagingTask struct {
	BatchID string `json:"batch_id"`
}
