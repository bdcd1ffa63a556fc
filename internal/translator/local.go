package translator

import (
	"context"
	"fmt"

	"github.com/abadojack/whatlanggo"
)

// LocalDetector classifies text with a statistical model, no network calls.
// Used as the fallback behind the remote detector and on its own in
// offline setups.
type LocalDetector struct{}

func NewLocalDetector() LocalDetector {
	return LocalDetector{}
}

func (LocalDetector) DetectLanguage(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("no text content to detect")
	}

	code := whatlanggo.DetectLang(text).Iso6391()
	if code == "" {
		return "", fmt.Errorf("unable to detect language")
	}
	return code, nil
}

// Passthrough is the offline translator: detection works locally and
// translation returns the input unchanged. Batches still flow through the
// whole pipeline, which makes it useful for setups without an API key.
type Passthrough struct {
	detector Detector
}

func NewPassthrough(detector Detector) Passthrough {
	return Passthrough{detector: detector}
}

func (p Passthrough) DetectLanguage(ctx context.Context, text string) (string, error) {
	return p.detector.DetectLanguage(ctx, text)
}

func (p Passthrough) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}
