package translator

import "context"

// Translator is the external machine-translation boundary. Implementations
// must keep result segment i aligned with input text i; the pipeline has no
// way to detect a reordered response.
type Translator interface {
	// DetectLanguage classifies the given text sample and returns an
	// ISO 639-1 two-letter code.
	DetectLanguage(ctx context.Context, text string) (string, error)

	// TranslateBatch translates each text as one segment and returns the
	// segments in input order. The returned slice may be shorter or longer
	// than texts when the backend misbehaves; callers decide how to degrade.
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Detector is the detection-only subset of Translator, used as a local
// fallback when the remote backend returns an unusable code.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}
