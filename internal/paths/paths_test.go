package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	got := OutputPath("/uploads", "batch-1", "movie.srt", "fr")
	assert.Equal(t, filepath.Join("/uploads", "batch-1", "movie", "movie.fr.srt"), got)
}

func TestArtifactLayout(t *testing.T) {
	assert.Equal(t, filepath.Join("/uploads", "batch-1", "results.zip"), ArtifactPath("/uploads", "batch-1"))
	assert.Equal(t, filepath.Join("/uploads", "results-batch-1.zip"), TempArtifactPath("/uploads", "batch-1"))
	assert.Equal(t, "/downloads/batch-1/results.zip", ArtifactURL("batch-1"))
	assert.Equal(t, filepath.Join("/uploads", "batch-1", "original", "movie.srt"), SourcePath("/uploads", "batch-1", "movie.srt"))
}
