package archive

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipFolder_ArchivesTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "movie"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "movie", "movie.fr.srt"), []byte("1\nfr content\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "movie", "movie.de.srt"), []byte("1\nde content\n"), 0o644))

	dest := filepath.Join(t.TempDir(), "results.zip")
	require.NoError(t, ZipFolder(src, dest))

	reader, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"movie/movie.fr.srt", "movie/movie.de.srt"}, names)
}

func TestZipFolder_RetryProducesEquivalentArchive(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.srt"), []byte("content"), 0o644))

	dest := filepath.Join(t.TempDir(), "results.zip")
	require.NoError(t, ZipFolder(src, dest))
	require.NoError(t, ZipFolder(src, dest))

	reader, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer reader.Close()
	require.Len(t, reader.File, 1)
	assert.Equal(t, "a.srt", reader.File[0].Name)
}

func TestZipFolder_ManyFiles(t *testing.T) {
	// More files than a typical open-file limit; each source must be closed
	// as soon as it has been copied.
	src := t.TempDir()
	for i := 0; i < 2048; i++ {
		name := filepath.Join(src, fmt.Sprintf("entry-%04d.srt", i))
		require.NoError(t, os.WriteFile(name, []byte("content"), 0o644))
	}

	dest := filepath.Join(t.TempDir(), "results.zip")
	require.NoError(t, ZipFolder(src, dest))

	reader, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer reader.Close()
	assert.Len(t, reader.File, 2048)
}

func TestZipFolder_MissingSource(t *testing.T) {
	err := ZipFolder(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "out.zip"))
	assert.Error(t, err)
}
