package paths

import (
	"path/filepath"
	"strings"

	"github.com/titrolabs/srt-batch-translator/pkg/file"
)

// ArtifactName is the fixed archive name inside a batch's directory.
const ArtifactName = "results.zip"

// OriginalDirName holds the uploaded source files within a batch directory.
// The packaging step removes it before archiving.
const OriginalDirName = "original"

// BatchDir returns the working directory of a batch under the uploads root.
func BatchDir(root, batchID string) string {
	return filepath.Join(root, batchID)
}

// OriginalDir returns where a batch's uploaded source files live.
func OriginalDir(root, batchID string) string {
	return filepath.Join(BatchDir(root, batchID), OriginalDirName)
}

// SourcePath returns where an uploaded file is stored before translation.
func SourcePath(root, batchID, fileName string) string {
	return filepath.Join(OriginalDir(root, batchID), fileName)
}

// OutputPath returns the deterministic destination of one translated file:
// uploads/<batchId>/<name>/<name>.<lang>.srt. Deterministic paths make
// re-running a completed job idempotent.
func OutputPath(root, batchID, fileName, targetLang string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return filepath.Join(BatchDir(root, batchID), name, file.ReplaceExt(fileName, targetLang+".srt"))
}

// ArtifactPath returns the final archive location for a batch.
func ArtifactPath(root, batchID string) string {
	return filepath.Join(BatchDir(root, batchID), ArtifactName)
}

// TempArtifactPath returns the staging location the archive is built at
// before being moved into the batch directory.
func TempArtifactPath(root, batchID string) string {
	return filepath.Join(root, "results-"+batchID+".zip")
}

// ArtifactURL returns the client-facing download URL, derived purely from
// the batch id.
func ArtifactURL(batchID string) string {
	return "/downloads/" + batchID + "/" + ArtifactName
}
