// Package file holds small path helpers shared across the pipeline.
package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of the final path element. An extension
// without a leading dot is accepted; a dotless file name just gets the
// extension appended.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	lastDot := strings.LastIndex(filename, ".")

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}
	return filepath.Join(dir, filename[:lastDot]+ext)
}
