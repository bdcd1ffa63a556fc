package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipFolder archives the directory tree rooted at srcDir into destZip.
// Entry names are relative to srcDir. Rebuilding the same tree produces an
// equivalent archive, so callers may safely retry after a failure.
func ZipFolder(srcDir, destZip string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", srcDir)
	}

	out, err := os.Create(destZip)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		entry, err := writer.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, src)
		if closeErr := src.Close(); err == nil {
			err = closeErr
		}
		return err
	})
	if err != nil {
		_ = writer.Close()
		return fmt.Errorf("archive %s: %w", srcDir, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}
