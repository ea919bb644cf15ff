// Package sevenzip extracts a 7-Zip container into the file pool. It
// feeds import when the pool path names an archive instead of a
// directory; the core never reads containers itself.
package sevenzip

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	szip "github.com/bodgit/sevenzip"
)

// Extract unpacks the archive at archivePath into destDir. Entry paths
// are confined to destDir; an entry that would escape it fails the
// extraction.
func Extract(archivePath, destDir string) error {
	r, err := szip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, file := range r.File {
		if err := extractFile(file, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *szip.File, destDir string) error {
	target, err := securePath(destDir, file.Name)
	if err != nil {
		return err
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extracting %s: %w", file.Name, err)
	}
	return nil
}

// securePath joins name under dir and rejects entries that climb out.
func securePath(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes the pool directory", name)
	}
	return target, nil
}
