// Package archive unpacks module source archives into temporary
// directories.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Limits bounds what an archive may unpack to.
type Limits struct {
	MaxFileSize  int64
	MaxTotalSize int64
	MaxFiles     int
}

// DefaultLimits matches the size bounds the module proxy enforces on
// module zips, with headroom.
var DefaultLimits = Limits{
	MaxFileSize:  100 << 20,
	MaxTotalSize: 1 << 30,
	MaxFiles:     50000,
}

// ExtractZip unpacks data under a new temp directory using DefaultLimits.
func ExtractZip(data []byte, prefix string) (dir string, cleanup func(), err error) {
	return DefaultLimits.Extract(data, prefix)
}

// Extract unpacks data under a new temp directory named after prefix and
// returns the directory with a function that removes it. Entries escaping
// the directory and symlinks are rejected or skipped.
func (l Limits) Extract(data []byte, prefix string) (string, func(), error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("reading zip archive: %w", err)
	}
	if l.MaxFiles > 0 && len(reader.File) > l.MaxFiles {
		return "", nil, fmt.Errorf("zip archive contains %d files, exceeds maximum of %d", len(reader.File), l.MaxFiles)
	}

	tmpDir, err := os.MkdirTemp("", "upgradecheck-"+sanitize(prefix)+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	var total int64
	for _, file := range reader.File {
		n, err := l.extractFile(file, tmpDir)
		if err != nil {
			cleanup()
			return "", nil, err
		}
		total += n
		if l.MaxTotalSize > 0 && total > l.MaxTotalSize {
			cleanup()
			return "", nil, fmt.Errorf("total extracted size exceeds maximum of %d bytes", l.MaxTotalSize)
		}
	}
	return tmpDir, cleanup, nil
}

func (l Limits) extractFile(file *zip.File, root string) (int64, error) {
	if file.Mode()&os.ModeSymlink != 0 {
		return 0, nil
	}
	target, err := safeJoin(root, file.Name)
	if err != nil {
		return 0, err
	}
	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %s: %w", file.Name, err)
		}
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory for %s: %w", file.Name, err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("opening zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("creating file %s: %w", file.Name, err)
	}
	defer out.Close()

	var src io.Reader = rc
	if l.MaxFileSize > 0 {
		src = io.LimitReader(rc, l.MaxFileSize+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return n, fmt.Errorf("extracting %s: %w", file.Name, err)
	}
	if l.MaxFileSize > 0 && n > l.MaxFileSize {
		return n, fmt.Errorf("file %s exceeds maximum size of %d bytes", file.Name, l.MaxFileSize)
	}
	return n, nil
}

// safeJoin resolves name under root and rejects paths that leave it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("zip entry attempts path traversal: %s", name)
	}
	return target, nil
}

// sanitize keeps version strings like "v1.2.3+incompatible" usable in a
// temp directory pattern.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == os.PathSeparator || r == '*' {
			return '_'
		}
		return r
	}, s)
}
