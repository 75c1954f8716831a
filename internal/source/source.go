// Package source implements the minimal file-reader contract the
// preprocessor uses to resolve #import/#include targets, grounded on the
// real-filesystem half of the host toolchain's fileutil.FileSystem.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nodeware/lumen/internal/diagnostics"
)

// Reader resolves source paths against a single base directory, matching
// names case-insensitively the way the host toolchain's RealFS does.
type Reader struct {
	baseDir string
}

// NewReader returns a Reader rooted at baseDir. An empty baseDir resolves
// paths relative to the process working directory.
func NewReader(baseDir string) *Reader {
	return &Reader{baseDir: baseDir}
}

func (r *Reader) resolve(path string) string {
	if filepath.IsAbs(path) || r.baseDir == "" {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

// IsFile reports whether path names a regular file.
func (r *Reader) IsFile(path string) bool {
	full := r.resolve(path)
	if info, err := os.Stat(full); err == nil {
		return !info.IsDir()
	}
	if actual, err := r.findCaseInsensitive(full); err == nil {
		if info, err := os.Stat(actual); err == nil {
			return !info.IsDir()
		}
	}
	return false
}

// ReadFile returns the contents of path as a string. On failure it
// inserts diagnostics.CannotOpenFile into diag and returns "".
func (r *Reader) ReadFile(diag *diagnostics.Collector, path string) string {
	full := r.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		if actual, findErr := r.findCaseInsensitive(full); findErr == nil {
			data, err = os.ReadFile(actual)
		}
	}
	if err != nil {
		diag.Insert(diagnostics.CannotOpenFile)
		return ""
	}
	return string(data)
}

// Normalize produces the canonical include-set key for a path: a cleaned,
// case-folded form, so that "Foo.lum" and "foo.lum" guard each other.
func Normalize(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

func (r *Reader) findCaseInsensitive(path string) (string, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(name)
	for _, e := range entries {
		if strings.ToLower(e.Name()) == lower {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}
