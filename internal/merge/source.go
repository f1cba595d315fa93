package merge

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches GPX files in an input directory.
const DefaultPattern = "*.gpx"

// Source is one input document. ID names the source in generated names and
// failure reports.
type Source struct {
	ID   string
	Open func() (io.ReadCloser, error)
}

// FileSource reads path; its ID is the base filename without extension.
func FileSource(path string) Source {
	return Source{
		ID:   SourceID(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves data from memory.
func BytesSource(id string, data []byte) Source {
	return Source{
		ID:   id,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// SourceID derives a source identifier from a path: base name, extension stripped.
func SourceID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileSources wraps each path in a FileSource, keeping order.
func FileSources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = FileSource(p)
	}
	return sources
}

// Discover lists regular files in dir whose names match pattern
// (case-insensitively), sorted lexicographically so that processing order
// and therefore generated names are deterministic.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	lowerPattern := strings.ToLower(pattern)
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, _ := filepath.Match(lowerPattern, strings.ToLower(entry.Name()))
		if !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
