package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Scanner walks a project tree.
type Scanner struct {
	filter *Filter
}

// New creates a Scanner for opts.Root.
func New(opts Options) (*Scanner, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	f, err := NewFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scan root: %w", err)
	}
	return &Scanner{filter: f}, nil
}

// NewWithFilter creates a Scanner that shares an existing filter.
func NewWithFilter(f *Filter) *Scanner {
	return &Scanner{filter: f}
}

// Filter returns the scanner's filter, for checking single paths later.
func (s *Scanner) Filter() *Filter {
	return s.filter
}

// Scan returns every indexable file under the root, in walk order.
func (s *Scanner) Scan(ctx context.Context) ([]FileInfo, error) {
	root := s.filter.Root()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	start := time.Now()
	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		rel, ok := s.filter.Rel(path)
		if !ok || rel == "." {
			return nil
		}

		if d.IsDir() {
			if s.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.filter.SkipFile(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil || fi.Size() > s.filter.opts.MaxFileSize || isBinary(path) {
			return nil
		}

		files = append(files, FileInfo{
			Path:    rel,
			AbsPath: path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	slog.Debug("scan_completed",
		slog.String("root", root),
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))
	return files, nil
}

// Diff compares scanned files with the known modification times. Known
// paths under root that were not scanned are reported as deleted.
func Diff(root string, files []FileInfo, known map[string]time.Time) Changes {
	var c Changes
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		seen[f.AbsPath] = struct{}{}
		mod, ok := known[f.AbsPath]
		switch {
		case !ok:
			c.Added = append(c.Added, f)
		case !mod.Equal(f.ModTime):
			c.Modified = append(c.Modified, f)
		}
	}

	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
	for path := range known {
		if _, ok := seen[path]; ok {
			continue
		}
		if path == root || strings.HasPrefix(path, prefix) {
			c.Deleted = append(c.Deleted, path)
		}
	}
	sort.Strings(c.Deleted)
	return c
}

// isBinary reports whether the first 512 bytes contain a NUL byte.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
