// Package scanner discovers indexable files under a project root and
// compares them with what the index already knows.
package scanner

import (
	"time"
)

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// FileInfo describes a discovered file.
type FileInfo struct {
	Path    string    // Relative to the scan root, slash-separated
	AbsPath string    // Absolute, cleaned
	Size    int64     // Bytes
	ModTime time.Time // Last modification time
}

// Options configures a scan.
type Options struct {
	// Root is the directory to scan.
	Root string

	// Include restricts results to paths matching one of these gitignore-style
	// patterns. Empty means everything.
	Include []string

	// Exclude lists gitignore-style patterns to skip, on top of the defaults.
	Exclude []string

	// RespectGitignore loads .gitignore files found during the walk.
	RespectGitignore bool

	// MaxFileSize skips larger files. 0 uses DefaultMaxFileSize.
	MaxFileSize int64

	// Supported reports whether a path is worth indexing. Nil accepts all.
	Supported func(path string) bool
}

// Changes is the difference between the files on disk and the index.
type Changes struct {
	Added    []FileInfo
	Modified []FileInfo
	Deleted  []string // absolute paths
}

// Stale returns the files that need indexing.
func (c Changes) Stale() []FileInfo {
	out := make([]FileInfo, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	return append(out, c.Modified...)
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Directories never descended into.
var defaultExcludes = []string{
	".git/",
	".hg/",
	".svn/",
	".symdex/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	".venv/",
	"dist/",
	"build/",
	"*.min.js",
	"*.min.css",
}

// Files never indexed regardless of configuration.
var sensitivePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	".netrc",
	".npmrc",
	".pypirc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}
