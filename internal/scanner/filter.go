package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aman-CERP/symdex/internal/gitignore"
)

// Filter decides which paths under a root are indexable. Nested .gitignore
// files are loaded the first time a path below them is checked.
type Filter struct {
	root      string
	opts      Options
	excludes  *gitignore.Matcher
	includes  *gitignore.Matcher
	gitignore *gitignore.Matcher

	mu     sync.Mutex
	loaded map[string]bool // relative dirs whose .gitignore was read
}

// NewFilter builds a filter for opts.Root.
func NewFilter(opts Options) (*Filter, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	f := &Filter{
		root:      root,
		opts:      opts,
		excludes:  gitignore.New(),
		gitignore: gitignore.New(),
		loaded:    make(map[string]bool),
	}
	for _, p := range defaultExcludes {
		f.excludes.AddPattern(p)
	}
	for _, p := range sensitivePatterns {
		f.excludes.AddPattern(p)
	}
	for _, p := range opts.Exclude {
		f.excludes.AddPattern(p)
	}
	if len(opts.Include) > 0 {
		f.includes = gitignore.New()
		for _, p := range opts.Include {
			f.includes.AddPattern(p)
		}
	}
	return f, nil
}

// Root returns the absolute root.
func (f *Filter) Root() string {
	return f.root
}

// Rel returns the slash-separated path of abs relative to the root, and
// false if abs is outside it.
func (f *Filter) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SkipDir reports whether a directory should not be descended into.
func (f *Filter) SkipDir(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	return f.excludes.Match(rel, true) || f.ignored(rel, true)
}

// SkipFile reports whether a file is excluded by name alone.
func (f *Filter) SkipFile(rel string) bool {
	if f.excludes.Match(rel, false) || f.ignored(rel, false) {
		return true
	}
	if f.includes != nil && !f.includes.Match(rel, false) {
		return true
	}
	if f.opts.Supported != nil && !f.opts.Supported(rel) {
		return true
	}
	return false
}

// Allows reports whether the file at abs would be picked up by a scan.
// It checks every ancestor directory, the size limit and binary content.
func (f *Filter) Allows(abs string) bool {
	rel, ok := f.Rel(abs)
	if !ok || rel == "." {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if f.SkipDir(strings.Join(parts[:i], "/")) {
			return false
		}
	}
	if f.SkipFile(rel) {
		return false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() || info.Size() > f.opts.MaxFileSize {
		return false
	}
	return !isBinary(abs)
}

// ResetGitignore forgets loaded .gitignore rules so they are re-read.
func (f *Filter) ResetGitignore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gitignore = gitignore.New()
	f.loaded = make(map[string]bool)
}

func (f *Filter) ignored(rel string, isDir bool) bool {
	if !f.opts.RespectGitignore {
		return false
	}
	m := f.gitignoreFor(rel)
	return m.Match(rel, isDir)
}

// gitignoreFor loads .gitignore files of every ancestor of rel.
func (f *Filter) gitignoreFor(rel string) *gitignore.Matcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := ""
	f.load(dir)
	parts := strings.Split(rel, "/")
	for _, part := range parts[:len(parts)-1] {
		if dir == "" {
			dir = part
		} else {
			dir += "/" + part
		}
		f.load(dir)
	}
	return f.gitignore
}

func (f *Filter) load(dir string) {
	if f.loaded[dir] {
		return
	}
	f.loaded[dir] = true
	path := filepath.Join(f.root, filepath.FromSlash(dir), ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = f.gitignore.AddFromFile(path, dir)
}
