package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/lock"
	"github.com/Aman-CERP/symdex/internal/store"
)

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a problem that does not block indexing.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns PASS, WARN or FAIL.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status as its string form.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult is the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical reports whether a required check failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker runs the checks for one project root.
type Checker struct {
	root   string
	dbPath string
}

// New creates a Checker for root. dbPath overrides the configured database
// path when non-empty.
func New(root, dbPath string) *Checker {
	return &Checker{root: root, dbPath: dbPath}
}

// RunAll runs every check. The database checks use the configured path, or
// the default one when the configuration does not load.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	cfgResult, cfg := c.CheckConfig()
	dbPath := c.dbPath
	if dbPath == "" {
		dbPath = cfg.DatabasePath(c.root)
	}

	results := []CheckResult{cfgResult}
	if dbPath == store.MemoryPath {
		return append(results, CheckFileDescriptors())
	}

	dir := existingDir(filepath.Dir(dbPath))
	return append(results,
		CheckDiskSpace(dir),
		CheckWritePermissions(dir),
		CheckDatabase(ctx, dbPath),
		CheckLock(dbPath),
		CheckFileDescriptors(),
	)
}

// CheckConfig loads the project configuration. On failure the defaults are
// returned alongside the failed result.
func (c *Checker) CheckConfig() (CheckResult, *config.Config) {
	result := CheckResult{Name: "config", Required: true}

	cfg, err := config.Load(c.root)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result, config.NewConfig()
	}

	result.Status = StatusPass
	if path := config.FindConfigFile(c.root); path != "" {
		result.Message = "OK"
		result.Details = path
	} else {
		result.Message = "OK (defaults, no config file)"
	}
	return result, cfg
}

// CheckWritePermissions checks that a file can be created in dir.
func CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{Name: "write_permissions", Required: true, Details: dir}

	f, err := os.CreateTemp(dir, ".symdex-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write to %s: %v", dir, err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckDatabase opens an existing index and verifies its integrity and
// builtin seed. A database that does not exist yet is a warning.
func CheckDatabase(ctx context.Context, path string) CheckResult {
	result := CheckResult{Name: "database", Required: true, Details: path}
	fail := func(err error) CheckResult {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusWarn
		result.Message = "not created yet (run 'symdex reindex')"
		return result
	}

	db, err := store.Open(path)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = db.Close() }()

	if err := db.QuickCheck(ctx); err != nil {
		return fail(err)
	}
	flag, err := db.GetSetting(ctx, store.SettingHasIndexedBuiltin)
	if err != nil {
		return fail(err)
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		return fail(err)
	}

	if !flag.Truthy() {
		result.Status = StatusWarn
		result.Message = "builtin seed missing (the next reindex indexes it)"
		return result
	}
	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d files, %d symbols", stats.Files, stats.Symbols)
	return result
}

// CheckLock reports whether another process holds the index lock.
func CheckLock(dbPath string) CheckResult {
	result := CheckResult{Name: "lock", Required: false}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "OK"
		return result
	}

	l := lock.NewFileLock(dbPath)
	result.Details = l.Path()
	acquired, err := l.TryLock()
	if err != nil {
		result.Status = StatusWarn
		result.Message = err.Error()
		return result
	}
	if !acquired {
		result.Status = StatusWarn
		result.Message = "held by another process (single-file reindexes will wait)"
		return result
	}
	_ = l.Unlock()

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// HasCriticalFailures reports whether any required check failed.
func HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// Summary returns "ready", "ready_with_warnings" or "failed".
func Summary(results []CheckResult) string {
	if HasCriticalFailures(results) {
		return "failed"
	}
	for _, r := range results {
		if r.Status != StatusPass {
			return "ready_with_warnings"
		}
	}
	return "ready"
}

// existingDir returns dir or its nearest existing ancestor.
func existingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
