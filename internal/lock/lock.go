// Package lock serializes writers to an index database across processes.
//
// Disk-backed databases are guarded by an advisory exclusive lock on a
// sidecar file next to the database (<db>.lock). In-memory databases are
// private to one process and are never locked.
package lock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
)

// Suffix is appended to the database path to form the lock file path.
const Suffix = ".lock"

// Target is a database the lock can be bound to.
type Target interface {
	Path() string
	IsMemory() bool
}

// FileLock is an exclusive advisory lock on a single file.
// Works on all platforms supported by gofrs/flock.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock bound to the database at dbPath.
// The lock file is <dbPath>.lock.
func NewFileLock(dbPath string) *FileLock {
	lockPath := dbPath + Suffix
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock blocks until the exclusive lock is held.
// The lock file is created if it doesn't exist.
func (l *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return symerrors.LockError("failed to acquire lock "+l.path, err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return symerrors.LockError("failed to release lock "+l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked reports whether this FileLock currently holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}

// Runner runs a body while holding the write lock for a database.
type Runner interface {
	Run(db Target, body func() error) error
}

// Exclusive is the Runner used in production.
type Exclusive struct {
	// OnAcquire and OnRelease, when set, are called with the lock file path
	// right after the lock is taken and right after it is released.
	OnAcquire func(path string)
	OnRelease func(path string)
}

// Run executes body while holding the exclusive lock for db.
//
// For an in-memory database body runs directly and the filesystem is never
// touched. Otherwise Run blocks without timeout until the lock is acquired,
// and releases it on every exit path, including a panic in body.
func (e Exclusive) Run(db Target, body func() error) (err error) {
	if db.IsMemory() {
		return body()
	}

	l := NewFileLock(db.Path())
	start := time.Now()
	if err := l.Lock(); err != nil {
		return err
	}
	slog.Debug("index_lock_acquired",
		slog.String("path", l.Path()),
		slog.Duration("wait", time.Since(start)))
	if e.OnAcquire != nil {
		e.OnAcquire(l.Path())
	}

	defer func() {
		uerr := l.Unlock()
		if e.OnRelease != nil {
			e.OnRelease(l.Path())
		}
		if uerr != nil {
			slog.Warn("index_lock_release_failed",
				slog.String("path", l.Path()),
				slog.String("error", uerr.Error()))
			if err == nil {
				err = uerr
			}
		}
	}()

	return body()
}

// Do runs body under r's lock for db and returns its value.
func Do[T any](r Runner, db Target, body func() (T, error)) (T, error) {
	var result T
	err := r.Run(db, func() error {
		var err error
		result, err = body()
		return err
	})
	return result, err
}
