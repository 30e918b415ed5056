package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/scanner"
)

// Watcher reports debounced file events below the filter's root. It uses
// fsnotify, falling back to polling when fsnotify cannot be initialized.
type Watcher struct {
	opts      Options
	filter    *scanner.Filter
	fsw       *fsnotify.Watcher // nil when polling
	debouncer *Debouncer
	stopCh    chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a Watcher. Call Start to begin watching.
func New(opts Options) (*Watcher, error) {
	if opts.Filter == nil {
		return nil, fmt.Errorf("filter is required")
	}
	opts = opts.WithDefaults()

	w := &Watcher{
		opts:      opts,
		filter:    opts.Filter,
		debouncer: NewDebouncer(opts.Debounce, opts.BufferSize),
		stopCh:    make(chan struct{}),
	}
	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			slog.Warn("fsnotify_unavailable_polling",
				slog.String("error", err.Error()),
				slog.Duration("interval", opts.PollInterval))
		} else {
			w.fsw = fsw
		}
	}
	return w, nil
}

// Mode returns "fsnotify" or "polling".
func (w *Watcher) Mode() string {
	if w.fsw != nil {
		return "fsnotify"
	}
	return "polling"
}

// Events returns the channel of debounced batches. It is closed by Stop.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Start watches until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	slog.Info("watch_started",
		slog.String("root", w.filter.Root()),
		slog.String("mode", w.Mode()))
	if w.fsw != nil {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

// Stop stops watching and closes the event channel. Safe to call twice.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) runFsnotify(ctx context.Context) error {
	if err := w.addTree(w.filter.Root()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.filter.Root(), err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// addTree watches dir and every directory below it the filter keeps.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, ok := w.filter.Rel(path)
		if !ok {
			return filepath.SkipDir
		}
		if rel != "." && w.filter.SkipDir(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handle(ev fsnotify.Event) {
	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpModify
	case ev.Op.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Op.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	path := filepath.Clean(ev.Name)
	isDir := false
	if op == OpCreate || op == OpModify {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		isDir = info.IsDir()
	}

	fe, ok := w.classify(path, op, isDir)
	if !ok {
		return
	}
	if fe.IsDir && fe.Operation == OpCreate {
		if err := w.addTree(path); err != nil {
			slog.Warn("watch_add_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	w.debouncer.Add(fe)
}

// classify filters an event and maps .gitignore and config files to their
// dedicated operations.
func (w *Watcher) classify(path string, op Operation, isDir bool) (FileEvent, bool) {
	rel, ok := w.filter.Rel(path)
	if !ok || rel == "." {
		return FileEvent{}, false
	}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if w.filter.SkipDir(strings.Join(parts[:i], "/")) {
			return FileEvent{}, false
		}
	}

	fe := FileEvent{Path: path, Operation: op, IsDir: isDir, Timestamp: time.Now()}
	if !isDir {
		switch parts[len(parts)-1] {
		case ".gitignore":
			fe.Operation = OpGitignoreChange
			return fe, true
		case config.FileName, config.AltFileName:
			fe.Operation = OpConfigChange
			return fe, true
		}
	}

	switch {
	case op == OpDelete || op == OpRename:
		// The path is gone, so it may have been a directory.
		return fe, !w.filter.SkipDir(rel)
	case isDir:
		return fe, !w.filter.SkipDir(rel)
	default:
		return fe, !w.filter.SkipFile(rel)
	}
}
