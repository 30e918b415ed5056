package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/scanner"
)

type snapshot struct {
	files   map[string]scanner.FileInfo
	special map[string]time.Time // root .gitignore and config files
}

// runPolling rescans the tree every PollInterval and emits the differences.
func (w *Watcher) runPolling(ctx context.Context) error {
	sc := scanner.NewWithFilter(w.filter)
	prev, err := w.snapshot(ctx, sc)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			cur, err := w.snapshot(ctx, sc)
			if err != nil {
				slog.Warn("watch_poll_failed", slog.String("error", err.Error()))
				continue
			}
			for _, ev := range diffSnapshots(prev, cur) {
				w.debouncer.Add(ev)
			}
			prev = cur
		}
	}
}

func (w *Watcher) snapshot(ctx context.Context, sc *scanner.Scanner) (snapshot, error) {
	files, err := sc.Scan(ctx)
	if err != nil {
		return snapshot{}, err
	}
	s := snapshot{
		files:   make(map[string]scanner.FileInfo, len(files)),
		special: make(map[string]time.Time),
	}
	for _, f := range files {
		s.files[f.AbsPath] = f
	}
	for _, name := range []string{".gitignore", config.FileName, config.AltFileName} {
		p := filepath.Join(w.filter.Root(), name)
		if info, err := os.Stat(p); err == nil {
			s.special[p] = info.ModTime()
		}
	}
	return s, nil
}

func diffSnapshots(prev, cur snapshot) []FileEvent {
	now := time.Now()
	var events []FileEvent

	for path, f := range cur.files {
		old, ok := prev.files[path]
		switch {
		case !ok:
			events = append(events, FileEvent{Path: path, Operation: OpCreate, Timestamp: now})
		case !old.ModTime.Equal(f.ModTime) || old.Size != f.Size:
			events = append(events, FileEvent{Path: path, Operation: OpModify, Timestamp: now})
		}
	}
	for path := range prev.files {
		if _, ok := cur.files[path]; !ok {
			events = append(events, FileEvent{Path: path, Operation: OpDelete, Timestamp: now})
		}
	}

	for _, path := range unionKeys(prev.special, cur.special) {
		a, inPrev := prev.special[path]
		b, inCur := cur.special[path]
		if inPrev == inCur && a.Equal(b) {
			continue
		}
		op := OpConfigChange
		if filepath.Base(path) == ".gitignore" {
			op = OpGitignoreChange
		}
		events = append(events, FileEvent{Path: path, Operation: op, Timestamp: now})
	}
	return events
}

func unionKeys(a, b map[string]time.Time) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, m := range []map[string]time.Time{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
