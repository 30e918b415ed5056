package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresFilter(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestWatcher_Classify(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{Filter: newFilter(t, root), ForcePolling: true})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	tests := []struct {
		name   string
		rel    string
		op     Operation
		isDir  bool
		keep   bool
		wantOp Operation
	}{
		{"supported file", "a.go", OpModify, false, true, OpModify},
		{"unsupported file", "a.txt", OpModify, false, false, 0},
		{"excluded dir child", "node_modules/x.go", OpCreate, false, false, 0},
		{"new directory", "pkg", OpCreate, true, true, OpCreate},
		{"deleted directory", "pkg", OpDelete, false, true, OpDelete},
		{"gitignore", "sub/.gitignore", OpModify, false, true, OpGitignoreChange},
		{"config", ".symdex.yaml", OpCreate, false, true, OpConfigChange},
		{"state dir", ".symdex/index.db", OpModify, false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := w.classify(filepath.Join(root, filepath.FromSlash(tt.rel)), tt.op, tt.isDir)
			assert.Equal(t, tt.keep, ok)
			if tt.keep {
				assert.Equal(t, tt.wantOp, ev.Operation)
			}
		})
	}

	_, ok := w.classify(filepath.Join(filepath.Dir(root), "outside.go"), OpModify, false)
	assert.False(t, ok)
}

func waitForEvent(t *testing.T, w *Watcher, path string, op Operation) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events closed")
			for _, ev := range batch {
				if ev.Path == path && ev.Operation == op {
					return
				}
			}
		case <-deadline:
			t.Fatalf("no %s event for %s", op, path)
		}
	}
}

func TestWatcher_FsnotifyReportsChanges(t *testing.T) {
	// Given: a running fsnotify watcher
	root := t.TempDir()
	w, err := New(Options{Filter: newFilter(t, root), Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	if w.Mode() != "fsnotify" {
		t.Skip("fsnotify unavailable")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// When: a file is created, then removed
	path := write(t, filepath.Join(root, "new.go"), "package n\n")

	// Then: matching events arrive
	waitForEvent(t, w, path, OpCreate)
	require.NoError(t, os.Remove(path))
	waitForEvent(t, w, path, OpDelete)
}

func TestWatcher_PollingReportsChanges(t *testing.T) {
	// Given: a polling watcher over a tree with one file
	root := t.TempDir()
	existing := write(t, filepath.Join(root, "a.go"), "package a\n")
	w, err := New(Options{
		Filter:       newFilter(t, root),
		ForcePolling: true,
		PollInterval: 20 * time.Millisecond,
		Debounce:     10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "polling", w.Mode())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	time.Sleep(60 * time.Millisecond)

	// When: a file is added and the existing one removed
	added := write(t, filepath.Join(root, "b.go"), "package b\n")
	waitForEvent(t, w, added, OpCreate)
	require.NoError(t, os.Remove(existing))

	// Then: the removal is seen too
	waitForEvent(t, w, existing, OpDelete)
}

func TestDiffSnapshots_SpecialFiles(t *testing.T) {
	prev := snapshot{special: map[string]time.Time{}}
	cur := snapshot{special: map[string]time.Time{
		"/p/.gitignore":   time.Unix(1, 0),
		"/p/.symdex.yaml": time.Unix(1, 0),
	}}

	events := diffSnapshots(prev, cur)

	ops := map[string]Operation{}
	for _, ev := range events {
		ops[ev.Path] = ev.Operation
	}
	assert.Equal(t, OpGitignoreChange, ops["/p/.gitignore"])
	assert.Equal(t, OpConfigChange, ops["/p/.symdex.yaml"])
	assert.Empty(t, diffSnapshots(cur, cur))
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	w, err := New(Options{Filter: newFilter(t, t.TempDir()), ForcePolling: true})
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}
