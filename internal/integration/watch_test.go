package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/internal/watcher"
)

// Watch integration tests run the watcher, the syncer and a disk index
// together, the way 'symdex watch' does.

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func openDB(t *testing.T, path string) *store.DB {
	t.Helper()
	db, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func hasSymbol(t *testing.T, db *store.DB, name string) bool {
	t.Helper()
	syms, err := db.SearchSymbols(context.Background(), name, 10)
	require.NoError(t, err)
	for _, s := range syms {
		if s.Name == name && !s.Builtin {
			return true
		}
	}
	return false
}

// startWatch indexes root and starts watching it until the test ends.
func startWatch(t *testing.T, root string, db *store.DB, forcePolling bool) {
	t.Helper()
	cfg := config.NewConfig()
	r, err := index.New(db, cfg, index.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = r.Reindex(ctx, index.Request{Path: root})
	require.NoError(t, err)

	filter, err := index.NewFilter(cfg, root)
	require.NoError(t, err)
	w, err := watcher.New(watcher.Options{
		Filter:       filter,
		Debounce:     50 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		ForcePolling: forcePolling,
	})
	require.NoError(t, err)

	syncer := watcher.NewSyncer(r, root, filter)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Start(gctx) })
	g.Go(func() error { return syncer.Run(gctx, w.Events()) })

	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
		_ = g.Wait()
	})
	// Give fsnotify time to register the tree.
	time.Sleep(200 * time.Millisecond)
}

func TestWatch_CreateModifyDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, mode := range []struct {
		name    string
		polling bool
	}{{"fsnotify", false}, {"polling", true}} {
		t.Run(mode.name, func(t *testing.T) {
			// Given: an indexed, watched project
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc Main() {}\n")
			db := openDB(t, filepath.Join(t.TempDir(), "index.db"))
			startWatch(t, root, db, mode.polling)
			require.True(t, hasSymbol(t, db, "Main"))

			// When: a file is created
			added := filepath.Join(root, "pkg", "added.go")
			writeFile(t, added, "package pkg\n\nfunc Added() {}\n")

			// Then: its symbols appear
			require.Eventually(t, func() bool { return hasSymbol(t, db, "Added") },
				5*time.Second, 50*time.Millisecond)

			// When: it is rewritten
			writeFile(t, added, "package pkg\n\nfunc Renamed() {}\n")

			// Then: the old symbol is replaced
			require.Eventually(t, func() bool {
				return hasSymbol(t, db, "Renamed") && !hasSymbol(t, db, "Added")
			}, 5*time.Second, 50*time.Millisecond)

			// When: it is deleted
			require.NoError(t, os.Remove(added))

			// Then: the file is forgotten
			require.Eventually(t, func() bool { return !hasSymbol(t, db, "Renamed") },
				5*time.Second, 50*time.Millisecond)
			assert.True(t, hasSymbol(t, db, "Main"))
		})
	}
}

func TestWatch_GitignoreChangeRescans(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: a watched project with an ignored directory
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "gen/\n")
	writeFile(t, filepath.Join(root, "gen", "gen.go"), "package gen\n\nfunc Generated() {}\n")
	db := openDB(t, filepath.Join(t.TempDir(), "index.db"))
	startWatch(t, root, db, false)
	require.False(t, hasSymbol(t, db, "Generated"))

	// When: the ignore rule is removed
	writeFile(t, filepath.Join(root, ".gitignore"), "# nothing ignored\n")

	// Then: the rescan picks up the previously ignored file
	require.Eventually(t, func() bool { return hasSymbol(t, db, "Generated") },
		5*time.Second, 50*time.Millisecond)
}

func TestWatch_GitignoreRuleAddedDropsFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: a watched project whose generated code is indexed
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc Main() {}\n")
	writeFile(t, filepath.Join(root, "gen", "gen.go"), "package gen\n\nfunc Generated() {}\n")
	db := openDB(t, filepath.Join(t.TempDir(), "index.db"))
	startWatch(t, root, db, false)
	require.True(t, hasSymbol(t, db, "Generated"))

	// When: an ignore rule for it is added
	writeFile(t, filepath.Join(root, ".gitignore"), "gen/\n")

	// Then: the rescan removes it and keeps the rest
	require.Eventually(t, func() bool { return !hasSymbol(t, db, "Generated") },
		5*time.Second, 50*time.Millisecond)
	assert.True(t, hasSymbol(t, db, "Main"))
}

func TestSingleFile_ConcurrentProcessesSerialize(t *testing.T) {
	// Given: two handles on one database, standing in for two processes
	ctx := context.Background()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	cfg := config.NewConfig()

	const files = 8
	for i := range files {
		writeFile(t, filepath.Join(root, "f"+string(rune('a'+i))+".go"),
			"package p\n\nfunc F"+string(rune('A'+i))+"() {}\n")
	}

	writeFile(t, filepath.Join(root, "seed.go"), "package p\n")
	var indexers []*index.Reindexer
	for range 2 {
		r, err := index.New(openDB(t, dbPath), cfg, index.Options{})
		require.NoError(t, err)
		indexers = append(indexers, r)
	}
	_, err := indexers[0].Reindex(ctx, index.Request{Path: filepath.Join(root, "seed.go")})
	require.NoError(t, err)

	// When: both reindex every file at once
	var wg sync.WaitGroup
	errs := make(chan error, 2*files)
	for _, r := range indexers {
		for i := range files {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				out, err := r.Reindex(ctx, index.Request{Path: path})
				if err == nil && !out.Success {
					err = assert.AnError
				}
				errs <- err
			}(filepath.Join(root, "f"+string(rune('a'+i))+".go"))
		}
	}
	wg.Wait()
	close(errs)

	// Then: every call succeeds and each symbol is stored exactly once
	for err := range errs {
		require.NoError(t, err)
	}
	db := openDB(t, dbPath)
	for i := range files {
		syms, err := db.SearchSymbols(ctx, "F"+string(rune('A'+i)), 10)
		require.NoError(t, err)
		assert.Len(t, syms, 1)
	}
	flag, err := db.GetSetting(ctx, store.SettingHasIndexedBuiltin)
	require.NoError(t, err)
	assert.True(t, flag.Truthy())
}
