package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/internal/ui"
)

func newProjectIndexer(t *testing.T, db *store.DB, out *bytes.Buffer) *ProjectIndexer {
	t.Helper()
	cfg := ProjectConfig{RespectGitignore: true, Workers: 2}
	if out != nil {
		cfg.Output = out
	}
	return NewProjectIndexer(db, newFileIndexer(t, db, nil), cfg)
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc Main() {}\n")
	writeFile(t, filepath.Join(root, "lib", "util.py"), "def util_helper():\n    return 1\n")
	writeFile(t, filepath.Join(root, "web", "app.ts"), "export function renderApp(): void {}\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "function depThing() {}\n")
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n")
	writeFile(t, filepath.Join(root, "generated", "gen.go"), "package gen\nfunc Generated() {}\n")
	return root
}

func TestProjectIndexer_IndexesSupportedFiles(t *testing.T) {
	// Given: a project with supported, unsupported and ignored files
	ctx := context.Background()
	db := openMemory(t)
	root := sampleProject(t)
	p := newProjectIndexer(t, db, nil)

	// When: indexing the project
	require.NoError(t, p.IndexProject(ctx, root, ProjectOptions{}))

	// Then: only the three supported, non-ignored files are tracked
	known, err := db.FileModifiedMap(ctx)
	require.NoError(t, err)
	assert.Len(t, known, 3)
	assert.Contains(t, known, filepath.Join(root, "main.go"))
	assert.Contains(t, known, filepath.Join(root, "lib", "util.py"))
	assert.Contains(t, known, filepath.Join(root, "web", "app.ts"))
	assert.Equal(t, []string{"Main"}, symbolNames(t, db, "Main"))
	assert.Equal(t, []string{"renderApp"}, symbolNames(t, db, "renderApp"))
	assert.Empty(t, symbolNames(t, db, "depThing"))
	assert.Empty(t, symbolNames(t, db, "Generated"))
}

func TestProjectIndexer_IncrementalRun(t *testing.T) {
	// Given: an indexed project
	ctx := context.Background()
	db := openMemory(t)
	root := sampleProject(t)
	p := newProjectIndexer(t, db, nil)
	require.NoError(t, p.IndexProject(ctx, root, ProjectOptions{}))

	// When: one file is removed, one added, one modified
	require.NoError(t, os.Remove(filepath.Join(root, "lib", "util.py")))
	writeFile(t, filepath.Join(root, "web", "extra.js"), "const extraValue = 1;\n")
	mainPath := filepath.Join(root, "main.go")
	writeFile(t, mainPath, "package main\n\nfunc Renamed() {}\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(mainPath, future, future))

	var out bytes.Buffer
	p = newProjectIndexer(t, db, &out)
	require.NoError(t, p.IndexProject(ctx, root, ProjectOptions{StreamProgress: true}))

	// Then: the index matches the tree
	known, err := db.FileModifiedMap(ctx)
	require.NoError(t, err)
	assert.NotContains(t, known, filepath.Join(root, "lib", "util.py"))
	assert.Contains(t, known, filepath.Join(root, "web", "extra.js"))
	assert.Empty(t, symbolNames(t, db, "util_helper"))
	assert.Empty(t, symbolNames(t, db, "Main"))
	assert.Equal(t, []string{"Renamed"}, symbolNames(t, db, "Renamed"))

	// And: the JSON-lines summary counts two writes and one deletion
	complete := lastEvent(t, out.Bytes())
	assert.Equal(t, "complete", complete.Type)
	assert.Equal(t, 2, complete.Files)
	assert.Equal(t, 1, complete.Deleted)
}

func TestProjectIndexer_UsesSuppliedKnownMap(t *testing.T) {
	// Given: a supplied map that already has main.go at its current mtime
	ctx := context.Background()
	db := openMemory(t)
	root := t.TempDir()
	mainPath := writeFile(t, filepath.Join(root, "main.go"), "package main\nfunc Main() {}\n")
	info, err := os.Stat(mainPath)
	require.NoError(t, err)
	calls := 0
	known := func() (map[string]time.Time, error) {
		calls++
		return map[string]time.Time{mainPath: info.ModTime()}, nil
	}
	p := newProjectIndexer(t, db, nil)

	// When: indexing with that map
	require.NoError(t, p.IndexProject(ctx, root, ProjectOptions{Known: known}))

	// Then: main.go is considered current and not written
	assert.Equal(t, 1, calls)
	f, err := db.GetFile(ctx, mainPath)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestProjectIndexer_StreamProgressEvents(t *testing.T) {
	// Given: a project and a buffer for JSON lines
	var out bytes.Buffer
	db := openMemory(t)
	root := sampleProject(t)
	p := newProjectIndexer(t, db, &out)

	// When: indexing with stream progress
	require.NoError(t, p.IndexProject(context.Background(), root, ProjectOptions{StreamProgress: true}))

	// Then: every line is JSON, starting with a scan and ending with complete
	events := decodeEvents(t, out.Bytes())
	require.NotEmpty(t, events)
	assert.Equal(t, "progress", events[0].Type)
	assert.Equal(t, ui.StageScanning.String(), events[0].Stage)
	indexing := 0
	for _, ev := range events {
		if ev.Stage == ui.StageIndexing.String() {
			indexing++
			assert.Equal(t, 3, ev.Total)
		}
	}
	assert.Equal(t, 3, indexing)
	last := events[len(events)-1]
	assert.Equal(t, "complete", last.Type)
	assert.Equal(t, 3, last.Files)
	assert.Positive(t, last.Symbols)
}

func TestProjectIndexer_QuietWithoutOptions(t *testing.T) {
	var out bytes.Buffer
	db := openMemory(t)
	p := newProjectIndexer(t, db, &out)

	require.NoError(t, p.IndexProject(context.Background(), sampleProject(t), ProjectOptions{}))

	assert.Empty(t, out.String())
}

func TestProjectIndexer_StoreErrorAborts(t *testing.T) {
	// Given: a closed database
	db, err := store.OpenMemory()
	require.NoError(t, err)
	p := newProjectIndexer(t, db, nil)
	require.NoError(t, db.Close())

	// When: indexing
	err = p.IndexProject(context.Background(), sampleProject(t), ProjectOptions{})

	// Then: the run fails
	require.Error(t, err)
}

func TestProjectIndexer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newProjectIndexer(t, openMemory(t), nil)

	err := p.IndexProject(ctx, sampleProject(t), ProjectOptions{})

	assert.ErrorIs(t, err, context.Canceled)
}

func decodeEvents(t *testing.T, data []byte) []ui.StreamEvent {
	t.Helper()
	var events []ui.StreamEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var ev ui.StreamEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), sc.Text())
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func lastEvent(t *testing.T, data []byte) ui.StreamEvent {
	t.Helper()
	events := decodeEvents(t, data)
	require.NotEmpty(t, events)
	return events[len(events)-1]
}
