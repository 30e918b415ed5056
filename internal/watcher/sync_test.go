package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/scanner"
)

type fakeIndexer struct {
	reindexed []string
	rescanned []string
	forgotten []string
	outcome   index.Outcome
	err       error
}

func (f *fakeIndexer) Reindex(_ context.Context, req index.Request) (index.Outcome, error) {
	f.reindexed = append(f.reindexed, req.Path)
	if req.Rescan {
		f.rescanned = append(f.rescanned, req.Path)
	}
	if f.err != nil {
		return index.Outcome{}, f.err
	}
	return f.outcome, nil
}

func (f *fakeIndexer) Forget(_ context.Context, path string) error {
	f.forgotten = append(f.forgotten, path)
	return nil
}

func newFilter(t *testing.T, root string) *scanner.Filter {
	t.Helper()
	f, err := scanner.NewFilter(scanner.Options{
		Root:             root,
		RespectGitignore: true,
		Supported: func(p string) bool {
			return filepath.Ext(p) == ".go"
		},
	})
	require.NoError(t, err)
	return f
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSyncer_AppliesFileEvents(t *testing.T) {
	// Given: a root with one supported and one unsupported file
	root := t.TempDir()
	goFile := write(t, filepath.Join(root, "a.go"), "package a\n")
	txtFile := write(t, filepath.Join(root, "notes.txt"), "notes")
	idx := &fakeIndexer{outcome: index.Outcome{Success: true}}
	s := NewSyncer(idx, root, newFilter(t, root))

	// When: a batch with create, modify and delete arrives
	err := s.Apply(context.Background(), []FileEvent{
		{Path: goFile, Operation: OpModify},
		{Path: txtFile, Operation: OpCreate},
		{Path: filepath.Join(root, "old.go"), Operation: OpDelete},
		{Path: filepath.Join(root, "moved"), Operation: OpRename},
	})

	// Then: only the supported file is reindexed, deletions are forgotten
	require.NoError(t, err)
	assert.Equal(t, []string{goFile}, idx.reindexed)
	assert.Equal(t, []string{filepath.Join(root, "old.go"), filepath.Join(root, "moved")}, idx.forgotten)
	assert.Equal(t, Stats{Indexed: 1, Forgotten: 2}, s.Stats())
}

func TestSyncer_NewDirectoryIsReindexedAsDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(dir, 0o755))
	idx := &fakeIndexer{outcome: index.Outcome{Success: true}}
	s := NewSyncer(idx, root, newFilter(t, root))

	require.NoError(t, s.Apply(context.Background(), []FileEvent{{Path: dir, Operation: OpCreate, IsDir: true}}))

	assert.Equal(t, []string{dir}, idx.reindexed)
}

func TestSyncer_GitignoreChangeRescansRoot(t *testing.T) {
	// Given: a batch mixing a gitignore change with file changes
	root := t.TempDir()
	goFile := write(t, filepath.Join(root, "a.go"), "package a\n")
	idx := &fakeIndexer{outcome: index.Outcome{Success: true}}
	s := NewSyncer(idx, root, newFilter(t, root))

	// When: applied
	err := s.Apply(context.Background(), []FileEvent{
		{Path: filepath.Join(root, ".gitignore"), Operation: OpGitignoreChange},
		{Path: goFile, Operation: OpModify},
	})

	// Then: a single directory reindex of the root replaces per-file work
	require.NoError(t, err)
	assert.Equal(t, []string{root}, idx.reindexed)
	assert.Equal(t, []string{root}, idx.rescanned)
	assert.Equal(t, 1, s.Stats().Rescans)
}

func TestSyncer_ConfigChangeRescansRoot(t *testing.T) {
	root := t.TempDir()
	idx := &fakeIndexer{outcome: index.Outcome{Success: true}}
	s := NewSyncer(idx, root, nil)

	require.NoError(t, s.Apply(context.Background(), []FileEvent{
		{Path: filepath.Join(root, ".symdex.yaml"), Operation: OpConfigChange},
	}))

	assert.Equal(t, []string{root}, idx.reindexed)
}

func TestSyncer_FailedOutcomeIsCounted(t *testing.T) {
	root := t.TempDir()
	goFile := write(t, filepath.Join(root, "a.go"), "package a\n")
	idx := &fakeIndexer{outcome: index.Outcome{Success: false}}
	s := NewSyncer(idx, root, newFilter(t, root))

	require.NoError(t, s.Apply(context.Background(), []FileEvent{{Path: goFile, Operation: OpModify}}))

	assert.Equal(t, 1, s.Stats().Failed)
}

func TestSyncer_VanishedPathIsTolerated(t *testing.T) {
	root := t.TempDir()
	goFile := write(t, filepath.Join(root, "a.go"), "package a\n")
	idx := &fakeIndexer{err: symerrors.InvalidPathError(goFile)}
	s := NewSyncer(idx, root, newFilter(t, root))

	assert.NoError(t, s.Apply(context.Background(), []FileEvent{{Path: goFile, Operation: OpModify}}))
}

func TestSyncer_FatalErrorStopsRun(t *testing.T) {
	// Given: an indexer failing with a store error
	root := t.TempDir()
	goFile := write(t, filepath.Join(root, "a.go"), "package a\n")
	fatal := errors.New("database disk image is malformed")
	idx := &fakeIndexer{err: fatal}
	s := NewSyncer(idx, root, newFilter(t, root))

	events := make(chan []FileEvent, 2)
	events <- []FileEvent{{Path: goFile, Operation: OpModify}}
	events <- []FileEvent{{Path: goFile, Operation: OpModify}}
	close(events)

	// When: running
	err := s.Run(context.Background(), events)

	// Then: the error ends the run after the first batch
	assert.Same(t, fatal, err)
	assert.Len(t, idx.reindexed, 1)
}

func TestSyncer_RunEndsWhenEventsClose(t *testing.T) {
	events := make(chan []FileEvent)
	close(events)
	s := NewSyncer(&fakeIndexer{}, t.TempDir(), nil)

	assert.NoError(t, s.Run(context.Background(), events))
}
