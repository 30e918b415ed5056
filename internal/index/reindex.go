package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/lock"
	"github.com/Aman-CERP/symdex/internal/store"
)

// Request describes one reindex call.
type Request struct {
	// Path is a directory, a file, or the identity of streamed content.
	Path string
	// UseStream reads the file content from the configured stream.
	UseStream bool
	// Verbose prints per-file output.
	Verbose bool
	// StreamProgress emits JSON-lines progress for directory runs.
	StreamProgress bool
	// Stream replaces the configured stream for this request.
	Stream io.Reader
	// Rescan reloads the File Modified Map before a directory run, so files
	// removed or newly ignored since the last load are dropped.
	Rescan bool
}

// Outcome is the result of a reindex call.
type Outcome struct {
	Success bool `json:"success"`
}

// SingleFileIndexer indexes one file, from disk (content == nil) or from
// the given content.
type SingleFileIndexer interface {
	IndexFile(ctx context.Context, path string, content []byte, showOutput bool) error
}

// DirectoryIndexer indexes every supported file under a directory.
type DirectoryIndexer interface {
	IndexProject(ctx context.Context, root string, opts ProjectOptions) error
}

// Bootstrapper makes sure the builtin seed exists.
type Bootstrapper interface {
	EnsureIndexed(ctx context.Context, showOutput bool) error
}

// Deps contains the injected dependencies for Reindexer.
type Deps struct {
	// DB is the index database (required).
	DB *store.DB
	// Bootstrapper seeds builtins before any indexing (required).
	Bootstrapper Bootstrapper
	// Files handles the single-file route (required).
	Files SingleFileIndexer
	// Project handles the directory route (required).
	Project DirectoryIndexer
	// Locker serializes single-file writes. Defaults to lock.Exclusive{}.
	Locker lock.Runner
	// Stdin is read for stream requests. Defaults to os.Stdin.
	Stdin io.Reader
}

// Reindexer coordinates builtin bootstrap, routing, and locking for
// reindex requests against one database.
//
// The File Modified Map is read from the database on the first directory
// run and reused by later ones unless the request asks for a rescan. A
// failed load is not cached.
type Reindexer struct {
	db        *store.DB
	bootstrap Bootstrapper
	files     SingleFileIndexer
	project   DirectoryIndexer
	locker    lock.Runner
	stdin     io.Reader

	mu    sync.Mutex
	known map[string]time.Time
}

// NewReindexer creates a Reindexer.
func NewReindexer(deps Deps) (*Reindexer, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Bootstrapper == nil {
		return nil, fmt.Errorf("bootstrapper is required")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file indexer is required")
	}
	if deps.Project == nil {
		return nil, fmt.Errorf("project indexer is required")
	}

	locker := deps.Locker
	if locker == nil {
		locker = lock.Exclusive{}
	}
	stdin := deps.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	return &Reindexer{
		db:        deps.DB,
		bootstrap: deps.Bootstrapper,
		files:     deps.Files,
		project:   deps.Project,
		locker:    locker,
		stdin:     stdin,
	}, nil
}

// Reindex brings the index up to date for req.Path.
//
// The request is validated and routed before anything runs, so invalid
// input leaves the database untouched. The builtin seed then runs if it
// never completed. Directories are indexed without the index lock; single
// files are indexed under it. A file that cannot be indexed yields
// Outcome{Success: false} and a nil error; every other failure is returned.
func (r *Reindexer) Reindex(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Path) == "" {
		return Outcome{}, symerrors.InvalidInputError("path is required")
	}

	kind, err := Route(req.Path, req.UseStream)
	if err != nil {
		return Outcome{}, err
	}

	slog.Debug("reindex_started",
		slog.String("path", req.Path),
		slog.String("route", kind.String()),
		slog.Bool("stream", req.UseStream))

	if err := r.bootstrap.EnsureIndexed(ctx, req.Verbose); err != nil {
		return Outcome{}, err
	}

	if kind == RouteDirectory {
		err := r.project.IndexProject(ctx, req.Path, ProjectOptions{
			StreamProgress: req.StreamProgress,
			ShowOutput:     req.Verbose,
			Known: func() (map[string]time.Time, error) {
				return r.fileModifiedMap(ctx, req.Rescan)
			},
		})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Success: true}, nil
	}

	return r.reindexFile(ctx, req)
}

func (r *Reindexer) fileModifiedMap(ctx context.Context, reload bool) (map[string]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.known != nil && !reload {
		return r.known, nil
	}
	known, err := r.db.FileModifiedMap(ctx)
	if err != nil {
		return nil, err
	}
	r.known = known
	return known, nil
}

func (r *Reindexer) reindexFile(ctx context.Context, req Request) (Outcome, error) {
	var content []byte
	if req.UseStream {
		src := r.stdin
		if req.Stream != nil {
			src = req.Stream
		}
		data, err := io.ReadAll(src)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to read stream: %w", err)
		}
		if data == nil {
			data = []byte{}
		}
		content = data
	}

	err := r.locker.Run(r.db, func() error {
		return r.files.IndexFile(ctx, req.Path, content, req.Verbose)
	})
	if symerrors.IsIndexingFailed(err) {
		attrs := append([]any{slog.String("path", req.Path)}, symerrors.LogAttrs(err)...)
		slog.Warn("file_index_failed", attrs...)
		return Outcome{Success: false}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Success: true}, nil
}

// Forget removes a deleted file, or every file below a deleted directory,
// from the index under the index lock.
func (r *Reindexer) Forget(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return symerrors.InvalidInputError("path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return symerrors.InvalidPathError(path)
	}
	return r.locker.Run(r.db, func() error {
		n, err := r.db.DeleteTree(ctx, abs)
		if err != nil {
			return err
		}
		slog.Debug("index_forgot", slog.String("path", abs), slog.Int64("files", n))
		return nil
	})
}
