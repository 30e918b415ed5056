package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/scanner"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/internal/ui"
)

// ProjectOptions controls one directory indexing run.
type ProjectOptions struct {
	// StreamProgress emits JSON-lines progress events.
	StreamProgress bool
	// ShowOutput prints per-file progress lines.
	ShowOutput bool
	// Known supplies the File Modified Map. Nil reads it from the store.
	Known func() (map[string]time.Time, error)
}

// ProjectConfig configures a ProjectIndexer.
type ProjectConfig struct {
	Include          []string
	Exclude          []string
	RespectGitignore bool
	MaxFileSize      int64
	// Workers bounds parallel parsing. <= 0 uses runtime.NumCPU().
	Workers int
	// Output receives progress. Nil discards it.
	Output io.Writer
}

// ProjectIndexer brings every supported file under a directory up to date.
type ProjectIndexer struct {
	db    *store.DB
	files *FileIndexer
	cfg   ProjectConfig
}

// NewProjectIndexer creates a ProjectIndexer that analyzes files with files.
func NewProjectIndexer(db *store.DB, files *FileIndexer, cfg ProjectConfig) *ProjectIndexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	return &ProjectIndexer{db: db, files: files, cfg: cfg}
}

type parsed struct {
	path string
	file store.File
	syms []store.Symbol
	err  error // IndexingFailed only
}

// IndexProject scans root, removes files that disappeared, and reindexes
// new or modified ones. Files are parsed in parallel and written one at a
// time. A file that cannot be indexed is reported as a warning; store
// errors abort the run.
func (p *ProjectIndexer) IndexProject(ctx context.Context, root string, opts ProjectOptions) error {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	r := p.renderer(opts)
	r.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Message: absRoot})

	sc, err := scanner.New(scanner.Options{
		Root:             absRoot,
		Include:          p.cfg.Include,
		Exclude:          p.cfg.Exclude,
		RespectGitignore: p.cfg.RespectGitignore,
		MaxFileSize:      p.cfg.MaxFileSize,
		Supported:        p.files.Supports,
	})
	if err != nil {
		return err
	}
	found, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", absRoot, err)
	}

	known, err := p.known(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to load indexed files: %w", err)
	}
	changes := scanner.Diff(absRoot, found, known)

	for _, path := range changes.Deleted {
		if err := p.db.DeleteFile(ctx, path); err != nil {
			return err
		}
		slog.Debug("file_removed_from_index", slog.String("path", path))
	}

	summary, err := p.indexStale(ctx, changes.Stale(), r)
	if err != nil {
		return err
	}
	summary.Deleted = len(changes.Deleted)
	summary.Duration = time.Since(start)

	r.Complete(summary)
	slog.Info("project_indexed",
		slog.String("root", absRoot),
		slog.Int("scanned", len(found)),
		slog.Int("indexed", summary.Files),
		slog.Int("symbols", summary.Symbols),
		slog.Int("deleted", summary.Deleted),
		slog.Int("warnings", summary.Warnings),
		slog.Duration("duration", summary.Duration))
	return nil
}

func (p *ProjectIndexer) known(ctx context.Context, opts ProjectOptions) (map[string]time.Time, error) {
	if opts.Known != nil {
		return opts.Known()
	}
	return p.db.FileModifiedMap(ctx)
}

func (p *ProjectIndexer) renderer(opts ProjectOptions) ui.Renderer {
	switch {
	case opts.StreamProgress:
		return ui.NewStreamRenderer(p.cfg.Output)
	case opts.ShowOutput:
		return ui.NewRenderer(ui.Config{Output: p.cfg.Output})
	default:
		return ui.Discard
	}
}

// indexStale parses stale files on a bounded worker pool and writes each
// result as it arrives.
func (p *ProjectIndexer) indexStale(ctx context.Context, stale []scanner.FileInfo, r ui.Renderer) (ui.Summary, error) {
	var summary ui.Summary
	if len(stale) == 0 {
		return summary, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	results := make(chan parsed, p.cfg.Workers)
	done := make(chan error, 1)

	go func() {
		for _, f := range stale {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				res := parsed{path: f.AbsPath}
				res.file, res.syms, res.err = p.files.prepare(gctx, f.AbsPath, nil)
				if res.err != nil && !symerrors.IsIndexingFailed(res.err) {
					return res.err
				}
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		done <- g.Wait()
		close(results)
	}()

	var writeErr error
	current := 0
	for res := range results {
		if writeErr != nil {
			continue
		}
		current++
		if res.err != nil {
			summary.Warnings++
			r.AddError(ui.ErrorEvent{File: res.path, Err: res.err, IsWarn: true})
			attrs := append([]any{slog.String("path", res.path)}, symerrors.LogAttrs(res.err)...)
			slog.Warn("file_index_skipped", attrs...)
			continue
		}
		if err := p.db.ReplaceFile(ctx, res.file, res.syms); err != nil {
			writeErr = err
			cancel()
			continue
		}
		summary.Files++
		summary.Symbols += len(res.syms)
		r.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageIndexing,
			Current: current,
			Total:   len(stale),
			File:    res.path,
		})
	}

	waitErr := <-done
	if writeErr != nil {
		return summary, writeErr
	}
	if waitErr != nil {
		return summary, waitErr
	}
	return summary, ctx.Err()
}
