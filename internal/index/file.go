package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/internal/symbols"
	"github.com/Aman-CERP/symdex/internal/ui"
)

// streamModTime is recorded for content that did not come from disk, so the
// next directory scan sees the file as modified and reindexes it from disk.
var streamModTime = time.Unix(0, 0)

// FileIndexer indexes a single file into the store.
type FileIndexer struct {
	db       *store.DB
	analyzer *symbols.Analyzer
	renderer ui.Renderer
}

// NewFileIndexer creates a FileIndexer. A nil renderer discards output.
func NewFileIndexer(db *store.DB, analyzer *symbols.Analyzer, renderer ui.Renderer) *FileIndexer {
	if renderer == nil {
		renderer = ui.Discard
	}
	return &FileIndexer{db: db, analyzer: analyzer, renderer: renderer}
}

// Supports reports whether path has a registered language.
func (x *FileIndexer) Supports(path string) bool {
	_, ok := x.analyzer.Registry().Detect(path)
	return ok
}

// IndexFile indexes path. When content is nil the file is read from disk;
// otherwise content is indexed under path and path need not exist.
//
// Problems with the file itself (unreadable, unsupported language, parse
// failure) return an IndexingFailed error. Store errors are returned as is.
func (x *FileIndexer) IndexFile(ctx context.Context, path string, content []byte, showOutput bool) error {
	file, syms, err := x.prepare(ctx, path, content)
	if err != nil {
		return err
	}
	if err := x.db.ReplaceFile(ctx, file, syms); err != nil {
		return err
	}

	slog.Debug("file_indexed",
		slog.String("path", file.Path),
		slog.String("language", file.Language),
		slog.Int("symbols", len(syms)))

	if showOutput {
		x.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageIndexing,
			File:    file.Path,
			Message: fmt.Sprintf("%s (%d symbols)", file.Path, len(syms)),
		})
	}
	return nil
}

// prepare reads and analyzes a file without touching the store.
func (x *FileIndexer) prepare(ctx context.Context, path string, content []byte) (store.File, []store.Symbol, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return store.File{}, nil, symerrors.IndexingFailedError(path, err)
	}

	modAt := streamModTime
	if content == nil {
		info, err := os.Stat(abs)
		if err != nil {
			return store.File{}, nil, symerrors.IndexingFailedError(abs, err)
		}
		if !info.Mode().IsRegular() {
			return store.File{}, nil, symerrors.IndexingFailedError(abs, fmt.Errorf("not a regular file"))
		}
		content, err = os.ReadFile(abs)
		if err != nil {
			return store.File{}, nil, symerrors.IndexingFailedError(abs, err)
		}
		modAt = info.ModTime()
	}

	res, err := x.analyzer.Analyze(ctx, abs, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return store.File{}, nil, ctxErr
		}
		return store.File{}, nil, symerrors.IndexingFailedError(abs, err)
	}

	file := store.File{
		Path:        abs,
		Language:    res.Language,
		ModifiedAt:  modAt,
		IndexedAt:   time.Now(),
		ContentHash: res.ContentHash,
	}
	return file, toStoreSymbols(res, abs), nil
}

func toStoreSymbols(res *symbols.Result, path string) []store.Symbol {
	out := make([]store.Symbol, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		out = append(out, store.Symbol{
			Name:       s.Name,
			Kind:       store.SymbolKind(s.Kind),
			Language:   res.Language,
			FilePath:   path,
			StartLine:  s.StartLine,
			EndLine:    s.EndLine,
			Signature:  s.Signature,
			DocComment: s.DocComment,
		})
	}
	return out
}
