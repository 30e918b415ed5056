package index

import (
	"io"

	"github.com/Aman-CERP/symdex/internal/builtin"
	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/lock"
	"github.com/Aman-CERP/symdex/internal/scanner"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/internal/symbols"
	"github.com/Aman-CERP/symdex/internal/ui"
)

// Options configures New.
type Options struct {
	// Output receives human and JSON-lines progress. Nil discards it.
	Output io.Writer
	// Stdin is read for stream requests. Nil uses os.Stdin.
	Stdin io.Reader
	// Locker overrides the index lock.
	Locker lock.Runner
}

// New wires a Reindexer from the project configuration using the builtin
// catalog, the tree-sitter analyzer and the gitignore-aware scanner.
func New(db *store.DB, cfg *config.Config, opts Options) (*Reindexer, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	analyzer, err := symbols.NewAnalyzer(cfg.Indexing.CacheSize)
	if err != nil {
		return nil, err
	}

	files := NewFileIndexer(db, analyzer, ui.NewRenderer(ui.Config{Output: out}))
	project := NewProjectIndexer(db, files, ProjectConfig{
		Include:          cfg.Paths.Include,
		Exclude:          cfg.Paths.Exclude,
		RespectGitignore: cfg.Indexing.RespectGitignore,
		MaxFileSize:      cfg.Indexing.MaxFileSize,
		Workers:          cfg.Indexing.Workers,
		Output:           out,
	})

	return NewReindexer(Deps{
		DB:           db,
		Bootstrapper: builtin.NewBootstrapper(db, builtin.NewIndexer(db, out)),
		Files:        files,
		Project:      project,
		Locker:       opts.Locker,
		Stdin:        opts.Stdin,
	})
}

// NewFilter builds the path filter directory runs apply under root, for
// callers that need to classify paths themselves (watch mode).
func NewFilter(cfg *config.Config, root string) (*scanner.Filter, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	registry := symbols.NewRegistry()
	return scanner.NewFilter(scanner.Options{
		Root:             root,
		Include:          cfg.Paths.Include,
		Exclude:          cfg.Paths.Exclude,
		RespectGitignore: cfg.Indexing.RespectGitignore,
		MaxFileSize:      cfg.Indexing.MaxFileSize,
		Supported: func(path string) bool {
			_, ok := registry.Detect(path)
			return ok
		},
	})
}
