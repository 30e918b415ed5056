// Package builtin seeds the index with language builtin symbols and makes
// sure the seed runs exactly once per database.
package builtin

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Aman-CERP/symdex/internal/store"
)

// Indexer writes the builtin symbol seed.
type Indexer interface {
	IndexBuiltins(ctx context.Context, showOutput bool) error
}

// CatalogIndexer seeds builtins from the catalog, replacing any previous
// builtin rows per language.
type CatalogIndexer struct {
	db  *store.DB
	out io.Writer
}

// NewIndexer creates a CatalogIndexer. Progress lines go to out when
// showOutput is set; a nil out discards them.
func NewIndexer(db *store.DB, out io.Writer) *CatalogIndexer {
	if out == nil {
		out = io.Discard
	}
	return &CatalogIndexer{db: db, out: out}
}

// IndexBuiltins loads the catalog and writes every language's builtins.
func (x *CatalogIndexer) IndexBuiltins(ctx context.Context, showOutput bool) error {
	cat, err := LoadCatalog()
	if err != nil {
		return err
	}

	total := 0
	for _, lang := range cat.Languages() {
		syms := cat[lang]
		if err := x.db.ReplaceBuiltinSymbols(ctx, lang, syms); err != nil {
			return fmt.Errorf("failed to index %s builtins: %w", lang, err)
		}
		total += len(syms)
		if showOutput {
			_, _ = fmt.Fprintf(x.out, "Indexed %d %s builtin symbols\n", len(syms), lang)
		}
	}

	slog.Info("builtins_indexed",
		slog.Int("symbols", total),
		slog.Int("languages", len(cat)))
	return nil
}
