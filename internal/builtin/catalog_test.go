package builtin

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/symdex/internal/store"
)

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "javascript", "php", "python"}, cat.Languages())
	for lang, syms := range cat {
		assert.NotEmpty(t, syms, lang)
		for _, s := range syms {
			assert.True(t, s.Builtin)
			assert.Equal(t, lang, s.Language)
		}
	}
}

func TestGoUniverse(t *testing.T) {
	syms := goUniverse()

	byName := make(map[string]store.Symbol, len(syms))
	for _, s := range syms {
		byName[s.Name] = s
	}

	assert.Equal(t, store.SymbolKindFunction, byName["len"].Kind)
	assert.Equal(t, store.SymbolKindType, byName["int"].Kind)
	assert.Equal(t, store.SymbolKindInterface, byName["error"].Kind)
	assert.Equal(t, store.SymbolKindConstant, byName["true"].Kind)
	assert.Equal(t, store.SymbolKindConstant, byName["nil"].Kind)
	assert.Equal(t, store.SymbolKindConstant, byName["iota"].Kind)
}

func TestParseCatalog_UnknownKind(t *testing.T) {
	_, err := parseCatalog([]byte("php:\n  - {name: foo, kind: macro}\n"))
	assert.Error(t, err)
}

func TestIndexBuiltins_IsRepeatable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	var out bytes.Buffer
	x := NewIndexer(db, &out)

	require.NoError(t, x.IndexBuiltins(ctx, true))
	first, err := db.Stats(ctx)
	require.NoError(t, err)

	require.NoError(t, x.IndexBuiltins(ctx, false))
	second, err := db.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.BuiltinSymbols, second.BuiltinSymbols)
	assert.Contains(t, out.String(), "php builtin symbols")
}
