package builtin

import (
	_ "embed"
	"fmt"
	"go/types"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/symdex/internal/store"
)

//go:embed builtins.yaml
var catalogYAML []byte

type entry struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Signature string `yaml:"signature"`
}

// Catalog maps a language name to its builtin symbols.
type Catalog map[string][]store.Symbol

// LoadCatalog returns every builtin symbol: the Go universe scope plus the
// embedded catalog for the other languages.
func LoadCatalog() (Catalog, error) {
	cat, err := parseCatalog(catalogYAML)
	if err != nil {
		return nil, err
	}
	cat["go"] = goUniverse()
	return cat, nil
}

// Languages returns the catalog's languages, sorted.
func (c Catalog) Languages() []string {
	langs := make([]string, 0, len(c))
	for lang := range c {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func parseCatalog(data []byte) (Catalog, error) {
	var raw map[string][]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse builtin catalog: %w", err)
	}

	cat := make(Catalog, len(raw)+1)
	for lang, entries := range raw {
		syms := make([]store.Symbol, 0, len(entries))
		for _, e := range entries {
			kind, err := parseKind(e.Kind)
			if err != nil {
				return nil, fmt.Errorf("builtin %s/%s: %w", lang, e.Name, err)
			}
			syms = append(syms, store.Symbol{
				Name:      e.Name,
				Kind:      kind,
				Language:  lang,
				Signature: e.Signature,
				Builtin:   true,
			})
		}
		cat[lang] = syms
	}
	return cat, nil
}

func parseKind(s string) (store.SymbolKind, error) {
	switch k := store.SymbolKind(s); k {
	case store.SymbolKindFunction, store.SymbolKindClass, store.SymbolKindInterface,
		store.SymbolKindType, store.SymbolKindVariable, store.SymbolKindConstant,
		store.SymbolKindMethod:
		return k, nil
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

// goUniverse lists the predeclared identifiers of Go.
func goUniverse() []store.Symbol {
	names := types.Universe.Names()
	syms := make([]store.Symbol, 0, len(names))
	for _, name := range names {
		obj := types.Universe.Lookup(name)
		var kind store.SymbolKind
		switch o := obj.(type) {
		case *types.TypeName:
			kind = store.SymbolKindType
			if types.IsInterface(o.Type()) {
				kind = store.SymbolKindInterface
			}
		case *types.Builtin:
			kind = store.SymbolKindFunction
		case *types.Const, *types.Nil:
			kind = store.SymbolKindConstant
		default:
			continue
		}
		syms = append(syms, store.Symbol{
			Name:       name,
			Kind:       kind,
			Language:   "go",
			Signature:  types.ObjectString(obj, nil),
			DocComment: "predeclared identifier",
			Builtin:    true,
		})
	}
	return syms
}
