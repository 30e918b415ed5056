package symbols

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language describes how to find declarations in one grammar.
type Language struct {
	Name       string
	Extensions []string

	// Kinds maps declaration node types to the symbol kind they produce.
	Kinds map[string]Kind

	// BraceBodies is set for grammars whose bodies open with "{".
	// Signatures are cut at the first brace.
	BraceBodies bool

	grammar *sitter.Language
}

// Registry maps file extensions and names to languages. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	byName map[string]*Language
	byExt  map[string]*Language
}

// NewRegistry returns a registry with every supported language.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Language),
		byExt:  make(map[string]*Language),
	}

	r.add(&Language{
		Name:        "go",
		Extensions:  []string{".go"},
		BraceBodies: true,
		grammar:     golang.GetLanguage(),
		Kinds: map[string]Kind{
			"function_declaration": KindFunction,
			"method_declaration":   KindMethod,
			"type_declaration":     KindType,
			"const_declaration":    KindConstant,
			"var_declaration":      KindVariable,
		},
	})

	ts := map[string]Kind{
		"function_declaration":   KindFunction,
		"method_definition":      KindMethod,
		"class_declaration":      KindClass,
		"interface_declaration":  KindInterface,
		"type_alias_declaration": KindType,
		"lexical_declaration":    KindConstant,
		"variable_declaration":   KindVariable,
	}
	r.add(&Language{Name: "typescript", Extensions: []string{".ts", ".mts", ".cts"}, BraceBodies: true, grammar: typescript.GetLanguage(), Kinds: ts})
	r.add(&Language{Name: "tsx", Extensions: []string{".tsx"}, BraceBodies: true, grammar: tsx.GetLanguage(), Kinds: ts})

	js := map[string]Kind{
		"function_declaration": KindFunction,
		"method_definition":    KindMethod,
		"class_declaration":    KindClass,
		"lexical_declaration":  KindConstant,
		"variable_declaration": KindVariable,
	}
	r.add(&Language{Name: "javascript", Extensions: []string{".js", ".mjs", ".cjs"}, BraceBodies: true, grammar: javascript.GetLanguage(), Kinds: js})
	r.add(&Language{Name: "jsx", Extensions: []string{".jsx"}, BraceBodies: true, grammar: javascript.GetLanguage(), Kinds: js})

	r.add(&Language{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		grammar:    python.GetLanguage(),
		Kinds: map[string]Kind{
			"function_definition": KindFunction,
			"class_definition":    KindClass,
			"assignment":          KindVariable,
		},
	})

	r.add(&Language{
		Name:        "php",
		Extensions:  []string{".php", ".phtml"},
		BraceBodies: true,
		grammar:     php.GetLanguage(),
		Kinds: map[string]Kind{
			"function_definition":   KindFunction,
			"method_declaration":    KindMethod,
			"class_declaration":     KindClass,
			"trait_declaration":     KindClass,
			"enum_declaration":      KindType,
			"interface_declaration": KindInterface,
			"const_declaration":     KindConstant,
		},
	})

	return r
}

func (r *Registry) add(lang *Language) {
	r.byName[lang.Name] = lang
	for _, ext := range lang.Extensions {
		r.byExt[ext] = lang
	}
}

// ByName returns the language with the given name.
func (r *Registry) ByName(name string) (*Language, bool) {
	lang, ok := r.byName[name]
	return lang, ok
}

// ByExtension returns the language for a file extension, with or without
// the leading dot.
func (r *Registry) ByExtension(ext string) (*Language, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	lang, ok := r.byExt[ext]
	return lang, ok
}

// Detect returns the language of the file at path.
func (r *Registry) Detect(path string) (*Language, bool) {
	return r.ByExtension(filepath.Ext(path))
}

// Extensions returns every supported extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the shared registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
