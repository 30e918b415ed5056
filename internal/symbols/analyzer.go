package symbols

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnsupportedLanguage is returned for files no registered grammar handles.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// DefaultCacheSize is the number of analyzed contents kept in memory.
const DefaultCacheSize = 1024

// Result is the outcome of analyzing one file.
type Result struct {
	Language    string
	ContentHash string // hex SHA256 of the content
	Symbols     []Symbol
}

// Analyzer detects a file's language, parses it and extracts its symbols.
// Results are cached by language and content hash, so unchanged content is
// never parsed twice. Safe for concurrent use.
type Analyzer struct {
	registry  *Registry
	parser    *Parser
	extractor *Extractor
	cache     *lru.Cache[string, []Symbol]
}

// NewAnalyzer creates an analyzer. cacheSize <= 0 uses DefaultCacheSize.
func NewAnalyzer(cacheSize int) (*Analyzer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []Symbol](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol cache: %w", err)
	}
	registry := DefaultRegistry()
	return &Analyzer{
		registry:  registry,
		parser:    NewParser(registry),
		extractor: NewExtractor(registry),
		cache:     cache,
	}, nil
}

// Registry returns the language registry in use.
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// Analyze extracts the symbols of content, detecting the language from path.
func (a *Analyzer) Analyze(ctx context.Context, path string, content []byte) (*Result, error) {
	lang, ok := a.registry.Detect(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	key := lang.Name + ":" + hash

	if syms, ok := a.cache.Get(key); ok {
		slog.Debug("symbol_cache_hit", slog.String("path", path))
		return &Result{Language: lang.Name, ContentHash: hash, Symbols: syms}, nil
	}

	tree, err := a.parser.Parse(ctx, content, lang.Name)
	if err != nil {
		return nil, err
	}
	if tree.Root != nil && tree.Root.HasError {
		slog.Debug("syntax_errors_in_file", slog.String("path", path))
	}

	syms := a.extractor.Extract(tree)
	a.cache.Add(key, syms)

	return &Result{Language: lang.Name, ContentHash: hash, Symbols: syms}, nil
}
