package symbols

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser turns source into a Tree. A tree-sitter parser is not safe for
// concurrent use, so Parser keeps a pool and hands one to each call.
type Parser struct {
	registry *Registry
	pool     sync.Pool
}

// NewParser creates a parser over the given registry.
func NewParser(registry *Registry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		registry: registry,
		pool: sync.Pool{
			New: func() any { return sitter.NewParser() },
		},
	}
}

// Parse parses source as the named language.
func (p *Parser) Parse(ctx context.Context, source []byte, language string) (*Tree, error) {
	lang, ok := p.registry.ByName(language)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	tsParser := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(tsParser)

	tsParser.SetLanguage(lang.grammar)
	tsTree, err := tsParser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tsTree == nil {
		return nil, fmt.Errorf("failed to parse source: nil tree")
	}

	return &Tree{
		Root:     detach(tsTree.RootNode()),
		Source:   source,
		Language: language,
	}, nil
}

func detach(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	out := &Node{
		Type:      n.Type(),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartRow:  n.StartPoint().Row,
		EndRow:    n.EndPoint().Row,
		HasError:  n.HasError(),
		Children:  make([]*Node, 0, count),
	}
	for i := 0; i < count; i++ {
		if child := n.Child(i); child != nil {
			out.Children = append(out.Children, detach(child))
		}
	}
	return out
}
