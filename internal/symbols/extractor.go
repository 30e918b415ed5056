package symbols

import (
	"strings"
	"unicode"
)

type scope int

const (
	scopeFile scope = iota
	scopeClass
	scopeFunc
)

// Nodes that open a function body without declaring a named symbol.
var anonymousBodies = map[string]bool{
	"arrow_function":                         true,
	"function":                               true,
	"function_expression":                    true,
	"func_literal":                           true,
	"lambda":                                 true,
	"anonymous_function_creation_expression": true,
}

// Nodes that wrap a declaration and carry its leading comment.
var declarationWrappers = map[string]bool{
	"export_statement":     true,
	"decorated_definition": true,
}

// Parents under which a variable or constant counts as top level.
var topLevelParents = map[string]bool{
	"source_file":          true,
	"program":              true,
	"module":               true,
	"export_statement":     true,
	"expression_statement": true,
	"declaration_list":     true,
}

// Extractor collects symbols from a parsed tree.
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor over the given registry.
func NewExtractor(registry *Registry) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Extractor{registry: registry}
}

// Extract returns the symbols declared in tree, in source order.
// It returns an empty, non-nil slice when nothing is found.
func (e *Extractor) Extract(tree *Tree) []Symbol {
	if tree == nil || tree.Root == nil {
		return []Symbol{}
	}
	lang, ok := e.registry.ByName(tree.Language)
	if !ok {
		return []Symbol{}
	}

	w := &walker{lang: lang, src: tree.Source, out: []Symbol{}}
	w.visit(tree.Root, scopeFile, "")
	return w.out
}

type walker struct {
	lang *Language
	src  []byte
	out  []Symbol
}

func (w *walker) visit(parent *Node, sc scope, inherited string) {
	for i, n := range parent.Children {
		doc := leadingComment(parent.Children, i, w.src)
		if doc == "" && declarationWrappers[parent.Type] {
			doc = inherited
		}

		inner := sc
		if kind, ok := w.lang.Kinds[n.Type]; ok {
			kind = w.declare(parent, n, kind, sc, doc)
			switch kind {
			case KindFunction, KindMethod:
				inner = scopeFunc
			case KindClass, KindInterface:
				inner = scopeClass
			}
		}
		if anonymousBodies[n.Type] {
			inner = scopeFunc
		}

		childDoc := ""
		if declarationWrappers[n.Type] {
			childDoc = doc
		}
		w.visit(n, inner, childDoc)
	}
}

// declare emits the symbols for a declaration node and returns the kind
// it was treated as.
func (w *walker) declare(parent, n *Node, kind Kind, sc scope, doc string) Kind {
	switch kind {
	case KindConstant, KindVariable, KindType:
		if sc == scopeFunc {
			return kind
		}
	}

	switch w.lang.Name {
	case "go":
		return w.declareGo(n, kind, doc)
	case "typescript", "tsx", "javascript", "jsx":
		return w.declareJS(parent, n, kind, doc)
	case "python":
		return w.declarePython(parent, n, kind, sc, doc)
	case "php":
		return w.declarePHP(n, kind, doc)
	}
	return kind
}

func (w *walker) declareGo(n *Node, kind Kind, doc string) Kind {
	switch n.Type {
	case "function_declaration":
		w.emit(n.Child("identifier"), n, kind, w.signature(n, kind), doc)
	case "method_declaration":
		w.emit(n.Child("field_identifier"), n, kind, w.signature(n, kind), doc)
	case "type_declaration":
		for _, spec := range specs(n, "type_spec", "type_alias") {
			k := KindType
			if spec.Child("interface_type") != nil {
				k = KindInterface
			}
			sig := "type " + cutBrace(firstLine(spec.Text(w.src)))
			w.emit(spec.Child("type_identifier"), spec, k, sig, doc)
		}
	case "const_declaration", "var_declaration":
		keyword := "const"
		if n.Type == "var_declaration" {
			keyword = "var"
		}
		for _, spec := range specs(n, "const_spec", "var_spec") {
			sig := keyword + " " + firstLine(spec.Text(w.src))
			for _, id := range spec.ChildrenOf("identifier") {
				w.emit(id, spec, kind, sig, doc)
			}
		}
	}
	return kind
}

func (w *walker) declareJS(parent, n *Node, kind Kind, doc string) Kind {
	switch n.Type {
	case "lexical_declaration", "variable_declaration":
		if !topLevelParents[parent.Type] {
			return kind
		}
		for _, decl := range n.ChildrenOf("variable_declarator") {
			k := KindVariable
			if n.Child("const") != nil {
				k = KindConstant
			}
			if decl.Child("arrow_function", "function", "function_expression") != nil {
				k = KindFunction
			}
			w.emit(decl.Child("identifier"), n, k, w.signature(n, k), doc)
		}
		return kind
	case "method_definition":
		w.emit(n.Child("property_identifier", "private_property_identifier"), n, kind, w.signature(n, kind), doc)
	default:
		w.emit(n.Child("identifier", "type_identifier"), n, kind, w.signature(n, kind), doc)
	}
	return kind
}

func (w *walker) declarePython(parent, n *Node, kind Kind, sc scope, doc string) Kind {
	switch n.Type {
	case "assignment":
		if sc != scopeFile || !topLevelParents[parent.Type] || len(n.Children) == 0 {
			return kind
		}
		left := n.Children[0]
		if left.Type != "identifier" {
			return kind
		}
		name := left.Text(w.src)
		if isUpperSnake(name) {
			kind = KindConstant
		}
		w.emit(left, n, kind, firstLine(n.Text(w.src)), doc)
		return kind
	case "function_definition":
		if sc == scopeClass {
			kind = KindMethod
		}
	}
	if ds := docstring(n, w.src); ds != "" {
		doc = ds
	}
	w.emit(n.Child("identifier"), n, kind, w.signature(n, kind), doc)
	return kind
}

func (w *walker) declarePHP(n *Node, kind Kind, doc string) Kind {
	if n.Type == "const_declaration" {
		for _, el := range n.ChildrenOf("const_element") {
			w.emit(el.Child("name"), n, kind, firstLine(n.Text(w.src)), doc)
		}
		return kind
	}
	w.emit(n.Child("name"), n, kind, w.signature(n, kind), doc)
	return kind
}

// emit records a symbol named by nameNode spanning span.
func (w *walker) emit(nameNode, span *Node, kind Kind, signature, doc string) {
	if nameNode == nil {
		return
	}
	name := nameNode.Text(w.src)
	if name == "" {
		return
	}
	w.out = append(w.out, Symbol{
		Name:       name,
		Kind:       kind,
		StartLine:  int(span.StartRow) + 1,
		EndLine:    int(span.EndRow) + 1,
		Signature:  signature,
		DocComment: doc,
	})
}

func (w *walker) signature(n *Node, kind Kind) string {
	line := firstLine(n.Text(w.src))
	if !w.lang.BraceBodies {
		return line
	}
	switch kind {
	case KindConstant, KindVariable:
		return line
	}
	return cutBrace(line)
}

// specs returns spec nodes directly under n or inside a parenthesized list.
func specs(n *Node, types ...string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		for _, t := range types {
			if c.Type == t {
				out = append(out, c)
			}
		}
		if strings.HasSuffix(c.Type, "_spec_list") {
			out = append(out, specs(c, types...)...)
		}
	}
	return out
}

func leadingComment(siblings []*Node, i int, src []byte) string {
	var parts []string
	next := siblings[i].StartRow
	for j := i - 1; j >= 0; j-- {
		c := siblings[j]
		if c.Type != "comment" || c.EndRow+1 < next {
			break
		}
		parts = append(parts, cleanComment(c.Text(src)))
		next = c.StartRow
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*"))
		}
		text = strings.Join(lines, "\n")
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	case strings.HasPrefix(text, "#"):
		text = strings.TrimPrefix(text, "#")
	}
	return strings.TrimSpace(text)
}

// docstring returns the leading string literal of a Python body.
func docstring(n *Node, src []byte) string {
	body := n.Child("block")
	if body == nil || len(body.Children) == 0 {
		return ""
	}
	stmt := body.Children[0]
	if stmt.Type != "expression_statement" {
		return ""
	}
	str := stmt.Child("string")
	if str == nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(str.Text(src), `"'`))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func cutBrace(line string) string {
	if i := strings.Index(line, "{"); i > 0 {
		return strings.TrimSpace(line[:i])
	}
	return line
}

func isUpperSnake(name string) bool {
	hasLetter := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case r == '_' || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}
