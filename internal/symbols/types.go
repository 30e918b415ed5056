// Package symbols parses source files with tree-sitter and extracts the
// declarations the index stores: functions, methods, types, classes,
// interfaces, constants and top-level variables.
package symbols

// Kind is the kind of an extracted symbol.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindConstant  Kind = "constant"
	KindVariable  Kind = "variable"
)

// Symbol is a declaration found in a source file.
type Symbol struct {
	Name       string
	Kind       Kind
	StartLine  int // 1-indexed
	EndLine    int // inclusive
	Signature  string
	DocComment string
}

// Tree is a parsed source file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a syntax tree node detached from the tree-sitter runtime.
type Node struct {
	Type      string
	StartByte uint32
	EndByte   uint32
	StartRow  uint32 // 0-indexed
	EndRow    uint32
	HasError  bool
	Children  []*Node
}

// Text returns the source text covered by the node.
func (n *Node) Text(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// Child returns the first direct child of one of the given types.
func (n *Node) Child(types ...string) *Node {
	for _, c := range n.Children {
		for _, t := range types {
			if c.Type == t {
				return c
			}
		}
	}
	return nil
}

// ChildrenOf returns every direct child of the given type.
func (n *Node) ChildrenOf(nodeType string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of nodes of the given type in the subtree.
func (n *Node) Count(nodeType string) int {
	total := 0
	if n.Type == nodeType {
		total++
	}
	for _, c := range n.Children {
		total += c.Count(nodeType)
	}
	return total
}
