package syntax

import "github.com/stork-lang/stork/internal/lexer"

// Checkpoint marks a position in the currently open node. A node started at
// a checkpoint adopts every child added after it.
type Checkpoint struct {
	depth int
	index int
}

// Builder assembles a tree bottom-up, the way a recursive-descent parser
// produces it.
type Builder struct {
	stack  []*Node
	offset int
	root   *Node
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartNode opens a node at the current position.
func (b *Builder) StartNode(kind Kind) {
	b.stack = append(b.stack, &Node{Kind: kind, start: b.offset})
}

// Token appends a token to the innermost open node.
func (b *Builder) Token(tok lexer.Token) {
	if len(b.stack) == 0 {
		panic("syntax: token outside of any node")
	}
	top := b.stack[len(b.stack)-1]
	top.children = append(top.children, &Token{Kind: tok.Type, Value: tok.Text, Start: b.offset})
	b.offset += len(tok.Text)
}

// FinishNode closes the innermost open node.
func (b *Builder) FinishNode() {
	n := len(b.stack)
	if n == 0 {
		panic("syntax: FinishNode without open node")
	}
	node := b.stack[n-1]
	b.stack = b.stack[:n-1]
	node.width = b.offset - node.start
	if n == 1 {
		b.root = node
		return
	}
	parent := b.stack[n-2]
	parent.children = append(parent.children, node)
}

// Checkpoint records the current position within the innermost open node.
func (b *Builder) Checkpoint() Checkpoint {
	if len(b.stack) == 0 {
		return Checkpoint{}
	}
	top := b.stack[len(b.stack)-1]
	return Checkpoint{depth: len(b.stack), index: len(top.children)}
}

// StartNodeAt opens a node that wraps every child added since cp.
func (b *Builder) StartNodeAt(cp Checkpoint, kind Kind) {
	if cp.depth != len(b.stack) {
		panic("syntax: checkpoint used at a different depth")
	}
	top := b.stack[len(b.stack)-1]
	adopted := append([]Element(nil), top.children[cp.index:]...)
	top.children = top.children[:cp.index]

	start := b.offset
	if len(adopted) > 0 {
		start = adopted[0].Range().Start
	}
	b.stack = append(b.stack, &Node{Kind: kind, start: start, children: adopted})
}

// Finish returns the completed root.
func (b *Builder) Finish() *Node {
	if len(b.stack) != 0 {
		panic("syntax: unfinished nodes")
	}
	return b.root
}
