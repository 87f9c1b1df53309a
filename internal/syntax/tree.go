package syntax

import (
	"strings"

	"github.com/stork-lang/stork/internal/lexer"
)

// Range is a half-open byte range in the source.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int { return r.End - r.Start }

// Element is either a *Node or a *Token.
type Element interface {
	Text() string
	Range() Range
	isElement()
}

// Token is a leaf of the tree.
type Token struct {
	Kind  lexer.TokenType
	Value string
	Start int
}

func (*Token) isElement() {}

// Text returns the exact source text of the token.
func (t *Token) Text() string { return t.Value }

// Range returns the byte range of the token.
func (t *Token) Range() Range { return Range{Start: t.Start, End: t.Start + len(t.Value)} }

// Node is an interior node of the tree.
type Node struct {
	Kind     Kind
	start    int
	width    int
	children []Element
}

func (*Node) isElement() {}

// Range returns the byte range covered by the node, trivia included.
func (n *Node) Range() Range { return Range{Start: n.start, End: n.start + n.width} }

// Text reassembles the source text under n.
func (n *Node) Text() string {
	var b strings.Builder
	b.Grow(n.width)
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, child := range n.children {
		switch c := child.(type) {
		case *Token:
			b.WriteString(c.Value)
		case *Node:
			c.writeText(b)
		}
	}
}

// Children returns nodes and tokens in source order.
func (n *Node) Children() []Element { return n.children }

// ChildNodes returns only the node children.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, child := range n.children {
		if c, ok := child.(*Node); ok {
			out = append(out, c)
		}
	}
	return out
}

// ChildTokens returns the direct token children, trivia excluded.
func (n *Node) ChildTokens() []*Token {
	var out []*Token
	for _, child := range n.children {
		if c, ok := child.(*Token); ok && !c.Kind.IsTrivia() {
			out = append(out, c)
		}
	}
	return out
}

// FirstToken returns the first direct token child of the given kind.
func (n *Node) FirstToken(kind lexer.TokenType) *Token {
	for _, child := range n.children {
		if c, ok := child.(*Token); ok && c.Kind == kind {
			return c
		}
	}
	return nil
}

// TrimmedRange returns the range without leading and trailing trivia.
func (n *Node) TrimmedRange() Range {
	var first, last *Token
	n.walkTokens(func(t *Token) {
		if t.Kind.IsTrivia() {
			return
		}
		if first == nil {
			first = t
		}
		last = t
	})
	if first == nil {
		return Range{Start: n.start, End: n.start}
	}
	return Range{Start: first.Start, End: last.Range().End}
}

func (n *Node) walkTokens(fn func(*Token)) {
	for _, child := range n.children {
		switch c := child.(type) {
		case *Token:
			fn(c)
		case *Node:
			c.walkTokens(fn)
		}
	}
}

// Walk visits n and every descendant node in pre-order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, child := range n.ChildNodes() {
		Walk(child, fn)
	}
}
