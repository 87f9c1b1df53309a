// Package ast is a typed view over the lossless syntax tree. Wrappers hold
// nothing but their syntax node; every accessor scans children on demand.
package ast

import (
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

// Node is any typed wrapper.
type Node interface {
	Syntax() *syntax.Node
}

// Item is a top-level declaration.
type Item interface {
	Node
	itemNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Type is a type annotation.
type Type interface {
	Node
	typeNode()
}

// Root is the whole file.
type Root struct{ node *syntax.Node }

// CastRoot wraps n if it is a Root node.
func CastRoot(n *syntax.Node) (Root, bool) {
	if n == nil || n.Kind != syntax.Root {
		return Root{}, false
	}
	return Root{n}, true
}

func (r Root) Syntax() *syntax.Node { return r.node }

// Items returns the recognised items in source order. Error nodes are skipped.
func (r Root) Items() []Item {
	var items []Item
	for _, child := range r.node.ChildNodes() {
		if item := CastItem(child); item != nil {
			items = append(items, item)
		}
	}
	return items
}

// CastItem wraps n as an item, or returns nil.
func CastItem(n *syntax.Node) Item {
	switch n.Kind {
	case syntax.System:
		return System{n}
	case syntax.Component:
		return Component{n}
	case syntax.Resource:
		return Resource{n}
	case syntax.Import:
		return Import{n}
	default:
		return nil
	}
}

// System is `sys [name] { ... }`.
type System struct{ node *syntax.Node }

func (System) itemNode()               {}
func (s System) Syntax() *syntax.Node { return s.node }

// Name returns the system name token, or nil for an anonymous system.
func (s System) Name() *syntax.Token { return s.node.FirstToken(lexer.IDENT) }

// Body returns the system block.
func (s System) Body() (Block, bool) { return firstBlock(s.node) }

// Component is `comp name[: type]`.
type Component struct{ node *syntax.Node }

func (Component) itemNode()               {}
func (c Component) Syntax() *syntax.Node { return c.node }

// Field returns the declared name and type.
func (c Component) Field() (FieldType, bool) { return firstField(c.node) }

// Resource is `res name[: type]`.
type Resource struct{ node *syntax.Node }

func (Resource) itemNode()               {}
func (r Resource) Syntax() *syntax.Node { return r.node }

// Field returns the declared name and type.
func (r Resource) Field() (FieldType, bool) { return firstField(r.node) }

// Import is `use name`.
type Import struct{ node *syntax.Node }

func (Import) itemNode()               {}
func (i Import) Syntax() *syntax.Node { return i.node }

// Path returns the imported module name token.
func (i Import) Path() *syntax.Token { return i.node.FirstToken(lexer.IDENT) }

// FieldType is `name [: type]`, used by items and struct types.
type FieldType struct{ node *syntax.Node }

func (f FieldType) Syntax() *syntax.Node { return f.node }

// Name returns the field name token.
func (f FieldType) Name() *syntax.Token { return f.node.FirstToken(lexer.IDENT) }

// Type returns the annotation, or nil when it is omitted.
func (f FieldType) Type() Type {
	for _, child := range f.node.ChildNodes() {
		switch child.Kind {
		case syntax.Literal:
			return IdentType{child}
		case syntax.StructType:
			return StructType{child}
		}
	}
	return nil
}

// IdentType names a type.
type IdentType struct{ node *syntax.Node }

func (IdentType) typeNode()               {}
func (t IdentType) Syntax() *syntax.Node { return t.node }

// Name returns the type name token.
func (t IdentType) Name() *syntax.Token { return t.node.FirstToken(lexer.IDENT) }

// StructType is `{ field, ... }`.
type StructType struct{ node *syntax.Node }

func (StructType) typeNode()               {}
func (t StructType) Syntax() *syntax.Node { return t.node }

// Fields returns the field declarations in order.
func (t StructType) Fields() []FieldType {
	var out []FieldType
	for _, child := range t.node.ChildNodes() {
		if child.Kind == syntax.FieldType {
			out = append(out, FieldType{child})
		}
	}
	return out
}

func firstField(n *syntax.Node) (FieldType, bool) {
	for _, child := range n.ChildNodes() {
		if child.Kind == syntax.FieldType {
			return FieldType{child}, true
		}
	}
	return FieldType{}, false
}

func firstBlock(n *syntax.Node) (Block, bool) {
	for _, child := range n.ChildNodes() {
		if child.Kind == syntax.Block {
			return Block{child}, true
		}
	}
	return Block{}, false
}
