package ast

import (
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

// CastExpr wraps n as an expression, or returns nil for non-expression
// nodes such as Error.
func CastExpr(n *syntax.Node) Expr {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case syntax.Literal:
		return Literal{n}
	case syntax.Prefix:
		return UnaryExpr{n}
	case syntax.Infix:
		return BinaryExpr{n}
	case syntax.Paren:
		return ParenExpr{n}
	case syntax.Block:
		return Block{n}
	case syntax.Query:
		return Query{n}
	case syntax.ComponentAccess:
		return ComponentAccess{n}
	case syntax.ResourceAccess:
		return ResourceAccess{n}
	case syntax.Call:
		return Call{n}
	case syntax.Let:
		return Let{n}
	case syntax.Del:
		return Del{n}
	case syntax.If:
		return If{n}
	case syntax.While:
		return While{n}
	case syntax.Struct:
		return StructLit{n}
	default:
		return nil
	}
}

// exprs returns the expression children of n.
func exprs(n *syntax.Node) []Expr {
	var out []Expr
	for _, child := range n.ChildNodes() {
		if e := CastExpr(child); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func nth(list []Expr, i int) Expr {
	if i < len(list) {
		return list[i]
	}
	return nil
}

// around returns the first expression before and the expressions after the
// first direct token of kind split.
func around(n *syntax.Node, split lexer.TokenType) (Expr, []Expr) {
	var before Expr
	var after []Expr
	seen := false
	for _, child := range n.Children() {
		switch c := child.(type) {
		case *syntax.Token:
			if c.Kind == split && !seen {
				seen = true
			}
		case *syntax.Node:
			e := CastExpr(c)
			if e == nil {
				continue
			}
			if seen {
				after = append(after, e)
			} else if before == nil {
				before = e
			}
		}
	}
	return before, after
}

// Literal is a number or a name.
type Literal struct{ node *syntax.Node }

func (Literal) exprNode()               {}
func (l Literal) Syntax() *syntax.Node { return l.node }

// Ident returns the name token, if this literal is a name.
func (l Literal) Ident() *syntax.Token { return l.node.FirstToken(lexer.IDENT) }

// Number returns the number token, if this literal is a number.
func (l Literal) Number() *syntax.Token { return l.node.FirstToken(lexer.NUMBER) }

// UnaryExpr is a prefix operator applied to an operand.
type UnaryExpr struct{ node *syntax.Node }

func (UnaryExpr) exprNode()               {}
func (u UnaryExpr) Syntax() *syntax.Node { return u.node }

// Op returns the operator token.
func (u UnaryExpr) Op() *syntax.Token {
	if toks := u.node.ChildTokens(); len(toks) > 0 {
		return toks[0]
	}
	return nil
}

func (u UnaryExpr) Operand() Expr { return nth(exprs(u.node), 0) }

// BinaryExpr is an infix operator, including `.`, `=` and compound
// assignment.
type BinaryExpr struct{ node *syntax.Node }

func (BinaryExpr) exprNode()               {}
func (b BinaryExpr) Syntax() *syntax.Node { return b.node }

// Op returns the operator token.
func (b BinaryExpr) Op() *syntax.Token {
	if toks := b.node.ChildTokens(); len(toks) > 0 {
		return toks[0]
	}
	return nil
}

func (b BinaryExpr) Left() Expr {
	op := b.Op()
	if op == nil {
		return nth(exprs(b.node), 0)
	}
	left, _ := around(b.node, op.Kind)
	return left
}

func (b BinaryExpr) Right() Expr {
	op := b.Op()
	if op == nil {
		return nil
	}
	_, right := around(b.node, op.Kind)
	return nth(right, 0)
}

// ParenExpr is `( expr )`.
type ParenExpr struct{ node *syntax.Node }

func (ParenExpr) exprNode()               {}
func (p ParenExpr) Syntax() *syntax.Node { return p.node }

func (p ParenExpr) Inner() Expr { return nth(exprs(p.node), 0) }

// Block is `{ expr; ... }`.
type Block struct{ node *syntax.Node }

func (Block) exprNode()               {}
func (b Block) Syntax() *syntax.Node { return b.node }

// Exprs returns the statements in order.
func (b Block) Exprs() []Expr { return exprs(b.node) }

// Query is `query entity { ... }`.
type Query struct{ node *syntax.Node }

func (Query) exprNode()               {}
func (q Query) Syntax() *syntax.Node { return q.node }

// Entity returns the entity binding token, or nil.
func (q Query) Entity() *syntax.Token { return q.node.FirstToken(lexer.IDENT) }

func (q Query) Body() (Block, bool) { return firstBlock(q.node) }

// ComponentAccess is `entity[Component]`.
type ComponentAccess struct{ node *syntax.Node }

func (ComponentAccess) exprNode()               {}
func (c ComponentAccess) Syntax() *syntax.Node { return c.node }

func (c ComponentAccess) Entity() Expr {
	entity, _ := around(c.node, lexer.LBRACKET)
	return entity
}

func (c ComponentAccess) Component() Expr {
	_, after := around(c.node, lexer.LBRACKET)
	return nth(after, 0)
}

// ResourceAccess is `[Resource]`.
type ResourceAccess struct{ node *syntax.Node }

func (ResourceAccess) exprNode()               {}
func (r ResourceAccess) Syntax() *syntax.Node { return r.node }

func (r ResourceAccess) Resource() Expr { return nth(exprs(r.node), 0) }

// Call is `callee(args...)`.
type Call struct{ node *syntax.Node }

func (Call) exprNode()               {}
func (c Call) Syntax() *syntax.Node { return c.node }

func (c Call) Callee() Expr {
	callee, _ := around(c.node, lexer.LPAREN)
	return callee
}

func (c Call) Args() []Expr {
	_, args := around(c.node, lexer.LPAREN)
	return args
}

// Let is `let lvalue = expr`.
type Let struct{ node *syntax.Node }

func (Let) exprNode()               {}
func (l Let) Syntax() *syntax.Node { return l.node }

func (l Let) LValue() Expr {
	lvalue, _ := around(l.node, lexer.ASSIGN)
	return lvalue
}

func (l Let) Value() Expr {
	_, after := around(l.node, lexer.ASSIGN)
	return nth(after, 0)
}

// Del is `del target`.
type Del struct{ node *syntax.Node }

func (Del) exprNode()               {}
func (d Del) Syntax() *syntax.Node { return d.node }

func (d Del) Target() Expr { return nth(exprs(d.node), 0) }

// If is `if cond { } [else { } | else if ...]`.
type If struct{ node *syntax.Node }

func (If) exprNode()               {}
func (i If) Syntax() *syntax.Node { return i.node }

func (i If) Cond() Expr { return nth(exprs(i.node), 0) }

func (i If) Then() Expr { return nth(exprs(i.node), 1) }

// Else returns the else branch: a Block, a nested If, or nil.
func (i If) Else() Expr {
	if i.node.FirstToken(lexer.ELSE) == nil {
		return nil
	}
	return nth(exprs(i.node), 2)
}

// While is `while cond { }`.
type While struct{ node *syntax.Node }

func (While) exprNode()               {}
func (w While) Syntax() *syntax.Node { return w.node }

func (w While) Cond() Expr { return nth(exprs(w.node), 0) }

func (w While) Body() Expr { return nth(exprs(w.node), 1) }

// StructLit is `Name { field: expr, ... }`.
type StructLit struct{ node *syntax.Node }

func (StructLit) exprNode()               {}
func (s StructLit) Syntax() *syntax.Node { return s.node }

// Name returns the struct type name token.
func (s StructLit) Name() *syntax.Token {
	for _, child := range s.node.ChildNodes() {
		if child.Kind == syntax.Literal {
			return child.FirstToken(lexer.IDENT)
		}
	}
	return nil
}

// FieldInit is one `name: expr` pair; Value is nil when missing.
type FieldInit struct {
	Name  *syntax.Token
	Value Expr
}

// Fields pairs every direct name token with the expression following it.
func (s StructLit) Fields() []FieldInit {
	var out []FieldInit
	nameSeen := false
	for _, child := range s.node.Children() {
		switch c := child.(type) {
		case *syntax.Token:
			if c.Kind == lexer.IDENT {
				out = append(out, FieldInit{Name: c})
				nameSeen = true
			}
		case *syntax.Node:
			if !nameSeen {
				continue
			}
			if e := CastExpr(c); e != nil && out[len(out)-1].Value == nil {
				out[len(out)-1].Value = e
			}
		}
	}
	return out
}
