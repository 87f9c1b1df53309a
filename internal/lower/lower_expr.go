package lower

import (
	"strconv"

	"github.com/stork-lang/stork/internal/ast"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/syntax"
)

var prefixOperators = map[lexer.TokenType]ir.Operator{
	lexer.MINUS: ir.OpNeg,
	lexer.BANG:  ir.OpNot,
}

var infixOperators = map[lexer.TokenType]ir.Operator{
	lexer.PLUS:     ir.OpAdd,
	lexer.MINUS:    ir.OpSub,
	lexer.ASTERISK: ir.OpMul,
	lexer.SLASH:    ir.OpDiv,
	lexer.EQ:       ir.OpEq,
	lexer.NOT_EQ:   ir.OpNotEq,
	lexer.LT:       ir.OpLess,
	lexer.LE:       ir.OpLessEq,
	lexer.GT:       ir.OpGreater,
	lexer.GE:       ir.OpGreaterEq,
	lexer.OR:       ir.OpOr,
	lexer.AND:      ir.OpAnd,
}

var compoundOperators = map[lexer.TokenType]ir.Operator{
	lexer.PLUS_ASSIGN:     ir.OpAdd,
	lexer.MINUS_ASSIGN:    ir.OpSub,
	lexer.ASTERISK_ASSIGN: ir.OpMul,
	lexer.SLASH_ASSIGN:    ir.OpDiv,
}

// lowerExpr lowers e; a nil e is a missing child of parent.
func (l *Lowerer) lowerExpr(e ast.Expr, parent *syntax.Node) ir.Idx {
	if e == nil {
		return l.missing(parent, "expression")
	}
	n := e.Syntax()
	span := spanOf(e)

	switch e := e.(type) {
	case ast.Literal:
		return l.lowerLiteral(e, span)

	case ast.ParenExpr:
		return l.lowerExpr(e.Inner(), n)

	case ast.Block:
		var exprs []ir.Idx
		for _, stmt := range e.Exprs() {
			exprs = append(exprs, l.lowerExpr(stmt, n))
		}
		return l.m.Alloc(&ir.Block{Exprs: exprs}, span)

	case ast.Query:
		tok := e.Entity()
		if tok == nil {
			l.report(n, diag.CodeLowerQueryBinding, "query needs an entity binding, as in `query entity { ... }`")
			return l.m.Alloc(&ir.Poison{}, span)
		}
		var body ir.Idx
		if block, ok := e.Body(); ok {
			body = l.lowerExpr(block, n)
		} else {
			body = l.missing(n, "query body")
		}
		return l.m.Alloc(&ir.Query{Entity: tok.Text(), Body: body}, span)

	case ast.UnaryExpr:
		op := e.Op()
		operator, ok := prefixOperators[op.Kind]
		if !ok {
			return l.unexpected(n)
		}
		operand := l.lowerExpr(e.Operand(), n)
		fn := l.m.Alloc(&ir.IdentExpr{Ident: ir.Op(operator)}, tokenSpan(op))
		return l.m.Alloc(&ir.Call{Function: fn, Args: []ir.Idx{operand}}, span)

	case ast.BinaryExpr:
		return l.lowerBinary(e, span)

	case ast.ComponentAccess:
		entity := l.lowerExpr(e.Entity(), n)
		component := l.lowerExpr(e.Component(), n)
		return l.m.Alloc(&ir.ComponentAccess{Entity: entity, Component: component}, span)

	case ast.ResourceAccess:
		resource := l.lowerExpr(e.Resource(), n)
		return l.m.Alloc(&ir.ResourceAccess{Resource: resource}, span)

	case ast.Call:
		fn := l.lowerExpr(e.Callee(), n)
		var args []ir.Idx
		for _, arg := range e.Args() {
			args = append(args, l.lowerExpr(arg, n))
		}
		return l.m.Alloc(&ir.Call{Function: fn, Args: args}, span)

	case ast.Let:
		lvalue := l.lowerExpr(e.LValue(), n)
		expr := l.lowerExpr(e.Value(), n)
		return l.m.Alloc(&ir.Let{LValue: lvalue, Expr: expr}, span)

	case ast.Del:
		target := l.lowerExpr(e.Target(), n)
		return l.m.Alloc(&ir.Del{Expr: target}, span)

	case ast.If:
		node := &ir.If{
			Cond: l.lowerExpr(e.Cond(), n),
			Then: l.lowerExpr(e.Then(), n),
		}
		if els := e.Else(); els != nil {
			node.Else = l.lowerExpr(els, n)
			node.HasElse = true
		}
		return l.m.Alloc(node, span)

	case ast.While:
		cond := l.lowerExpr(e.Cond(), n)
		body := l.lowerExpr(e.Body(), n)
		return l.m.Alloc(&ir.While{Cond: cond, Body: body}, span)

	case ast.StructLit:
		name := e.Name()
		if name == nil {
			return l.missing(n, "struct name")
		}
		lit := &ir.StructLit{Ident: ir.Name(name.Text())}
		for _, f := range e.Fields() {
			lit.Fields = append(lit.Fields, ir.FieldInit{Name: f.Name.Text(), Value: l.lowerExpr(f.Value, n)})
		}
		return l.m.Alloc(lit, span)
	}

	return l.unexpected(n)
}

func (l *Lowerer) lowerLiteral(e ast.Literal, span ir.Span) ir.Idx {
	if tok := e.Ident(); tok != nil {
		return l.m.Alloc(&ir.IdentExpr{Ident: ir.Name(tok.Text())}, span)
	}
	if tok := e.Number(); tok != nil {
		f, err := strconv.ParseFloat(tok.Text(), 32)
		if err != nil {
			l.report(e.Syntax(), diag.CodeLowerInvalidNumber, "invalid number literal `"+tok.Text()+"`")
			return l.m.Alloc(&ir.Poison{}, span)
		}
		return l.m.Alloc(&ir.Number{Value: f}, span)
	}
	return l.missing(e.Syntax(), "literal")
}

func (l *Lowerer) lowerBinary(e ast.BinaryExpr, span ir.Span) ir.Idx {
	n := e.Syntax()
	op := e.Op()
	if op == nil {
		return l.unexpected(n)
	}

	switch op.Kind {
	case lexer.DOT:
		base := l.lowerExpr(e.Left(), n)
		var member ir.Idx
		if lit, ok := e.Right().(ast.Literal); ok && lit.Ident() != nil {
			member = l.m.Alloc(&ir.IdentExpr{Ident: ir.Name(lit.Ident().Text())}, spanOf(lit))
		} else {
			member = l.lowerExpr(e.Right(), n)
		}
		return l.m.Alloc(&ir.MemberAccess{Base: base, Member: member}, span)

	case lexer.ASSIGN:
		lvalue := l.lowerExpr(e.Left(), n)
		expr := l.lowerExpr(e.Right(), n)
		return l.m.Alloc(&ir.Assign{LValue: lvalue, Expr: expr}, span)
	}

	if operator, ok := compoundOperators[op.Kind]; ok {
		// a op= b is a = a op b; the left side is lowered twice so no node
		// has two parents.
		lvalue := l.lowerExpr(e.Left(), n)
		current := l.lowerExpr(e.Left(), n)
		rhs := l.lowerExpr(e.Right(), n)
		fn := l.m.Alloc(&ir.IdentExpr{Ident: ir.Op(operator)}, tokenSpan(op))
		call := l.m.Alloc(&ir.Call{Function: fn, Args: []ir.Idx{current, rhs}}, span)
		return l.m.Alloc(&ir.Assign{LValue: lvalue, Expr: call}, span)
	}

	operator, ok := infixOperators[op.Kind]
	if !ok {
		return l.unexpected(n)
	}
	left := l.lowerExpr(e.Left(), n)
	right := l.lowerExpr(e.Right(), n)
	fn := l.m.Alloc(&ir.IdentExpr{Ident: ir.Op(operator)}, tokenSpan(op))
	return l.m.Alloc(&ir.Call{Function: fn, Args: []ir.Idx{left, right}}, span)
}

func (l *Lowerer) unexpected(n *syntax.Node) ir.Idx {
	l.m.Diagnostics = append(l.m.Diagnostics,
		diag.Internal(diag.StageLower, diag.CodeLowerUnexpectedNode, l.diagSpan(n.TrimmedRange()), "cannot lower %s node", n.Kind))
	r := n.TrimmedRange()
	return l.m.Alloc(&ir.Poison{}, ir.Span{Start: r.Start, End: r.End})
}
