package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stork-lang/stork/internal/ast"
	"github.com/stork-lang/stork/internal/lexer"
	"github.com/stork-lang/stork/internal/parser"
)

func parseRoot(t *testing.T, src string) ast.Root {
	t.Helper()
	node, diags := parser.Parse(src)
	require.Empty(t, diags)
	root, ok := ast.CastRoot(node)
	require.True(t, ok)
	return root
}

func systemBody(t *testing.T, src string) []ast.Expr {
	t.Helper()
	items := parseRoot(t, src).Items()
	require.Len(t, items, 1)
	sys, ok := items[0].(ast.System)
	require.True(t, ok)
	body, ok := sys.Body()
	require.True(t, ok)
	return body.Exprs()
}

func TestItems(t *testing.T) {
	root := parseRoot(t, "comp Pos: { x: f32, y }\nres Score: f32\nuse std\nsys tick { }\nsys { }")
	items := root.Items()
	require.Len(t, items, 5)

	comp := items[0].(ast.Component)
	field, ok := comp.Field()
	require.True(t, ok)
	assert.Equal(t, "Pos", field.Name().Text())
	st, ok := field.Type().(ast.StructType)
	require.True(t, ok)
	fields := st.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "x", fields[0].Name().Text())
	assert.Equal(t, "f32", fields[0].Type().(ast.IdentType).Name().Text())
	assert.Nil(t, fields[1].Type())

	res := items[1].(ast.Resource)
	field, ok = res.Field()
	require.True(t, ok)
	assert.Equal(t, "Score", field.Name().Text())

	assert.Equal(t, "std", items[2].(ast.Import).Path().Text())
	assert.Equal(t, "tick", items[3].(ast.System).Name().Text())
	assert.Nil(t, items[4].(ast.System).Name())
}

func TestPrecedenceShape(t *testing.T) {
	stmts := systemBody(t, "sys { -1+2*(-7+3) }")
	require.Len(t, stmts, 1)

	add := stmts[0].(ast.BinaryExpr)
	assert.Equal(t, lexer.PLUS, add.Op().Kind)

	neg := add.Left().(ast.UnaryExpr)
	assert.Equal(t, lexer.MINUS, neg.Op().Kind)
	assert.Equal(t, "1", neg.Operand().(ast.Literal).Number().Text())

	mul := add.Right().(ast.BinaryExpr)
	assert.Equal(t, lexer.ASTERISK, mul.Op().Kind)
	assert.Equal(t, "2", mul.Left().(ast.Literal).Number().Text())

	inner := mul.Right().(ast.ParenExpr).Inner().(ast.BinaryExpr)
	assert.Equal(t, lexer.PLUS, inner.Op().Kind)
	assert.Equal(t, "7", inner.Left().(ast.UnaryExpr).Operand().(ast.Literal).Number().Text())
	assert.Equal(t, "3", inner.Right().(ast.Literal).Number().Text())
}

func TestAccessAndCalls(t *testing.T) {
	stmts := systemBody(t, "sys { e[Pos].x = f(1, [R]); }")
	require.Len(t, stmts, 1)

	assign := stmts[0].(ast.BinaryExpr)
	assert.Equal(t, lexer.ASSIGN, assign.Op().Kind)

	member := assign.Left().(ast.BinaryExpr)
	assert.Equal(t, lexer.DOT, member.Op().Kind)
	access := member.Left().(ast.ComponentAccess)
	assert.Equal(t, "e", access.Entity().(ast.Literal).Ident().Text())
	assert.Equal(t, "Pos", access.Component().(ast.Literal).Ident().Text())
	assert.Equal(t, "x", member.Right().(ast.Literal).Ident().Text())

	call := assign.Right().(ast.Call)
	assert.Equal(t, "f", call.Callee().(ast.Literal).Ident().Text())
	args := call.Args()
	require.Len(t, args, 2)
	res := args[1].(ast.ResourceAccess)
	assert.Equal(t, "R", res.Resource().(ast.Literal).Ident().Text())
}

func TestControlFlow(t *testing.T) {
	stmts := systemBody(t, "sys { query e { let v = P { x: 1, y: 2 }; del e[P] } if a { } else if b { } while c { } }")
	require.Len(t, stmts, 3)

	q := stmts[0].(ast.Query)
	assert.Equal(t, "e", q.Entity().Text())
	body, ok := q.Body()
	require.True(t, ok)
	inner := body.Exprs()
	require.Len(t, inner, 2)

	let := inner[0].(ast.Let)
	assert.Equal(t, "v", let.LValue().(ast.Literal).Ident().Text())
	lit := let.Value().(ast.StructLit)
	assert.Equal(t, "P", lit.Name().Text())
	fields := lit.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "y", fields[1].Name.Text())
	assert.Equal(t, "2", fields[1].Value.(ast.Literal).Number().Text())

	del := inner[1].(ast.Del)
	_, ok = del.Target().(ast.ComponentAccess)
	assert.True(t, ok)

	ifExpr := stmts[1].(ast.If)
	assert.Equal(t, "a", ifExpr.Cond().(ast.Literal).Ident().Text())
	_, ok = ifExpr.Then().(ast.Block)
	assert.True(t, ok)
	elseIf := ifExpr.Else().(ast.If)
	assert.Nil(t, elseIf.Else())

	while := stmts[2].(ast.While)
	assert.Equal(t, "c", while.Cond().(ast.Literal).Ident().Text())
	_, ok = while.Body().(ast.Block)
	assert.True(t, ok)
}

func TestMissingChildren(t *testing.T) {
	node, diags := parser.Parse("sys { let = 1; [A] + }")
	require.NotEmpty(t, diags)
	root, _ := ast.CastRoot(node)
	body, ok := root.Items()[0].(ast.System).Body()
	require.True(t, ok)
	stmts := body.Exprs()
	require.Len(t, stmts, 2)

	assert.Nil(t, stmts[0].(ast.Let).LValue())
	add := stmts[1].(ast.BinaryExpr)
	assert.NotNil(t, add.Left())
	assert.Nil(t, add.Right())
}
