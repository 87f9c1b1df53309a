package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/lower"
)

func systemBody(t *testing.T, m *ir.Module) *ir.Block {
	t.Helper()
	systems := m.Systems()
	require.Len(t, systems, 1)
	sys := m.Node(systems[0]).(*ir.System)
	block, ok := m.Node(sys.Body).(*ir.Block)
	require.True(t, ok, "system body is %T", m.Node(sys.Body))
	return block
}

func TestItems(t *testing.T) {
	m := lower.Source(0, "main", "comp Health: f32\ncomp Marker\nres Pos: { x: f32, y: f32 }\nuse std\nsys tick { }")
	require.Empty(t, m.Diagnostics)
	require.Len(t, m.TopLevel, 5)

	health := m.Node(m.TopLevel[0]).(*ir.Component)
	assert.Equal(t, "Health", health.Name)
	assert.Equal(t, &ir.TypeIdent{Name: "f32"}, m.Node(health.Type))

	marker := m.Node(m.TopLevel[1]).(*ir.Component)
	assert.Equal(t, &ir.StructType{}, m.Node(marker.Type))

	pos := m.Node(m.TopLevel[2]).(*ir.Resource)
	st := m.Node(pos.Type).(*ir.StructType)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "y", st.Fields[1].Name)
	assert.Equal(t, &ir.TypeIdent{Name: "f32"}, m.Node(st.Fields[1].Type))

	assert.Equal(t, &ir.Import{Path: "std"}, m.Node(m.TopLevel[3]))
	assert.Equal(t, "tick", m.Node(m.TopLevel[4]).(*ir.System).Name)
}

func TestOperatorsBecomeCalls(t *testing.T) {
	m := lower.Source(0, "main", "sys { -(1 + 2) * 3; }")
	require.Empty(t, m.Diagnostics)
	body := systemBody(t, m)
	require.Len(t, body.Exprs, 1)

	mul := m.Node(body.Exprs[0]).(*ir.Call)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Op(ir.OpMul)}, m.Node(mul.Function))
	require.Len(t, mul.Args, 2)
	assert.Equal(t, &ir.Number{Value: 3}, m.Node(mul.Args[1]))

	neg := m.Node(mul.Args[0]).(*ir.Call)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Op(ir.OpNeg)}, m.Node(neg.Function))

	// parentheses disappear
	add := m.Node(neg.Args[0]).(*ir.Call)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Op(ir.OpAdd)}, m.Node(add.Function))
}

func TestCompoundAssignment(t *testing.T) {
	m := lower.Source(0, "main", "sys { query e { e[A] += 2; } }")
	require.Empty(t, m.Diagnostics)
	body := systemBody(t, m)
	q := m.Node(body.Exprs[0]).(*ir.Query)
	assert.Equal(t, "e", q.Entity)

	qbody := m.Node(q.Body).(*ir.Block)
	assign := m.Node(qbody.Exprs[0]).(*ir.Assign)
	_, ok := m.Node(assign.LValue).(*ir.ComponentAccess)
	require.True(t, ok)

	call := m.Node(assign.Expr).(*ir.Call)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Op(ir.OpAdd)}, m.Node(call.Function))
	require.Len(t, call.Args, 2)
	assert.NotEqual(t, assign.LValue, call.Args[0], "left side must be lowered twice")
	assert.Equal(t, m.Node(assign.LValue), m.Node(call.Args[0]))
	assert.Equal(t, &ir.Number{Value: 2}, m.Node(call.Args[1]))
}

func TestMemberAndStruct(t *testing.T) {
	m := lower.Source(0, "main", "sys { let p = Pos { x: 1, y: 2 }; p.x = 3; }")
	require.Empty(t, m.Diagnostics)
	body := systemBody(t, m)
	require.Len(t, body.Exprs, 2)

	let := m.Node(body.Exprs[0]).(*ir.Let)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Name("p")}, m.Node(let.LValue))
	lit := m.Node(let.Expr).(*ir.StructLit)
	assert.Equal(t, ir.Name("Pos"), lit.Ident)
	require.Len(t, lit.Fields, 2)
	assert.Equal(t, "x", lit.Fields[0].Name)
	assert.Equal(t, &ir.Number{Value: 2}, m.Node(lit.Fields[1].Value))

	assign := m.Node(body.Exprs[1]).(*ir.Assign)
	member := m.Node(assign.LValue).(*ir.MemberAccess)
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Name("p")}, m.Node(member.Base))
	assert.Equal(t, &ir.IdentExpr{Ident: ir.Name("x")}, m.Node(member.Member))
}

func TestControlFlow(t *testing.T) {
	m := lower.Source(0, "main", "sys { if [A] { 1 } else if [B] { 2 } while [C] { del [C] } }")
	require.Empty(t, m.Diagnostics)
	body := systemBody(t, m)
	require.Len(t, body.Exprs, 2)

	outer := m.Node(body.Exprs[0]).(*ir.If)
	require.True(t, outer.HasElse)
	inner := m.Node(outer.Else).(*ir.If)
	assert.False(t, inner.HasElse)
	_, ok := m.Node(inner.Cond).(*ir.ResourceAccess)
	assert.True(t, ok)

	loop := m.Node(body.Exprs[1]).(*ir.While)
	loopBody := m.Node(loop.Body).(*ir.Block)
	del := m.Node(loopBody.Exprs[0]).(*ir.Del)
	_, ok = m.Node(del.Expr).(*ir.ResourceAccess)
	assert.True(t, ok)
}

func TestMissingPiecesArePoison(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"query without entity", "sys { query { } }", diag.CodeLowerQueryBinding},
		{"let without value", "sys { let x = ; }", diag.CodeLowerMissingNode},
		{"binary without right", "sys { 1 + ; }", diag.CodeLowerMissingNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := lower.Source(0, "main", tt.src)
			require.True(t, m.Diagnostics.HasErrors())

			var codes []diag.Code
			for _, d := range m.Diagnostics {
				codes = append(codes, d.Code)
			}
			assert.Contains(t, codes, tt.code)

			poison := 0
			for i := 0; i < m.Len(); i++ {
				if _, ok := m.Node(ir.Idx(i)).(*ir.Poison); ok {
					poison++
				}
			}
			assert.Positive(t, poison)
		})
	}
}

func TestParseDiagnosticsAreKept(t *testing.T) {
	m := lower.Source(0, "main", "sys { 1 + }\ncomp A: f32")
	require.True(t, m.Diagnostics.HasErrors())
	assert.Equal(t, diag.StageParser, m.Diagnostics[0].Stage)
	// recovery still yields the component
	names := m.TopLevelNames()
	require.NotEmpty(t, names)
	assert.Equal(t, ir.Name("A"), names[len(names)-1].Ident)
}
