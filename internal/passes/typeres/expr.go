package typeres

import (
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/types"
)

var unit = types.Of(types.TypeUnit)

func (r *resolver) expr(g ir.GlobalIdx, m *ir.Module) types.Resolved {
	at := func(i ir.Idx) ir.GlobalIdx { return m.Global(i) }

	switch n := m.Node(g.Index).(type) {
	case *ir.Block:
		t := unit
		for _, e := range n.Exprs {
			t = r.value(at(e))
		}
		if t.IsPoison() {
			return types.Poisoned
		}
		return types.Of(t.Type)

	case *ir.IdentExpr:
		def, ok := r.c.Definition(g)
		if !ok {
			return types.Poisoned
		}
		switch r.mods.Node(def).(type) {
		case *ir.IdentExpr:
			// a `let` binding, typed when the let was resolved
			if t, ok := r.c.Type(def); ok {
				return t
			}
			return types.Poisoned
		case *ir.Query:
			return types.Of(types.TypeEntity)
		case *ir.System:
			return unit
		}
		return r.resolve(def)

	case *ir.Number:
		return types.Of(types.TypeNumber)

	case *ir.Poison:
		return types.Poisoned

	case *ir.Call:
		return r.call(g, n, m)

	case *ir.Query:
		r.value(at(n.Body))
		return unit

	case *ir.ComponentAccess:
		et := r.value(at(n.Entity))
		if !et.IsPoison() && !types.Equal(et.Type, types.TypeEntity) {
			r.report(at(n.Entity), diag.CodeTypeNotEntity, "not an entity", "components can only be accessed through an entity, found `%s`", et)
		}
		return r.access(at(n.Component), ir.StorageComponent)

	case *ir.ResourceAccess:
		return r.access(at(n.Resource), ir.StorageResource)

	case *ir.MemberAccess:
		member, ok := m.Node(n.Member).(*ir.IdentExpr)
		if !ok || member.Ident.IsOperator() {
			r.report(at(n.Member), diag.CodeTypeInvalidMember, "expected a field name", "fields are accessed by name")
			return types.Poisoned
		}
		bt := r.value(at(n.Base))
		if bt.IsPoison() {
			return types.Poisoned
		}
		st, ok := bt.Type.(*types.Struct)
		if !ok {
			r.report(at(n.Base), diag.CodeTypeNotStruct, "has type "+bt.String(), "only structs have fields")
			return types.Poisoned
		}
		f, ok := st.Field(member.Ident.Name)
		if !ok {
			d := r.diagnostic(at(n.Member), diag.CodeTypeUnknownField, "unknown field", "no field `%s` on `%s`", member.Ident.Name, st)
			r.c.Report(g.Module, d)
			return unit
		}
		return types.Of(f.Type)

	case *ir.Assign:
		if !r.assignable(at(n.LValue), m) {
			r.value(at(n.Expr))
			return unit
		}
		lt := r.resolve(at(n.LValue))
		et := r.value(at(n.Expr))
		if !lt.IsPoison() {
			r.expect(at(n.Expr), et, lt.Type)
		}
		return unit

	case *ir.Let:
		et := r.value(at(n.Expr))
		lvalue := at(n.LValue)
		switch m.Node(n.LValue).(type) {
		case *ir.IdentExpr:
			if et.IsPoison() {
				r.c.SetType(lvalue, types.Poisoned)
			} else {
				r.c.SetType(lvalue, types.Of(et.Type))
			}
		case *ir.ComponentAccess, *ir.ResourceAccess:
			lt := r.resolve(lvalue)
			if !lt.IsPoison() {
				r.expect(at(n.Expr), et, lt.Type)
			}
		default:
			r.report(lvalue, diag.CodeTypeInvalidTarget, "cannot bind", "`let` needs a name or a component or resource access")
		}
		return unit

	case *ir.Del:
		switch m.Node(n.Expr).(type) {
		case *ir.ComponentAccess, *ir.ResourceAccess:
			r.resolve(at(n.Expr))
		default:
			r.report(at(n.Expr), diag.CodeTypeInvalidTarget, "cannot delete", "`del` needs a component or resource access")
		}
		return unit

	case *ir.If:
		r.expectTruthy(at(n.Cond), r.value(at(n.Cond)))
		r.value(at(n.Then))
		if n.HasElse {
			r.value(at(n.Else))
		}
		return unit

	case *ir.While:
		r.expectTruthy(at(n.Cond), r.value(at(n.Cond)))
		r.value(at(n.Body))
		return unit

	case *ir.StructLit:
		return r.structLit(g, n, m)
	}

	r.c.Report(g.Module, diag.Internal(diag.StageTypes, diag.CodeTypeUnexpectedNode, r.mods.DiagSpan(g), "type resolution: unhandled node %T", m.Node(g.Index)))
	return types.Poisoned
}

func (r *resolver) call(g ir.GlobalIdx, n *ir.Call, m *ir.Module) types.Resolved {
	ft := r.resolve(m.Global(n.Function))
	args := make([]types.Resolved, len(n.Args))
	for i, a := range n.Args {
		args[i] = r.value(m.Global(a))
	}
	if ft.IsPoison() {
		return types.Poisoned
	}
	fn, ok := ft.Type.(*types.Function)
	if !ok {
		d := r.diagnostic(m.Global(n.Function), diag.CodeTypeNotCallable, "not a function", "call expression requires a function").
			WithNote("found `" + ft.String() + "`")
		r.c.Report(g.Module, d)
		return types.Poisoned
	}

	if len(args) != len(fn.Params) {
		d := r.diagnostic(g, diag.CodeTypeArity, "in this call", "this function takes %d arguments but %d were supplied", len(fn.Params), len(args)).
			WithNote("function type is `" + fn.String() + "`")
		r.c.Report(g.Module, d)
	}

	isNot := false
	if id, ok := m.Node(n.Function).(*ir.IdentExpr); ok && id.Ident == ir.Op(ir.OpNot) {
		isNot = true
	}
	for i, a := range n.Args {
		if i >= len(fn.Params) {
			break
		}
		if isNot {
			r.expectTruthy(m.Global(a), args[i])
		} else {
			r.expect(m.Global(a), args[i], fn.Params[i])
		}
	}
	return types.Of(fn.Return)
}

// access checks that g names an item with the given storage.
func (r *resolver) access(g ir.GlobalIdx, want ir.Storage) types.Resolved {
	t := r.resolve(g)
	if t.IsPoison() {
		return types.Poisoned
	}
	if _, ok := r.mods.Node(g).(*ir.IdentExpr); !ok || r.storage(g) != want {
		r.report(g, diag.CodeTypeNotStored, "not a "+want.String(), "expected a %s, found `%s`", want, t)
		return types.Poisoned
	}
	return types.Stored(t.Type)
}

// assignable reports whether lvalue may be assigned to: a local, a store
// access, or a field path rooted at one of those.
func (r *resolver) assignable(lvalue ir.GlobalIdx, m *ir.Module) bool {
	base := lvalue.Index
	for {
		ma, ok := m.Node(base).(*ir.MemberAccess)
		if !ok {
			break
		}
		base = ma.Base
	}
	switch n := m.Node(base).(type) {
	case *ir.ComponentAccess, *ir.ResourceAccess, *ir.Poison:
		return true
	case *ir.IdentExpr:
		def, ok := r.c.Definition(m.Global(base))
		if !ok {
			return true
		}
		if _, local := r.mods.Node(def).(*ir.IdentExpr); local {
			return true
		}
		r.report(lvalue, diag.CodeTypeInvalidTarget, "cannot assign", "cannot assign to `%s`", n.Ident)
		return false
	}
	r.report(lvalue, diag.CodeTypeInvalidTarget, "cannot assign", "invalid left-hand side of assignment")
	return false
}

func (r *resolver) structLit(g ir.GlobalIdx, n *ir.StructLit, m *ir.Module) types.Resolved {
	fields := make([]types.Resolved, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = r.value(m.Global(f.Value))
	}

	def, ok := r.c.Definition(g)
	if !ok {
		return types.Poisoned
	}
	if !isTypeDef(r.mods.Node(def)) {
		r.report(g, diag.CodeTypeMismatch, "not a type", "`%s` is not a type", n.Ident)
		return types.Poisoned
	}
	dt := r.resolve(def)
	if dt.IsPoison() {
		return types.Poisoned
	}
	st, ok := dt.Type.(*types.Struct)
	if !ok {
		r.report(g, diag.CodeTypeNotStruct, "has type "+dt.String(), "`%s` is not a struct", n.Ident)
		return types.Poisoned
	}

	seen := make(map[string]bool)
	for i, f := range n.Fields {
		field, ok := st.Field(f.Name)
		if !ok || seen[f.Name] {
			r.report(m.Global(f.Value), diag.CodeTypeUnknownField, "unknown field", "struct `%s` has no field `%s` to initialize", n.Ident, f.Name)
			continue
		}
		seen[f.Name] = true
		r.expect(m.Global(f.Value), fields[i], field.Type)
	}
	for _, field := range st.Fields {
		if !seen[field.Name] {
			r.report(g, diag.CodeTypeMissingField, "missing `"+field.Name+"`", "missing field `%s` in `%s`", field.Name, n.Ident)
		}
	}
	return types.Of(st)
}
