// Package typeres assigns a type to every IR node. Resolution is lazy and
// memoized: a node is resolved on first use, and a node that is reached
// again while still in progress is a type cycle.
package typeres

import (
	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/types"
)

type resolver struct {
	c    *cache.Cache
	mods *ir.Collection
}

// Run resolves every item of module id. Items of other modules are
// resolved on demand.
func Run(c *cache.Cache, mods *ir.Collection, id ir.ModuleID) {
	r := &resolver{c: c, mods: mods}
	m := mods.Module(id)
	for _, idx := range m.TopLevel {
		r.resolve(m.Global(idx))
	}
}

// resolve returns the memoized type of g, computing it if needed.
func (r *resolver) resolve(g ir.GlobalIdx) types.Resolved {
	switch r.c.Status[g] {
	case cache.Done:
		return r.c.Types[g]
	case cache.InProgress:
		r.report(g, diag.CodeTypeCycle, "type depends on itself", "recursive type")
		r.c.SetType(g, types.Poisoned)
		return types.Poisoned
	}

	r.c.Status[g] = cache.InProgress
	t := r.compute(g)
	if r.c.Status[g] == cache.Done {
		// a cycle through g already poisoned it
		return r.c.Types[g]
	}
	if t.Type == nil {
		t = types.Poisoned
	}
	r.c.SetType(g, t)
	return t
}

func (r *resolver) compute(g ir.GlobalIdx) types.Resolved {
	m := r.mods.Module(g.Module)
	at := func(i ir.Idx) ir.GlobalIdx { return m.Global(i) }

	switch n := m.Node(g.Index).(type) {
	case *ir.System:
		r.value(at(n.Body))
		return types.Of(types.TypeUnit)

	case *ir.Component:
		return r.storedType(at(n.Type))

	case *ir.Resource:
		return r.storedType(at(n.Type))

	case *ir.Import:
		return types.Of(types.TypeUnit)

	case *ir.TypeIdent:
		def, ok := r.c.Definition(g)
		if !ok {
			return types.Poisoned
		}
		if !isTypeDef(r.mods.Node(def)) {
			r.report(g, diag.CodeTypeMismatch, "not a type", "`%s` is not a type", n.Name)
			return types.Poisoned
		}
		t := r.resolve(def)
		if t.IsPoison() {
			return types.Poisoned
		}
		return types.Of(t.Type)

	case *ir.StructType:
		st := &types.Struct{}
		poisoned := false
		for _, f := range n.Fields {
			ft := r.resolve(at(f.Type))
			if ft.IsPoison() {
				poisoned = true
				continue
			}
			st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: ft.Type})
		}
		if poisoned {
			return types.Poisoned
		}
		return types.Of(st)

	case *ir.BuiltinType:
		if n.Storage != ir.StorageNone {
			return types.Stored(n.Type.Type)
		}
		return types.Of(n.Type.Type)

	case *ir.BuiltinFunction:
		return types.Of(n.Type)

	default:
		return r.expr(g, m)
	}
}

// storedType resolves the annotation of a component or resource.
func (r *resolver) storedType(ty ir.GlobalIdx) types.Resolved {
	t := r.resolve(ty)
	if t.IsPoison() {
		return types.Poisoned
	}
	return types.Stored(t.Type)
}

// value resolves g in a position that needs a runtime value. Names of items
// such as components or functions are not values.
func (r *resolver) value(g ir.GlobalIdx) types.Resolved {
	t := r.resolve(g)
	id, ok := r.mods.Node(g).(*ir.IdentExpr)
	if !ok {
		return t
	}
	def, ok := r.c.Definition(g)
	if !ok {
		return t
	}
	switch r.mods.Node(def).(type) {
	case *ir.Component, *ir.Resource, *ir.BuiltinType, *ir.BuiltinFunction, *ir.System:
		d := r.diagnostic(g, diag.CodeTypeNotAValue, "not a value", "`%s` is not a value", id.Ident)
		switch r.mods.Node(def).(type) {
		case *ir.Component:
			d = d.WithHelp("read a component through an entity, as in `entity[" + id.Ident.String() + "]`")
		case *ir.Resource:
			d = d.WithHelp("read a resource with `[" + id.Ident.String() + "]`")
		}
		r.c.Report(g.Module, d)
		return types.Poisoned
	}
	return t
}

// storage reports where the item g names lives in the store.
func (r *resolver) storage(g ir.GlobalIdx) ir.Storage {
	def, ok := r.c.Definition(g)
	if !ok {
		return ir.StorageNone
	}
	switch n := r.mods.Node(def).(type) {
	case *ir.Component:
		return ir.StorageComponent
	case *ir.Resource:
		return ir.StorageResource
	case *ir.BuiltinType:
		return n.Storage
	}
	return ir.StorageNone
}

func isTypeDef(n ir.Node) bool {
	switch n.(type) {
	case *ir.BuiltinType, *ir.Component, *ir.Resource:
		return true
	}
	return false
}

// expect reports a mismatch unless got equals want or either is poisoned.
func (r *resolver) expect(at ir.GlobalIdx, got types.Resolved, want types.Type) {
	if got.IsPoison() || types.IsPoison(want) || types.Equal(got.Type, want) {
		return
	}
	d := r.diagnostic(at, diag.CodeTypeMismatch, "expected "+want.String(), "mismatched types").
		WithNote("expected `" + want.String() + "`, found `" + got.String() + "`")
	r.c.Report(at.Module, d)
}

// expectTruthy accepts booleans and store accesses.
func (r *resolver) expectTruthy(at ir.GlobalIdx, got types.Resolved) {
	if got.IsPoison() || got.Truthy() {
		return
	}
	d := r.diagnostic(at, diag.CodeTypeNotTruthy, "expected bool", "condition must be a bool or a component or resource access").
		WithNote("found `" + got.String() + "`")
	r.c.Report(at.Module, d)
}

func (r *resolver) diagnostic(g ir.GlobalIdx, code diag.Code, label, format string, args ...any) diag.Diagnostic {
	span := r.mods.DiagSpan(g)
	return diag.New(diag.StageTypes, code, span, format, args...).WithPrimarySpan(span, label)
}

func (r *resolver) report(g ir.GlobalIdx, code diag.Code, label, format string, args ...any) {
	r.c.Report(g.Module, r.diagnostic(g, code, label, format, args...))
}
