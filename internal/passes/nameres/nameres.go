// Package nameres binds every identifier, type name and struct name of a
// module to the node that defines it.
package nameres

import (
	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
)

type resolver struct {
	c     *cache.Cache
	mods  *ir.Collection
	m     *ir.Module
	scope *Scope
}

// Run resolves module id. Visible at module scope, in increasing priority:
// prelude modules, imported modules, the module's own items.
func Run(c *cache.Cache, mods *ir.Collection, id ir.ModuleID) {
	r := &resolver{c: c, mods: mods, m: mods.Module(id), scope: NewScope(nil)}

	for _, other := range mods.Modules() {
		if other.Prelude && other.ID != id {
			r.declareModule(other)
		}
	}
	for _, idx := range r.m.TopLevel {
		imp, ok := r.m.Node(idx).(*ir.Import)
		if !ok || imp.Path == "" {
			continue
		}
		other, ok := mods.Lookup(imp.Path)
		if !ok {
			r.report(idx, diag.CodeNameUnknownModule, "cannot find module `%s`", imp.Path)
			continue
		}
		if other.ID != id {
			r.declareModule(other)
		}
	}

	own := make(map[ir.Identifier]ir.Idx)
	for _, item := range r.m.TopLevelNames() {
		if prev, dup := own[item.Ident]; dup {
			d := r.diagnostic(item.Index, diag.CodeNameDuplicate, "redefined here", "`%s` is defined more than once", item.Ident).
				WithSecondarySpan(r.m.DiagSpan(prev), "first defined here")
			r.c.Report(id, d)
			continue
		}
		own[item.Ident] = item.Index
		r.scope.Insert(item.Ident, r.m.Global(item.Index))
	}

	for _, idx := range r.m.TopLevel {
		r.node(idx)
	}
}

func (r *resolver) declareModule(other *ir.Module) {
	for _, item := range other.TopLevelNames() {
		r.scope.Insert(item.Ident, other.Global(item.Index))
	}
}

func (r *resolver) push() { r.scope = NewScope(r.scope) }
func (r *resolver) pop()  { r.scope = r.scope.Parent }

// bind records the definition of idx, or reports it as unresolved.
func (r *resolver) bind(idx ir.Idx, id ir.Identifier, code diag.Code, what string) {
	if def, ok := r.scope.Lookup(id); ok {
		r.c.Names[r.m.Global(idx)] = def
		return
	}
	r.report(idx, code, "cannot find %s `%s` in this scope", what, id)
}

func (r *resolver) node(idx ir.Idx) {
	switch n := r.m.Node(idx).(type) {
	case *ir.System:
		r.node(n.Body)
	case *ir.Component:
		r.node(n.Type)
	case *ir.Resource:
		r.node(n.Type)
	case *ir.TypeIdent:
		r.bind(idx, ir.Name(n.Name), diag.CodeNameUnresolvedType, "type")
	case *ir.StructType:
		for _, f := range n.Fields {
			r.node(f.Type)
		}
	case *ir.Import, *ir.BuiltinType, *ir.BuiltinFunction, *ir.Number, *ir.Poison:
		// nothing to resolve
	case *ir.Block:
		r.push()
		for _, e := range n.Exprs {
			r.node(e)
		}
		r.pop()
	case *ir.IdentExpr:
		what := "value"
		if n.Ident.IsOperator() {
			what = "operator"
		}
		r.bind(idx, n.Ident, diag.CodeNameUnresolved, what)
	case *ir.Call:
		r.node(n.Function)
		for _, a := range n.Args {
			r.node(a)
		}
	case *ir.Query:
		r.push()
		r.scope.Insert(ir.Name(n.Entity), r.m.Global(idx))
		r.node(n.Body)
		r.pop()
	case *ir.ComponentAccess:
		r.node(n.Entity)
		r.node(n.Component)
	case *ir.ResourceAccess:
		r.node(n.Resource)
	case *ir.MemberAccess:
		r.node(n.Base)
	case *ir.Assign:
		r.node(n.LValue)
		r.node(n.Expr)
	case *ir.Let:
		r.node(n.Expr)
		if ident, ok := r.m.Node(n.LValue).(*ir.IdentExpr); ok {
			r.scope.Insert(ident.Ident, r.m.Global(n.LValue))
		} else {
			r.node(n.LValue)
		}
	case *ir.Del:
		r.node(n.Expr)
	case *ir.If:
		r.node(n.Cond)
		r.node(n.Then)
		if n.HasElse {
			r.node(n.Else)
		}
	case *ir.While:
		r.node(n.Cond)
		r.node(n.Body)
	case *ir.StructLit:
		r.bind(idx, n.Ident, diag.CodeNameUnresolvedType, "struct")
		for _, f := range n.Fields {
			r.node(f.Value)
		}
	default:
		r.c.Report(r.m.ID, diag.Internal(diag.StageNames, diag.CodeNameUnexpectedNode, r.m.DiagSpan(idx), "name resolution: unhandled node %T", n))
	}
}

func (r *resolver) diagnostic(idx ir.Idx, code diag.Code, label, format string, args ...any) diag.Diagnostic {
	span := r.m.DiagSpan(idx)
	return diag.New(diag.StageNames, code, span, format, args...).WithPrimarySpan(span, label)
}

func (r *resolver) report(idx ir.Idx, code diag.Code, format string, args ...any) {
	d := r.diagnostic(idx, code, "not found", format, args...)
	if code == diag.CodeNameUnresolved {
		d = d.WithHelp("locals must be declared with `let` before they are used")
	}
	r.c.Report(r.m.ID, d)
}
