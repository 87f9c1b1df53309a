// Package effectres computes the store accesses of every IR node. The
// access context flows top-down: the same component access is a read, a
// write or a presence check depending on where it appears.
package effectres

import (
	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
)

// Context is what the surrounding code does with a value.
type Context int

const (
	None Context = iota
	Has
	Read
	Write
	Structural
)

func (c Context) String() string {
	return [...]string{"None", "Has", "Read", "Write", "Structural"}[c]
}

// nestedQuery is a query, the effects it makes through its own entity and
// the component effects it makes through entities no query binds.
type nestedQuery struct {
	node     ir.GlobalIdx
	own      access.Set
	detached access.Set
}

type resolver struct {
	c *cache.Cache
	m *ir.Module
	// frames collects, per enclosing query, the queries nested inside it.
	frames [][]nestedQuery
	// aliases maps a local bound by `let x = <ident>` to its initializer.
	// Locals that are assigned again are left out.
	aliases map[ir.GlobalIdx]ir.Idx
}

// Run resolves module id.
func Run(c *cache.Cache, mods *ir.Collection, id ir.ModuleID) {
	r := &resolver{c: c, m: mods.Module(id)}
	r.collectAliases()
	for _, idx := range r.m.TopLevel {
		r.node(idx, None)
	}
}

func (r *resolver) collectAliases() {
	r.aliases = make(map[ir.GlobalIdx]ir.Idx)
	reassigned := make(map[ir.GlobalIdx]bool)
	for i := 0; i < r.m.Len(); i++ {
		switch n := r.m.Node(ir.Idx(i)).(type) {
		case *ir.Let:
			_, local := r.m.Node(n.LValue).(*ir.IdentExpr)
			_, ident := r.m.Node(n.Expr).(*ir.IdentExpr)
			if local && ident {
				r.aliases[r.m.Global(n.LValue)] = n.Expr
			}
		case *ir.Assign:
			if _, local := r.m.Node(n.LValue).(*ir.IdentExpr); !local {
				continue
			}
			if def, ok := r.c.Definition(r.m.Global(n.LValue)); ok {
				reassigned[def] = true
			}
		}
	}
	for def := range reassigned {
		delete(r.aliases, def)
	}
}

// entity returns the definition an entity expression refers to, following
// `let` aliases. It is NoGlobalIdx when the expression is not a name.
func (r *resolver) entity(idx ir.Idx) ir.GlobalIdx {
	for {
		if _, ok := r.m.Node(idx).(*ir.IdentExpr); !ok {
			return ir.NoGlobalIdx
		}
		def, ok := r.c.Definition(r.m.Global(idx))
		if !ok {
			return ir.NoGlobalIdx
		}
		next, alias := r.aliases[def]
		if !alias {
			return def
		}
		idx = next
	}
}

// isQuery reports whether g is a query of this module.
func (r *resolver) isQuery(g ir.GlobalIdx) bool {
	if g.Module != r.m.ID {
		return false
	}
	_, ok := r.m.Node(g.Index).(*ir.Query)
	return ok
}

// detached returns the component effects of s made through entities that
// are not bound by a query. Any of them may be the entity of a query.
func (r *resolver) detached(s access.Set) access.Set {
	out := access.NewSet()
	for e := range s {
		if e.Kind.IsComponent() && !r.isQuery(e.Entity) {
			out.Add(e)
		}
	}
	return out
}

func (r *resolver) node(idx ir.Idx, ctx Context) access.Set {
	s := r.compute(idx, ctx)
	r.c.Effects[r.m.Global(idx)] = s
	return s
}

func (r *resolver) compute(idx ir.Idx, ctx Context) access.Set {
	s := access.NewSet()

	switch n := r.m.Node(idx).(type) {
	case *ir.System:
		s.Union(r.node(n.Body, None))

	case *ir.Block:
		for i, e := range n.Exprs {
			if i == len(n.Exprs)-1 {
				s.Union(r.node(e, ctx))
			} else {
				s.Union(r.node(e, None))
			}
		}

	case *ir.Call:
		s.Union(r.node(n.Function, Read))
		argCtx := Read
		if id, ok := r.m.Node(n.Function).(*ir.IdentExpr); ok && id.Ident == ir.Op(ir.OpNot) {
			argCtx = Has
		}
		for _, a := range n.Args {
			s.Union(r.node(a, argCtx))
		}

	case *ir.Query:
		s.Union(r.query(idx, n))

	case *ir.ComponentAccess:
		s.Union(r.node(n.Entity, Read))
		r.node(n.Component, None)
		target, ok := r.c.Definition(r.m.Global(n.Component))
		if !ok {
			s.Add(access.ExclusiveEffect)
			break
		}
		if e, ok := componentEffect(ctx, target, r.entity(n.Entity)); ok {
			s.Add(e)
		}

	case *ir.ResourceAccess:
		r.node(n.Resource, None)
		target, ok := r.c.Definition(r.m.Global(n.Resource))
		if !ok {
			s.Add(access.ExclusiveEffect)
			break
		}
		if e, ok := resourceEffect(ctx, target); ok {
			s.Add(e)
		}

	case *ir.MemberAccess:
		baseCtx := ctx
		switch ctx {
		case Has:
			baseCtx = Read
		case Structural:
			baseCtx = Write
		}
		s.Union(r.node(n.Base, baseCtx))
		r.node(n.Member, None)

	case *ir.Assign:
		s.Union(r.node(n.LValue, Write))
		s.Union(r.node(n.Expr, Read))

	case *ir.Let:
		if _, local := r.m.Node(n.LValue).(*ir.IdentExpr); local {
			r.node(n.LValue, None)
		} else {
			s.Union(r.node(n.LValue, Structural))
		}
		s.Union(r.node(n.Expr, Read))

	case *ir.Del:
		s.Union(r.node(n.Expr, Structural))

	case *ir.If:
		s.Union(r.node(n.Cond, Has))
		s.Union(r.node(n.Then, ctx))
		if n.HasElse {
			s.Union(r.node(n.Else, ctx))
		}

	case *ir.While:
		s.Union(r.node(n.Cond, Has))
		s.Union(r.node(n.Body, ctx))

	case *ir.StructLit:
		for _, f := range n.Fields {
			s.Union(r.node(f.Value, Read))
		}

	case *ir.Component, *ir.Resource, *ir.TypeIdent, *ir.StructType, *ir.Import,
		*ir.BuiltinType, *ir.BuiltinFunction, *ir.IdentExpr, *ir.Number, *ir.Poison:
		// no store access

	default:
		r.c.Report(r.m.ID, diag.Internal(diag.StageEffects, diag.CodeEffectUnexpectedNode, r.m.DiagSpan(idx), "effect resolution: unhandled node %T", n))
		s.Add(access.ExclusiveEffect)
	}
	return s
}

// query resolves a query body and rejects nested queries whose accesses
// through their own entity conflict with this query's.
func (r *resolver) query(idx ir.Idx, n *ir.Query) access.Set {
	g := r.m.Global(idx)

	r.frames = append(r.frames, nil)
	body := r.node(n.Body, Read)
	nested := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]

	own, detached := body.ForEntity(g), r.detached(body)
	for _, inner := range nested {
		if !access.Conflicts(own, inner.own) &&
			!access.Conflicts(detached, inner.own) &&
			!access.Conflicts(own, inner.detached) {
			continue
		}
		span := r.m.DiagSpan(inner.node.Index)
		d := diag.New(diag.StageEffects, diag.CodeEffectNestedQuery, span,
			"query `%s` overlaps with the query it is nested in", r.m.Node(inner.node.Index).(*ir.Query).Entity).
			WithPrimarySpan(span, "nested query").
			WithSecondarySpan(r.m.DiagSpan(idx), "enclosing query").
			WithNote("a nested query may not access a component the enclosing query writes, or write one it reads")
		r.c.Report(r.m.ID, d)
	}

	if depth := len(r.frames); depth > 0 {
		r.frames[depth-1] = append(r.frames[depth-1], nested...)
		r.frames[depth-1] = append(r.frames[depth-1], nestedQuery{node: g, own: own, detached: detached})
	}
	return body
}

func componentEffect(ctx Context, target, entity ir.GlobalIdx) (access.Effect, bool) {
	switch ctx {
	case Has:
		return access.Component(access.HasComponent, target, entity), true
	case Read:
		return access.Component(access.ReadComponent, target, entity), true
	case Write:
		return access.Component(access.WriteComponent, target, entity), true
	case Structural:
		return access.Component(access.StructuralComponents, target, entity), true
	}
	return access.Effect{}, false
}

func resourceEffect(ctx Context, target ir.GlobalIdx) (access.Effect, bool) {
	switch ctx {
	case Read:
		return access.Resource(access.ReadResource, target), true
	case Write:
		return access.Resource(access.WriteResource, target), true
	case Structural:
		return access.Resource(access.StructuralResources, target), true
	}
	return access.Effect{}, false
}
