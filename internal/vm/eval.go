package vm

import (
	"context"

	"github.com/pkg/errors"

	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/value"
)

// frame is the state of one system run. Variables are keyed by the node
// that defines them: the lvalue of a `let`, or a query for its entity.
type frame struct {
	ctx    context.Context
	m      *Machine
	mods   *ir.Collection
	c      *cache.Cache
	vars   map[ir.GlobalIdx]value.Value
	system string
}

func (f *frame) eval(g ir.GlobalIdx) (value.Value, error) {
	m := f.mods.Module(g.Module)
	at := func(i ir.Idx) ir.GlobalIdx { return m.Global(i) }

	switch n := m.Node(g.Index).(type) {
	case *ir.System:
		return f.eval(at(n.Body))

	case *ir.Block:
		out := value.Unit()
		for i, e := range n.Exprs {
			last := i == len(n.Exprs)-1
			if !last && pureRead(m, e) {
				continue
			}
			v, err := f.eval(at(e))
			if err != nil {
				return value.Value{}, err
			}
			if last {
				out = v
			}
		}
		return out, nil

	case *ir.IdentExpr:
		def, err := f.definition(g)
		if err != nil {
			return value.Value{}, err
		}
		switch f.mods.Node(def).(type) {
		case *ir.IdentExpr, *ir.Query:
			v, ok := f.vars[def]
			if !ok {
				return value.Value{}, errors.Wrapf(ErrInternal, "`%s` read before it was bound", n.Ident)
			}
			return v.Clone(), nil
		}
		// items evaluate to their own identity
		return value.Opaque(def), nil

	case *ir.Number:
		return value.Number(n.Value), nil

	case *ir.Call:
		return f.call(m, n)

	case *ir.Query:
		return value.Unit(), f.query(g, n)

	case *ir.ComponentAccess:
		e, c, err := f.component(m, n)
		if err != nil {
			return value.Value{}, err
		}
		v, ok := f.m.store.Component(e, c)
		if !ok {
			return value.Value{}, f.missingComponent(m, n, e)
		}
		return v, nil

	case *ir.ResourceAccess:
		r, err := f.resource(m, n)
		if err != nil {
			return value.Value{}, err
		}
		v, ok := f.m.store.Resource(r)
		if !ok {
			return value.Value{}, f.missingResource(m, n)
		}
		return v, nil

	case *ir.MemberAccess:
		base, err := f.eval(at(n.Base))
		if err != nil {
			return value.Value{}, err
		}
		name, err := memberName(m, n)
		if err != nil {
			return value.Value{}, err
		}
		v, err := base.Get(value.Path{name})
		if err != nil {
			return value.Value{}, errors.Wrap(ErrInternal, err.Error())
		}
		return v, nil

	case *ir.Assign:
		v, err := f.eval(at(n.Expr))
		if err != nil {
			return value.Value{}, err
		}
		return value.Unit(), f.assign(m, n.LValue, v)

	case *ir.Let:
		return value.Unit(), f.let(m, n)

	case *ir.Del:
		return value.Unit(), f.del(m, n)

	case *ir.If:
		cond, err := f.truthy(m, n.Cond)
		if err != nil {
			return value.Value{}, err
		}
		switch {
		case cond:
			_, err = f.eval(at(n.Then))
		case n.HasElse:
			_, err = f.eval(at(n.Else))
		}
		return value.Unit(), err

	case *ir.While:
		for {
			if err := f.ctx.Err(); err != nil {
				return value.Value{}, err
			}
			cond, err := f.truthy(m, n.Cond)
			if err != nil {
				return value.Value{}, err
			}
			if !cond {
				return value.Unit(), nil
			}
			if _, err := f.eval(at(n.Body)); err != nil {
				return value.Value{}, err
			}
		}

	case *ir.StructLit:
		fields := make([]value.Field, len(n.Fields))
		for i, fi := range n.Fields {
			v, err := f.eval(at(fi.Value))
			if err != nil {
				return value.Value{}, err
			}
			fields[i] = value.Field{Name: fi.Name, Value: v}
		}
		return value.Struct(fields...), nil
	}

	return value.Value{}, errors.Wrapf(ErrInternal, "cannot evaluate %T at %s", m.Node(g.Index), g)
}

// pureRead reports whether evaluating idx only reads, so that its value may
// be skipped when it is discarded.
func pureRead(m *ir.Module, idx ir.Idx) bool {
	switch n := m.Node(idx).(type) {
	case *ir.IdentExpr, *ir.Number, *ir.ResourceAccess:
		return true
	case *ir.ComponentAccess:
		return pureRead(m, n.Entity)
	case *ir.MemberAccess:
		return pureRead(m, n.Base)
	}
	return false
}

func (f *frame) call(m *ir.Module, n *ir.Call) (value.Value, error) {
	callee, err := f.definition(m.Global(n.Function))
	if err != nil {
		return value.Value{}, err
	}
	fn, ok := f.mods.Node(callee).(*ir.BuiltinFunction)
	if !ok {
		// only builtins are callable; anything else is its own identity
		return value.Opaque(callee), nil
	}

	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		var v value.Value
		if fn.Ident == ir.Op(ir.OpNot) {
			b, err := f.truthy(m, a)
			if err != nil {
				return value.Value{}, err
			}
			v = value.Bool(b)
		} else {
			v, err = f.eval(m.Global(a))
			if err != nil {
				return value.Value{}, err
			}
		}
		args[i] = v
	}

	out, err := fn.Fn(args)
	if err != nil {
		return value.Value{}, errors.Wrapf(err, "call `%s`", fn.Ident)
	}
	return out, nil
}

func (f *frame) query(g ir.GlobalIdx, n *ir.Query) error {
	q, err := f.m.query(g)
	if err != nil {
		return err
	}
	iterations := f.m.metrics.QueryIterations.WithLabelValues(f.system)
	defer delete(f.vars, g)

	body := ir.GlobalIdx{Module: g.Module, Index: n.Body}
	for _, e := range q.Entities() {
		if err := f.ctx.Err(); err != nil {
			return err
		}
		f.vars[g] = value.Entity(e)
		if _, err := f.eval(body); err != nil {
			return err
		}
		iterations.Inc()
	}
	return nil
}

// truthy evaluates a condition. A bare component or resource access tests
// presence instead of reading the value.
func (f *frame) truthy(m *ir.Module, idx ir.Idx) (bool, error) {
	switch n := m.Node(idx).(type) {
	case *ir.ComponentAccess:
		e, c, err := f.component(m, n)
		if err != nil {
			return false, err
		}
		_, ok := f.m.store.Component(e, c)
		return ok, nil
	case *ir.ResourceAccess:
		r, err := f.resource(m, n)
		if err != nil {
			return false, err
		}
		_, ok := f.m.store.Resource(r)
		return ok, nil
	}

	v, err := f.eval(m.Global(idx))
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, errors.Wrapf(ErrInternal, "condition evaluated to %s", v.Kind())
	}
	return b, nil
}

// assign stores v at lvalue. A member path is applied in place to the
// existing value of its base.
func (f *frame) assign(m *ir.Module, lvalue ir.Idx, v value.Value) error {
	base, path, err := memberPath(m, lvalue)
	if err != nil {
		return err
	}

	switch n := m.Node(base).(type) {
	case *ir.IdentExpr:
		def, err := f.definition(m.Global(base))
		if err != nil {
			return err
		}
		cur, ok := f.vars[def]
		if !ok {
			return errors.Wrapf(ErrInternal, "`%s` assigned before it was bound", n.Ident)
		}
		if err := cur.Set(path, v); err != nil {
			return errors.Wrap(ErrInternal, err.Error())
		}
		f.vars[def] = cur
		return nil

	case *ir.ComponentAccess:
		e, c, err := f.component(m, n)
		if err != nil {
			return err
		}
		cur, ok := f.m.store.Component(e, c)
		if !ok {
			return f.missingComponent(m, n, e)
		}
		if err := cur.Set(path, v); err != nil {
			return errors.Wrap(ErrInternal, err.Error())
		}
		return f.m.store.SetComponent(e, c, cur)

	case *ir.ResourceAccess:
		r, err := f.resource(m, n)
		if err != nil {
			return err
		}
		cur, ok := f.m.store.Resource(r)
		if !ok {
			return f.missingResource(m, n)
		}
		if err := cur.Set(path, v); err != nil {
			return errors.Wrap(ErrInternal, err.Error())
		}
		f.m.store.SetResource(r, cur)
		return nil
	}
	return errors.Wrapf(ErrInternal, "cannot assign to %T", m.Node(base))
}

// let binds a local, or creates or overwrites a component or resource.
func (f *frame) let(m *ir.Module, n *ir.Let) error {
	switch lv := m.Node(n.LValue).(type) {
	case *ir.IdentExpr:
		v, err := f.eval(m.Global(n.Expr))
		if err != nil {
			return err
		}
		f.vars[m.Global(n.LValue)] = v
		return nil

	case *ir.ComponentAccess:
		e, c, err := f.component(m, lv)
		if err != nil {
			return err
		}
		v, err := f.eval(m.Global(n.Expr))
		if err != nil {
			return err
		}
		return f.m.store.SetComponent(e, c, v)

	case *ir.ResourceAccess:
		r, err := f.resource(m, lv)
		if err != nil {
			return err
		}
		v, err := f.eval(m.Global(n.Expr))
		if err != nil {
			return err
		}
		f.m.store.SetResource(r, v)
		return nil
	}
	return errors.Wrapf(ErrInternal, "cannot bind %T", m.Node(n.LValue))
}

func (f *frame) del(m *ir.Module, n *ir.Del) error {
	switch target := m.Node(n.Expr).(type) {
	case *ir.ComponentAccess:
		e, c, err := f.component(m, target)
		if err != nil {
			return err
		}
		f.m.store.RemoveComponent(e, c)
		return nil
	case *ir.ResourceAccess:
		r, err := f.resource(m, target)
		if err != nil {
			return err
		}
		f.m.store.RemoveResource(r)
		return nil
	}
	return errors.Wrapf(ErrInternal, "cannot delete %T", m.Node(n.Expr))
}

// component evaluates the entity of an access and finds its component.
func (f *frame) component(m *ir.Module, n *ir.ComponentAccess) (value.EntityID, store.ComponentID, error) {
	ev, err := f.eval(m.Global(n.Entity))
	if err != nil {
		return 0, 0, err
	}
	e, ok := ev.AsEntity()
	if !ok {
		return 0, 0, errors.Wrapf(ErrInternal, "component accessed through %s", ev.Kind())
	}
	def, err := f.definition(m.Global(n.Component))
	if err != nil {
		return 0, 0, err
	}
	c, ok := f.m.components[def]
	if !ok {
		return 0, 0, errors.Wrapf(ErrInternal, "%s is not a bound component", def)
	}
	return e, c, nil
}

func (f *frame) resource(m *ir.Module, n *ir.ResourceAccess) (store.ResourceID, error) {
	def, err := f.definition(m.Global(n.Resource))
	if err != nil {
		return 0, err
	}
	r, ok := f.m.resources[def]
	if !ok {
		return 0, errors.Wrapf(ErrInternal, "%s is not a bound resource", def)
	}
	return r, nil
}

func (f *frame) definition(g ir.GlobalIdx) (ir.GlobalIdx, error) {
	def, ok := f.c.Definition(g)
	if !ok {
		return ir.NoGlobalIdx, errors.Wrapf(ErrInternal, "%s has no definition", g)
	}
	return def, nil
}

func (f *frame) missingComponent(m *ir.Module, n *ir.ComponentAccess, e value.EntityID) error {
	name := "component"
	if id, ok := m.Node(n.Component).(*ir.IdentExpr); ok {
		name = id.Ident.String()
	}
	return errors.Wrapf(ErrMissingValue, "entity %d has no %s", e, name)
}

func (f *frame) missingResource(m *ir.Module, n *ir.ResourceAccess) error {
	name := "resource"
	if id, ok := m.Node(n.Resource).(*ir.IdentExpr); ok {
		name = id.Ident.String()
	}
	return errors.Wrapf(ErrMissingValue, "resource %s is not set", name)
}

// memberPath unwraps a chain of member accesses into its innermost base and
// the field names in order from the base.
func memberPath(m *ir.Module, idx ir.Idx) (ir.Idx, value.Path, error) {
	var path value.Path
	for {
		ma, ok := m.Node(idx).(*ir.MemberAccess)
		if !ok {
			break
		}
		name, err := memberName(m, ma)
		if err != nil {
			return 0, nil, err
		}
		path = append(path, name)
		idx = ma.Base
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return idx, path, nil
}

func memberName(m *ir.Module, n *ir.MemberAccess) (string, error) {
	id, ok := m.Node(n.Member).(*ir.IdentExpr)
	if !ok || id.Ident.IsOperator() {
		return "", errors.Wrapf(ErrInternal, "member is %T", m.Node(n.Member))
	}
	return id.Ident.Name, nil
}
