// Package pretty prints lowered modules as indented trees, annotated with
// what the passes resolved for each node.
package pretty

import (
	"fmt"
	"io"
	"strings"

	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/ir"
)

// Printer writes IR trees. With a cache, nodes are annotated with their
// definition, type and access set.
type Printer struct {
	mods  *ir.Collection
	cache *cache.Cache

	Types   bool
	Effects bool
}

func New(mods *ir.Collection, c *cache.Cache) *Printer {
	return &Printer{mods: mods, cache: c, Types: c != nil, Effects: c != nil}
}

// Module writes every top-level item of m.
func (p *Printer) Module(w io.Writer, m *ir.Module) error {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s (#%d)\n", m.Path, m.ID)
	for _, idx := range m.TopLevel {
		p.node(&b, m, idx, 1)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the tree rooted at g.
func (p *Printer) String(g ir.GlobalIdx) string {
	var b strings.Builder
	p.node(&b, p.mods.Module(g.Module), g.Index, 0)
	return b.String()
}

func (p *Printer) node(b *strings.Builder, m *ir.Module, idx ir.Idx, depth int) {
	g := m.Global(idx)
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, "%s %s", g, p.label(m.Node(idx)))

	if p.cache != nil {
		if def, ok := p.cache.Definition(g); ok {
			fmt.Fprintf(b, " -> %s", def)
		}
		if p.Types {
			if t, ok := p.cache.Type(g); ok {
				fmt.Fprintf(b, " : %s", t)
				if t.FromStore {
					b.WriteString(" (stored)")
				}
			}
		}
		if p.Effects {
			if s := p.cache.Effect(g); len(s) > 0 {
				fmt.Fprintf(b, " %s", s)
			}
		}
	}
	b.WriteString("\n")

	for _, child := range Children(m.Node(idx)) {
		p.node(b, m, child, depth+1)
	}
}

func (p *Printer) label(n ir.Node) string {
	switch n := n.(type) {
	case *ir.System:
		if n.Name == "" {
			return "System"
		}
		return "System " + n.Name
	case *ir.Component:
		return "Component " + n.Name
	case *ir.Resource:
		return "Resource " + n.Name
	case *ir.Import:
		return "Import " + n.Path
	case *ir.TypeIdent:
		return "TypeIdent " + n.Name
	case *ir.StructType:
		names := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			names[i] = f.Name
		}
		return "StructType {" + strings.Join(names, ", ") + "}"
	case *ir.BuiltinType:
		return fmt.Sprintf("BuiltinType %s (%s)", n.Ident, n.Storage)
	case *ir.BuiltinFunction:
		return fmt.Sprintf("BuiltinFunction %s", n.Ident)
	case *ir.IdentExpr:
		return "Ident " + n.Ident.String()
	case *ir.Number:
		return fmt.Sprintf("Number %g", n.Value)
	case *ir.Query:
		return "Query " + n.Entity
	case *ir.StructLit:
		names := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			names[i] = f.Name
		}
		return fmt.Sprintf("Struct %s {%s}", n.Ident, strings.Join(names, ", "))
	case *ir.If:
		if n.HasElse {
			return "If else"
		}
		return "If"
	}
	name := fmt.Sprintf("%T", n)
	return name[strings.LastIndex(name, ".")+1:]
}

// Children lists the direct children of n in evaluation order.
func Children(n ir.Node) []ir.Idx {
	switch n := n.(type) {
	case *ir.System:
		return []ir.Idx{n.Body}
	case *ir.Component:
		return []ir.Idx{n.Type}
	case *ir.Resource:
		return []ir.Idx{n.Type}
	case *ir.StructType:
		out := make([]ir.Idx, len(n.Fields))
		for i, f := range n.Fields {
			out[i] = f.Type
		}
		return out
	case *ir.Block:
		return n.Exprs
	case *ir.ComponentAccess:
		return []ir.Idx{n.Entity, n.Component}
	case *ir.ResourceAccess:
		return []ir.Idx{n.Resource}
	case *ir.MemberAccess:
		return []ir.Idx{n.Base, n.Member}
	case *ir.Assign:
		return []ir.Idx{n.LValue, n.Expr}
	case *ir.Call:
		return append([]ir.Idx{n.Function}, n.Args...)
	case *ir.Query:
		return []ir.Idx{n.Body}
	case *ir.Let:
		return []ir.Idx{n.LValue, n.Expr}
	case *ir.Del:
		return []ir.Idx{n.Expr}
	case *ir.If:
		if n.HasElse {
			return []ir.Idx{n.Cond, n.Then, n.Else}
		}
		return []ir.Idx{n.Cond, n.Then}
	case *ir.While:
		return []ir.Idx{n.Cond, n.Body}
	case *ir.StructLit:
		out := make([]ir.Idx, len(n.Fields))
		for i, f := range n.Fields {
			out[i] = f.Value
		}
		return out
	}
	return nil
}
