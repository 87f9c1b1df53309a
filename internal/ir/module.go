package ir

import (
	"github.com/stork-lang/stork/internal/diag"
)

// Module is one lowered source file or builtin set.
type Module struct {
	ID     ModuleID
	Path   string
	Source string
	// Prelude modules are visible from every module without `use`.
	Prelude bool

	nodes    []Node
	spans    []Span
	TopLevel []Idx

	// Diagnostics holds lexer, parser and lowering diagnostics.
	Diagnostics diag.List
}

// NewModule creates an empty module.
func NewModule(id ModuleID, path, source string) *Module {
	return &Module{ID: id, Path: path, Source: source}
}

// Alloc appends n to the arena.
func (m *Module) Alloc(n Node, span Span) Idx {
	m.nodes = append(m.nodes, n)
	m.spans = append(m.spans, span)
	return Idx(len(m.nodes) - 1)
}

// AllocTopLevel allocates n and records it as an item.
func (m *Module) AllocTopLevel(n Node, span Span) Idx {
	idx := m.Alloc(n, span)
	m.TopLevel = append(m.TopLevel, idx)
	return idx
}

func (m *Module) Len() int { return len(m.nodes) }

func (m *Module) Node(i Idx) Node { return m.nodes[i] }

func (m *Module) Span(i Idx) Span { return m.spans[i] }

func (m *Module) Global(i Idx) GlobalIdx { return GlobalIdx{Module: m.ID, Index: i} }

// DiagSpan converts a node span into a diagnostic location.
func (m *Module) DiagSpan(i Idx) diag.Span {
	s := m.spans[i]
	if m.Source == "" {
		return diag.Span{Filename: m.Path}
	}
	return diag.SpanAt(m.Path, m.Source, s.Start, s.End)
}

// NamedItem is a top-level declaration visible to other modules.
type NamedItem struct {
	Ident Identifier
	Index Idx
}

// TopLevelNames lists named items in declaration order: components,
// resources, builtins and named systems.
func (m *Module) TopLevelNames() []NamedItem {
	var out []NamedItem
	for _, idx := range m.TopLevel {
		if id, ok := ItemName(m.nodes[idx]); ok {
			out = append(out, NamedItem{Ident: id, Index: idx})
		}
	}
	return out
}

// ItemName returns the name an item declares, if any.
func ItemName(n Node) (Identifier, bool) {
	switch n := n.(type) {
	case *Component:
		return Name(n.Name), n.Name != ""
	case *Resource:
		return Name(n.Name), n.Name != ""
	case *System:
		return Name(n.Name), n.Name != ""
	case *BuiltinType:
		return n.Ident, true
	case *BuiltinFunction:
		return n.Ident, true
	default:
		return Identifier{}, false
	}
}

// Systems returns every system item.
func (m *Module) Systems() []Idx {
	var out []Idx
	for _, idx := range m.TopLevel {
		if _, ok := m.nodes[idx].(*System); ok {
			out = append(out, idx)
		}
	}
	return out
}
