package nameres

import "github.com/stork-lang/stork/internal/ir"

// Scope represents a lexical scope mapping identifiers to definitions.
type Scope struct {
	Parent  *Scope
	Symbols map[ir.Identifier]ir.GlobalIdx
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		Parent:  parent,
		Symbols: make(map[ir.Identifier]ir.GlobalIdx),
	}
}

// Insert adds a definition to the current scope, shadowing outer ones.
func (s *Scope) Insert(id ir.Identifier, def ir.GlobalIdx) {
	s.Symbols[id] = def
}

// Lookup finds a definition in the current scope or any parent scope.
func (s *Scope) Lookup(id ir.Identifier) (ir.GlobalIdx, bool) {
	if def, ok := s.Symbols[id]; ok {
		return def, true
	}
	if s.Parent != nil {
		return s.Parent.Lookup(id)
	}
	return ir.NoGlobalIdx, false
}
