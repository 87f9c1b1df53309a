// Package cache holds everything derived from the IR during one compilation.
// A Cache is created fresh by every compile and passed explicitly to each
// pass; nothing in it survives into the next compilation.
package cache

import (
	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/types"
)

// Status tracks type resolution of one node.
type Status uint8

const (
	Unvisited Status = iota
	InProgress
	Done
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Done:
		return "done"
	default:
		return "unvisited"
	}
}

// Cache is keyed by GlobalIdx; errors are keyed by module.
type Cache struct {
	// Names maps a referencing node to its definition. A missing entry means
	// the name did not resolve and has already been reported.
	Names   map[ir.GlobalIdx]ir.GlobalIdx
	Types   map[ir.GlobalIdx]types.Resolved
	Status  map[ir.GlobalIdx]Status
	Effects map[ir.GlobalIdx]access.Set
	Errors  map[ir.ModuleID]diag.List
}

func New() *Cache {
	return &Cache{
		Names:   make(map[ir.GlobalIdx]ir.GlobalIdx),
		Types:   make(map[ir.GlobalIdx]types.Resolved),
		Status:  make(map[ir.GlobalIdx]Status),
		Effects: make(map[ir.GlobalIdx]access.Set),
		Errors:  make(map[ir.ModuleID]diag.List),
	}
}

// Definition returns what g refers to.
func (c *Cache) Definition(g ir.GlobalIdx) (ir.GlobalIdx, bool) {
	def, ok := c.Names[g]
	return def, ok
}

// Type returns the resolved type of g once resolution has finished.
func (c *Cache) Type(g ir.GlobalIdx) (types.Resolved, bool) {
	if c.Status[g] != Done {
		return types.Resolved{}, false
	}
	t, ok := c.Types[g]
	return t, ok
}

// SetType records the final type of g.
func (c *Cache) SetType(g ir.GlobalIdx, t types.Resolved) {
	c.Types[g] = t
	c.Status[g] = Done
}

// Effect returns the access set recorded for g.
func (c *Cache) Effect(g ir.GlobalIdx) access.Set {
	if s, ok := c.Effects[g]; ok {
		return s
	}
	return access.NewSet()
}

// Report records a diagnostic against module m.
func (c *Cache) Report(m ir.ModuleID, d diag.Diagnostic) {
	c.Errors[m] = append(c.Errors[m], d)
}

// Diagnostics returns the pass diagnostics for module m.
func (c *Cache) Diagnostics(m ir.ModuleID) diag.List {
	return c.Errors[m]
}
