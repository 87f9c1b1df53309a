package ir

import (
	"github.com/pkg/errors"

	"github.com/stork-lang/stork/internal/diag"
)

var ErrDuplicateModule = errors.New("module already registered")

// Collection owns every module of a program, keyed by path.
type Collection struct {
	paths   map[string]ModuleID
	modules []*Module
}

func NewCollection() *Collection {
	return &Collection{paths: make(map[string]ModuleID)}
}

// Add registers the module produced by build under path.
func (c *Collection) Add(path string, build func(id ModuleID) *Module) (ModuleID, error) {
	if _, ok := c.paths[path]; ok {
		return 0, errors.Wrapf(ErrDuplicateModule, "%q", path)
	}
	id := ModuleID(len(c.modules))
	m := build(id)
	m.ID = id
	m.Path = path
	c.modules = append(c.modules, m)
	c.paths[path] = id
	return id, nil
}

// Lookup finds a module by path.
func (c *Collection) Lookup(path string) (*Module, bool) {
	id, ok := c.paths[path]
	if !ok {
		return nil, false
	}
	return c.modules[id], true
}

func (c *Collection) Module(id ModuleID) *Module { return c.modules[id] }

// Modules returns modules in registration order.
func (c *Collection) Modules() []*Module { return c.modules }

// Node returns the node g points to.
func (c *Collection) Node(g GlobalIdx) Node {
	return c.modules[g.Module].Node(g.Index)
}

// DiagSpan returns the diagnostic location of g.
func (c *Collection) DiagSpan(g GlobalIdx) diag.Span {
	return c.modules[g.Module].DiagSpan(g.Index)
}

// Source returns a module's text by path, for diag.Formatter.
func (c *Collection) Source(path string) (string, bool) {
	m, ok := c.Lookup(path)
	if !ok || m.Source == "" {
		return "", false
	}
	return m.Source, true
}
