// Package compiler registers modules and runs every pass over them.
// Compilation is always from scratch: each Compile builds a new cache.
package compiler

import (
	"io"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/lower"
	"github.com/stork-lang/stork/internal/passes/effectres"
	"github.com/stork-lang/stork/internal/passes/nameres"
	"github.com/stork-lang/stork/internal/passes/typeres"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/types"
)

var (
	ErrUnknownModule = errors.New("unknown module")
	ErrUnknownSystem = errors.New("unknown system")
	ErrNotCompiled   = errors.New("modules changed since the last compile")
)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used to report compilation progress.
func WithLogger(log *zap.Logger) Option {
	return func(ix *Index) { ix.log = log }
}

// WithClock sets the clock used to time compilation.
func WithClock(c clock.Clock) Option {
	return func(ix *Index) { ix.clock = c }
}

// Index owns the registered modules and the result of the last compile.
type Index struct {
	log      *zap.Logger
	clock    clock.Clock
	mods     *ir.Collection
	cache    *cache.Cache
	gen      uuid.UUID
	compiled bool
}

func New(opts ...Option) *Index {
	ix := &Index{
		log:   zap.NewNop(),
		clock: clock.New(),
		mods:  ir.NewCollection(),
		cache: cache.New(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// AddModule lexes, parses and lowers src and registers it under path.
func (ix *Index) AddModule(path, src string) (ir.ModuleID, error) {
	id, err := ix.mods.Add(path, func(id ir.ModuleID) *ir.Module {
		return lower.Source(id, path, src)
	})
	if err != nil {
		return 0, err
	}
	ix.compiled = false
	ix.log.Debug("Added module", zap.String("path", path), zap.Int("nodes", ix.mods.Module(id).Len()))
	return id, nil
}

// AddBuiltins registers host functions and types as a prelude module,
// visible from every module without `use`.
func (ix *Index) AddBuiltins(path string, b store.Builtins) (ir.ModuleID, error) {
	id, err := ix.mods.Add(path, func(id ir.ModuleID) *ir.Module {
		m := ir.NewModule(id, path, "")
		m.Prelude = true
		for _, t := range b.Types {
			m.AllocTopLevel(&ir.BuiltinType{Ident: ir.Name(t.Name), Type: types.Of(t.Type), Storage: t.Storage}, ir.Span{})
		}
		for _, f := range b.Functions {
			fn := &types.Function{Params: f.Params, Return: f.Return}
			m.AllocTopLevel(&ir.BuiltinFunction{Ident: f.Ident, Type: fn, Fn: f.Fn}, ir.Span{})
		}
		return m
	})
	if err != nil {
		return 0, err
	}
	ix.compiled = false
	return id, nil
}

// Compile runs name, type and effect resolution over every module.
func (ix *Index) Compile() {
	start := ix.clock.Now()
	ix.cache = cache.New()
	ix.gen = uuid.New()

	mods := ix.mods.Modules()
	for _, m := range mods {
		nameres.Run(ix.cache, ix.mods, m.ID)
	}
	for _, m := range mods {
		typeres.Run(ix.cache, ix.mods, m.ID)
	}
	for _, m := range mods {
		effectres.Run(ix.cache, ix.mods, m.ID)
	}
	ix.compiled = true

	ix.log.Info("Compiled modules",
		zap.Int("modules", len(mods)),
		zap.Int("diagnostics", len(ix.Diagnostics())),
		zap.Stringer("generation", ix.gen),
		zap.Duration("elapsed", ix.clock.Since(start)),
	)
}

// Compiled reports whether Compile ran after the last module was added.
func (ix *Index) Compiled() bool { return ix.compiled }

// Generation identifies the last compile.
func (ix *Index) Generation() uuid.UUID { return ix.gen }

func (ix *Index) Modules() *ir.Collection { return ix.mods }

func (ix *Index) Cache() *cache.Cache { return ix.cache }

// Diagnostics returns every diagnostic of every module, sorted by location.
func (ix *Index) Diagnostics() diag.List {
	var out diag.List
	for _, m := range ix.mods.Modules() {
		out = append(out, m.Diagnostics...)
		out = append(out, ix.cache.Diagnostics(m.ID)...)
	}
	return out.Sorted()
}

func (ix *Index) HasErrors() bool { return ix.Diagnostics().HasErrors() }

// Err returns nil when compilation succeeded, and the diagnostics otherwise.
func (ix *Index) Err() error {
	if !ix.compiled {
		return ErrNotCompiled
	}
	return ix.Diagnostics().Err()
}

// Formatter prints diagnostics against the registered sources.
func (ix *Index) Formatter(w io.Writer) *diag.Formatter {
	return diag.NewFormatter(w, ix.mods.Source)
}

// System finds the system called name in module path.
func (ix *Index) System(path, name string) (ir.GlobalIdx, error) {
	m, ok := ix.mods.Lookup(path)
	if !ok {
		return ir.NoGlobalIdx, errors.Wrapf(ErrUnknownModule, "%q", path)
	}
	for _, idx := range m.Systems() {
		if m.Node(idx).(*ir.System).Name == name {
			return m.Global(idx), nil
		}
	}
	return ir.NoGlobalIdx, errors.Wrapf(ErrUnknownSystem, "%s::%s", path, name)
}

// SystemRef names a system of some module.
type SystemRef struct {
	Path  string
	Name  string
	Index ir.GlobalIdx
}

func (s SystemRef) String() string {
	if s.Name == "" {
		return s.Path + "::<anonymous " + s.Index.String() + ">"
	}
	return s.Path + "::" + s.Name
}

// Systems lists every system in registration order.
func (ix *Index) Systems() []SystemRef {
	var out []SystemRef
	for _, m := range ix.mods.Modules() {
		for _, idx := range m.Systems() {
			out = append(out, SystemRef{Path: m.Path, Name: m.Node(idx).(*ir.System).Name, Index: m.Global(idx)})
		}
	}
	return out
}

// Access returns the access set of a resolved node, such as a system.
func (ix *Index) Access(g ir.GlobalIdx) access.Set {
	return ix.cache.Effect(g)
}

// QualifiedName is the store name of a script component or resource.
func QualifiedName(path, name string) string {
	return path + "::" + name
}
