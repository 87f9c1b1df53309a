// Package vm runs compiled systems against a host store by walking their
// IR.
package vm

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/value"
)

var (
	// ErrCompilationFailed is returned when running a program that has
	// compile errors.
	ErrCompilationFailed = errors.New("program has compile errors")
	// ErrStaleProgram is returned when the index was recompiled after the
	// machine was created.
	ErrStaleProgram = errors.New("program was recompiled since the machine was created")
	// ErrMissingValue is returned when reading or updating a component or
	// resource that is not in the store.
	ErrMissingValue = errors.New("missing value")
	// ErrInternal marks a broken invariant of a program that compiled
	// without errors.
	ErrInternal = errors.New("internal error")
)

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// WithMetrics makes the machine record into metrics. Callers register the
// collectors themselves.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Machine) { m.metrics = metrics }
}

func WithClock(c clock.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// Machine runs the systems of one compilation against one store. It is
// safe for concurrent use; the caller is responsible for only running
// systems with disjoint access sets at the same time.
type Machine struct {
	log     *zap.Logger
	metrics *Metrics
	clock   clock.Clock

	ix    *compiler.Index
	store store.Store
	gen   uuid.UUID

	bindOnce   sync.Once
	components map[ir.GlobalIdx]store.ComponentID
	resources  map[ir.GlobalIdx]store.ResourceID

	mu      sync.Mutex
	queries map[ir.GlobalIdx]store.QueryState
}

// New creates a machine for the current compilation of ix.
func New(ix *compiler.Index, st store.Store, opts ...Option) *Machine {
	m := &Machine{
		log:        zap.NewNop(),
		metrics:    NewMetrics(),
		clock:      clock.New(),
		ix:         ix,
		store:      st,
		gen:        ix.Generation(),
		components: make(map[ir.GlobalIdx]store.ComponentID),
		resources:  make(map[ir.GlobalIdx]store.ResourceID),
		queries:    make(map[ir.GlobalIdx]store.QueryState),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run runs the system called name in module path.
func (m *Machine) Run(ctx context.Context, path, name string) error {
	g, err := m.ix.System(path, name)
	if err != nil {
		return err
	}
	return m.RunSystem(ctx, g)
}

// RunSystem runs the system at g.
func (m *Machine) RunSystem(ctx context.Context, g ir.GlobalIdx) (err error) {
	label := m.systemLabel(g)
	log := m.log.With(zap.String("system", label))
	start := m.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInternal, "%v", r)
		}
		m.metrics.RunDuration.WithLabelValues(label).Observe(m.clock.Since(start).Seconds())
		m.metrics.Runs.WithLabelValues(label, resultLabel(err)).Inc()
		if err != nil {
			log.Debug("System failed", zap.Error(err))
		}
	}()

	if err := m.check(); err != nil {
		return err
	}
	if _, ok := m.ix.Modules().Node(g).(*ir.System); !ok {
		return errors.Wrapf(compiler.ErrUnknownSystem, "%s is not a system", g)
	}
	m.bindOnce.Do(m.bind)

	log.Debug("Running system")
	f := &frame{
		ctx:    ctx,
		m:      m,
		mods:   m.ix.Modules(),
		c:      m.ix.Cache(),
		vars:   make(map[ir.GlobalIdx]value.Value),
		system: label,
	}
	_, err = f.eval(g)
	return err
}

func (m *Machine) check() error {
	if !m.ix.Compiled() || m.ix.Generation() != m.gen {
		return ErrStaleProgram
	}
	if diags := m.ix.Diagnostics(); diags.HasErrors() {
		return errors.Wrapf(ErrCompilationFailed, "%d errors", len(diags))
	}
	return nil
}

// bind registers every component and resource of the program with the
// store. Script items are registered under their qualified name, host
// types under their own.
func (m *Machine) bind() {
	for _, mod := range m.ix.Modules().Modules() {
		for _, idx := range mod.TopLevel {
			g := mod.Global(idx)
			switch n := mod.Node(idx).(type) {
			case *ir.Component:
				m.components[g] = m.store.RegisterComponent(compiler.QualifiedName(mod.Path, n.Name))
			case *ir.Resource:
				m.resources[g] = m.store.RegisterResource(compiler.QualifiedName(mod.Path, n.Name))
			case *ir.BuiltinType:
				switch n.Storage {
				case ir.StorageComponent:
					m.components[g] = m.store.RegisterComponent(n.Ident.Name)
				case ir.StorageResource:
					m.resources[g] = m.store.RegisterResource(n.Ident.Name)
				}
			}
		}
	}
	m.log.Debug("Bound program to store",
		zap.Int("components", len(m.components)),
		zap.Int("resources", len(m.resources)),
	)
}

// query returns the cached query state of the query node g.
func (m *Machine) query(g ir.GlobalIdx) (store.QueryState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queries[g]; ok {
		return q, nil
	}

	targets := m.ix.Access(g).Filter(g)
	filter := make(store.Filter, 0, len(targets))
	for _, t := range targets {
		c, ok := m.components[t]
		if !ok {
			return nil, errors.Wrapf(ErrInternal, "query %s filters on unbound component %s", g, t)
		}
		filter = append(filter, c)
	}
	q := m.store.Query(filter)
	m.queries[g] = q
	return q, nil
}

func (m *Machine) systemLabel(g ir.GlobalIdx) string {
	for _, s := range m.ix.Systems() {
		if s.Index == g {
			return s.String()
		}
	}
	return g.String()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return LabelSuccess
	case errors.Is(err, ErrCompilationFailed), errors.Is(err, ErrStaleProgram):
		return LabelCompileError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return LabelCanceled
	case errors.Is(err, ErrInternal):
		return LabelInternalError
	default:
		return LabelRuntimeError
	}
}
