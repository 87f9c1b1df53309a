package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/schedule"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/vm"
)

func newRunCommand(g *globals) *cobra.Command {
	var flags struct {
		world      string
		system     string
		ticks      int
		timeout    time.Duration
		printWorld bool
		parallel   int
	}
	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Run systems against a world",
		Long: `Compiles the files and runs one system, or every system in planned
stages, against a store populated from the world file. A system is named
module::name; a bare name refers to the first file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ticks < 1 {
				return errors.Errorf("--ticks must be at least 1, got %d", flags.ticks)
			}
			out := cmd.OutOrStdout()

			w, err := readWorld(flags.world)
			if err != nil {
				return err
			}
			host, err := w.Builtins()
			if err != nil {
				return err
			}
			p, err := g.compile(args, host, out, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st := store.NewMemStore(p.builtins)
			if err := w.Populate(st, p.typeOf); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			if flags.timeout > 0 {
				var cancelTimeout context.CancelFunc
				ctx, cancelTimeout = context.WithTimeout(ctx, flags.timeout)
				defer cancelTimeout()
			}

			metrics := vm.NewMetrics()
			reg := prometheus.NewRegistry()
			reg.MustRegister(metrics.PrometheusCollectors()...)
			m := vm.New(p.ix, st, vm.WithLogger(g.log), vm.WithMetrics(metrics))

			tick := p.planned(g.log, m, flags.parallel)
			if flags.system != "" {
				path, name := splitSystem(flags.system, p.paths[0])
				tick = func(ctx context.Context) error { return m.Run(ctx, path, name) }
			}
			for i := 0; i < flags.ticks; i++ {
				if err := tick(ctx); err != nil {
					return errors.Wrapf(err, "tick %d", i)
				}
			}

			if flags.printWorld {
				writeStore(out, st)
			}
			logMetrics(g.log, reg)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.world, "world", "", "TOML file declaring host types, entities and resources")
	cmd.Flags().StringVarP(&flags.system, "system", "s", "", "run only this system")
	cmd.Flags().IntVar(&flags.ticks, "ticks", 1, "number of times to run")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "stop after this long")
	cmd.Flags().BoolVar(&flags.printWorld, "print-world", false, "print the store after running")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "maximum systems of a stage to run at once (0 for no limit)")
	return cmd
}

// planned runs every system in scheduled stages.
func (p *program) planned(log *zap.Logger, m *vm.Machine, parallel int) func(context.Context) error {
	plan := schedule.ForIndex(p.ix)
	runner := schedule.NewRunner(log, schedule.WithConcurrency(parallel))
	return func(ctx context.Context) error {
		return runner.Run(ctx, plan, func(ctx context.Context, sys compiler.SystemRef) error {
			return m.RunSystem(ctx, sys.Index)
		})
	}
}

func splitSystem(s, defaultPath string) (path, name string) {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i], s[i+2:]
	}
	return defaultPath, s
}

// typeOf finds the type of a host type or script item by its store name.
func (p *program) typeOf(name string) (types.Type, bool) {
	for _, t := range p.builtins.Types {
		if t.Name == name && t.Storage != ir.StorageNone {
			return t.Type, true
		}
	}
	i := strings.LastIndex(name, "::")
	if i < 0 {
		return nil, false
	}
	m, ok := p.ix.Modules().Lookup(name[:i])
	if !ok {
		return nil, false
	}
	for _, item := range m.TopLevelNames() {
		if item.Ident.Name != name[i+2:] {
			continue
		}
		switch m.Node(item.Index).(type) {
		case *ir.Component, *ir.Resource:
			t, ok := p.ix.Cache().Type(m.Global(item.Index))
			if !ok || t.IsPoison() {
				return nil, false
			}
			return t.Type, true
		}
	}
	return nil, false
}

func logMetrics(log *zap.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		log.Warn("Gathering metrics failed", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName())}
			for _, l := range metric.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			if c := metric.GetCounter(); c != nil {
				fields = append(fields, zap.Float64("value", c.GetValue()))
			}
			if h := metric.GetHistogram(); h != nil {
				fields = append(fields, zap.Uint64("count", h.GetSampleCount()), zap.Float64("sum", h.GetSampleSum()))
			}
			log.Info("Run metrics", fields...)
		}
	}
}
