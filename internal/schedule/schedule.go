// Package schedule groups systems into stages that may run in parallel,
// using nothing but their access sets.
package schedule

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/compiler"
)

// Stage is a set of systems whose access sets do not conflict.
type Stage []compiler.SystemRef

func (s Stage) String() string {
	names := make([]string, len(s))
	for i, sys := range s {
		names[i] = sys.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Plan is an ordered list of stages.
type Plan struct {
	Stages []Stage
}

// New packs systems into stages. A system goes into the first stage after
// every stage holding a system it conflicts with, so conflicting systems
// keep their relative order.
func New(systems []compiler.SystemRef, accessOf func(compiler.SystemRef) access.Set) Plan {
	var (
		plan Plan
		sets [][]access.Set
	)
	for _, sys := range systems {
		set := accessOf(sys)
		at := 0
		for i := len(plan.Stages) - 1; i >= 0; i-- {
			if conflictsAny(set, sets[i]) {
				at = i + 1
				break
			}
		}
		if at == len(plan.Stages) {
			plan.Stages = append(plan.Stages, nil)
			sets = append(sets, nil)
		}
		plan.Stages[at] = append(plan.Stages[at], sys)
		sets[at] = append(sets[at], set)
	}
	return plan
}

// ForIndex plans every system of a compiled index.
func ForIndex(ix *compiler.Index) Plan {
	return New(ix.Systems(), func(s compiler.SystemRef) access.Set { return ix.Access(s.Index) })
}

func conflictsAny(set access.Set, others []access.Set) bool {
	for _, o := range others {
		if access.Conflicts(set, o) {
			return true
		}
	}
	return false
}

// RunFunc runs one system.
type RunFunc func(ctx context.Context, sys compiler.SystemRef) error

// Runner executes plans.
type Runner struct {
	log   *zap.Logger
	limit int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency caps how many systems of a stage run at once. Zero or
// less means no cap.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.limit = n }
}

func NewRunner(log *zap.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the stages in order, running the systems of a stage
// concurrently. Every system of a failing stage runs to completion; later
// stages are skipped. All failures are returned together.
func (r *Runner) Run(ctx context.Context, plan Plan, run RunFunc) error {
	for i, stage := range plan.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.Debug("Running stage", zap.Int("stage", i), zap.Stringer("systems", stage))

		var (
			g    errgroup.Group
			mu   sync.Mutex
			errs *multierror.Error
		)
		if r.limit > 0 {
			g.SetLimit(r.limit)
		}
		for _, sys := range stage {
			sys := sys
			// Failures are collected in errs; one failing system does not
			// cancel the rest of its stage.
			g.Go(func() error {
				if err := run(ctx, sys); err != nil {
					mu.Lock()
					errs = multierror.Append(errs, errors.Wrapf(err, "system %s", sys))
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := errs.ErrorOrNil(); err != nil {
			r.log.Info("Stage failed", zap.Int("stage", i), zap.Error(err))
			return err
		}
	}
	return nil
}
