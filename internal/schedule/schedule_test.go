package schedule_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/schedule"
	"github.com/stork-lang/stork/internal/stdlib"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/value"
	"github.com/stork-lang/stork/internal/vm"
)

const program = `
comp A: f32
comp B: f32
res Total: f32
sys write_a { query e { e[A] = 1; } }
sys write_b { query e { e[B] = 2; } }
sys read_a { query e { print(e[A]); } }
sys read_b { query e { print(e[B]); } }
sys insert { query e { let e[A] = 3; } }
sys total { let [Total] = 0; query e { [Total] += e[A]; } }
`

func compile(t *testing.T, src string) (*compiler.Index, store.Builtins) {
	t.Helper()
	b := stdlib.Builtins(&bytes.Buffer{})
	ix := compiler.New(compiler.WithLogger(zaptest.NewLogger(t)))
	_, err := ix.AddBuiltins(stdlib.Path, b)
	require.NoError(t, err)
	_, err = ix.AddModule("main", src)
	require.NoError(t, err)
	ix.Compile()
	require.NoError(t, ix.Err())
	return ix, b
}

func names(plan schedule.Plan) [][]string {
	var out [][]string
	for _, stage := range plan.Stages {
		var s []string
		for _, sys := range stage {
			s = append(s, sys.Name)
		}
		out = append(out, s)
	}
	return out
}

func TestPlan(t *testing.T) {
	ix, _ := compile(t, program)
	plan := schedule.ForIndex(ix)

	want := [][]string{
		{"write_a", "write_b"},
		{"read_a", "read_b"},
		{"insert"},
		{"total"},
	}
	if diff := cmp.Diff(want, names(plan)); diff != "" {
		t.Fatalf("unexpected stages (-want +got):\n%s", diff)
	}
	assert.Equal(t, "[main::write_a, main::write_b]", plan.Stages[0].String())
}

func TestExclusiveSystemsRunAlone(t *testing.T) {
	ix, _ := compile(t, "comp A: f32\nsys a { query e { e[A] = 1; } }\nsys b { query e { e[A]; } }")
	systems := ix.Systems()

	plan := schedule.New(systems, func(s compiler.SystemRef) access.Set {
		if s.Name == "a" {
			return access.NewSet(access.ExclusiveEffect)
		}
		return access.NewSet(access.Resource(access.ReadResource, s.Index))
	})
	assert.Equal(t, [][]string{{"a"}, {"b"}}, names(plan))
}

func TestEntityFromResourceConflicts(t *testing.T) {
	ix, _ := compile(t, `
res Target: Entity
comp H: f32
sys hit { [Target][H] = 1; }
sys retarget { query e { [Target] = e; } }
`)
	assert.Equal(t, [][]string{{"hit"}, {"retarget"}}, names(schedule.ForIndex(ix)))
}

func TestRunCollectsFailures(t *testing.T) {
	ix, _ := compile(t, program)
	plan := schedule.ForIndex(ix)

	var (
		mu  sync.Mutex
		ran []string
	)
	err := schedule.NewRunner(zaptest.NewLogger(t)).Run(context.Background(), plan, func(_ context.Context, sys compiler.SystemRef) error {
		mu.Lock()
		ran = append(ran, sys.Name)
		mu.Unlock()
		if sys.Name == "read_a" || sys.Name == "read_b" {
			return errors.New("boom")
		}
		return nil
	})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.ElementsMatch(t, []string{"write_a", "write_b", "read_a", "read_b"}, ran)
}

func TestRunWithMachine(t *testing.T) {
	ix, b := compile(t, program)
	st := store.NewMemStore(b)
	a := st.RegisterComponent(compiler.QualifiedName("main", "A"))
	bc := st.RegisterComponent(compiler.QualifiedName("main", "B"))
	for i := 0; i < 4; i++ {
		st.Spawn(map[store.ComponentID]value.Value{a: value.Number(0), bc: value.Number(0)})
	}

	m := vm.New(ix, st, vm.WithLogger(zaptest.NewLogger(t)))
	err := schedule.NewRunner(zaptest.NewLogger(t)).Run(context.Background(), schedule.ForIndex(ix), func(ctx context.Context, sys compiler.SystemRef) error {
		return m.RunSystem(ctx, sys.Index)
	})
	require.NoError(t, err)

	total, ok := st.LookupResource(compiler.QualifiedName("main", "Total"))
	require.True(t, ok)
	got, ok := st.Resource(total)
	require.True(t, ok)
	assert.True(t, got.Equal(value.Number(12)), "total = %s", got)
}

func TestRunStopsWhenCanceled(t *testing.T) {
	ix, _ := compile(t, program)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := schedule.NewRunner(nil).Run(ctx, schedule.ForIndex(ix), func(context.Context, compiler.SystemRef) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestRunLimitsConcurrency(t *testing.T) {
	ix, _ := compile(t, program)
	plan := schedule.New(ix.Systems(), func(compiler.SystemRef) access.Set { return access.NewSet() })
	require.Len(t, plan.Stages, 1)

	var (
		mu            sync.Mutex
		running, peak int
		ran           int
	)
	runner := schedule.NewRunner(zaptest.NewLogger(t), schedule.WithConcurrency(2))
	err := runner.Run(context.Background(), plan, func(context.Context, compiler.SystemRef) error {
		mu.Lock()
		running++
		ran++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(ix.Systems()), ran)
	assert.LessOrEqual(t, peak, 2)
}
