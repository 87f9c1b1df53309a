package compiler_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/stdlib"
)

func newIndex(t *testing.T, src string) *compiler.Index {
	t.Helper()
	ix := compiler.New(compiler.WithLogger(zaptest.NewLogger(t)))
	_, err := ix.AddBuiltins(stdlib.Path, stdlib.Builtins(&bytes.Buffer{}))
	require.NoError(t, err)
	_, err = ix.AddModule("main", src)
	require.NoError(t, err)
	ix.Compile()
	return ix
}

func TestCompileClean(t *testing.T) {
	ix := newIndex(t, "res Health: f32\nsys s { let [Health] = 5; [Health] = 123; }")
	require.NoError(t, ix.Err())
	assert.False(t, ix.HasErrors())
	assert.True(t, ix.Compiled())

	g, err := ix.System("main", "s")
	require.NoError(t, err)
	assert.Len(t, ix.Access(g), 2)

	_, err = ix.System("main", "missing")
	assert.True(t, errors.Is(err, compiler.ErrUnknownSystem))
	_, err = ix.System("other", "s")
	assert.True(t, errors.Is(err, compiler.ErrUnknownModule))
}

func TestCompileIsFromScratch(t *testing.T) {
	ix := newIndex(t, "sys s { }")
	first := ix.Generation()
	cache := ix.Cache()

	_, err := ix.AddModule("extra", "sys t { }")
	require.NoError(t, err)
	assert.False(t, ix.Compiled())
	assert.True(t, errors.Is(ix.Err(), compiler.ErrNotCompiled))

	ix.Compile()
	assert.NotEqual(t, first, ix.Generation())
	assert.NotSame(t, cache, ix.Cache())
	assert.Len(t, ix.Systems(), 2)
}

func TestDiagnosticsFromEveryStage(t *testing.T) {
	src := strings.Join([]string{
		"sys a { 1 + ; }",                // parser
		"sys b { query { } }",            // lowering
		"sys c { y; }",                   // names
		"sys d { let x = 1 + (1 < 2); }", // types
	}, "\n")
	ix := newIndex(t, src)
	require.True(t, ix.HasErrors())
	require.Error(t, ix.Err())

	stages := map[diag.Stage]bool{}
	for _, d := range ix.Diagnostics() {
		stages[d.Stage] = true
	}
	for _, s := range []diag.Stage{diag.StageParser, diag.StageLower, diag.StageNames, diag.StageTypes} {
		assert.True(t, stages[s], "missing %s diagnostic", s)
	}

	var out bytes.Buffer
	f := ix.Formatter(&out)
	f.SetColor(false)
	f.FormatAll(ix.Diagnostics())
	assert.Contains(t, out.String(), "main:4:")
}

func TestSystemsListing(t *testing.T) {
	ix := newIndex(t, "sys first { }\nsys { }")
	systems := ix.Systems()
	require.Len(t, systems, 2)
	assert.Equal(t, "main::first", systems[0].String())
	assert.Contains(t, systems[1].String(), "main::<anonymous")
}

func TestCompileLogsWithClock(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mock := clock.NewMock()
	mock.Add(time.Hour)

	ix := compiler.New(compiler.WithLogger(zap.New(core)), compiler.WithClock(mock))
	_, err := ix.AddModule("main", "sys s { }")
	require.NoError(t, err)
	ix.Compile()

	entries := logs.FilterMessage("Compiled modules").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["modules"])
	assert.Equal(t, time.Duration(0), fields["elapsed"])
	assert.Equal(t, ix.Generation().String(), fields["generation"])
}
