package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainSource = `
res Ticks: f32
comp Pos: { x: f32, y: f32 }

sys advance {
	query e {
		e[Pos].x = e[Pos].x + e[Velocity].dx;
	}
}

sys count {
	[Ticks] = [Ticks] + 1;
}
`

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunPlannedTicks(t *testing.T) {
	src := writeTemp(t, "main.stork", mainSource)
	world := writeTemp(t, "world.toml", worldTOML)

	stdout, stderr, err := execute(t, "run", src, "--world", world, "--ticks", "2", "--print-world")
	require.NoError(t, err, stderr)
	assert.Equal(t, ""+
		"entity 0: Velocity = {dx: 0.5, dy: 2}, main::Pos = {x: 2, y: 0}\n"+
		"entity 1: main::Pos = {x: 5, y: 5}\n"+
		"resource Gravity = 9.8\n"+
		"resource main::Ticks = 2\n", stdout)
}

func TestRunOneSystem(t *testing.T) {
	src := writeTemp(t, "main.stork", mainSource)
	world := writeTemp(t, "world.toml", worldTOML)

	stdout, stderr, err := execute(t, "run", src, "--world", world, "--system", "main::count", "--print-world")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "main::Pos = {x: 1, y: 0}")
	assert.Contains(t, stdout, "resource main::Ticks = 1\n")

	_, _, err = execute(t, "run", src, "--world", world, "--system", "missing")
	assert.Error(t, err)
}

func TestRunPrints(t *testing.T) {
	src := writeTemp(t, "hello.stork", "sys hello { print(1 + 2); }")
	stdout, stderr, err := execute(t, "run", src)
	require.NoError(t, err, stderr)
	assert.Equal(t, "3\n", stdout)
}

func TestPlan(t *testing.T) {
	src := writeTemp(t, "main.stork", mainSource)
	world := writeTemp(t, "world.toml", worldTOML)

	stdout, stderr, err := execute(t, "plan", src, "--world", world)
	require.NoError(t, err, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3, stdout)
	assert.Equal(t, "stage 0", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  main::advance {"), lines[1])
	assert.Contains(t, lines[1], "W-comp(main::Pos)")
	assert.Contains(t, lines[1], "R-comp(Velocity)")
	assert.Equal(t, "  main::count {R-res(main::Ticks), W-res(main::Ticks)}", lines[2])
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.stork"), []byte("res Score: f32\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.stork"), []byte("use a\nsys bump { [Score] = [Score] + 1; }\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a script"), 0o600))

	stdout, stderr, err := execute(t, "check", dir)
	require.NoError(t, err, stderr)
	assert.Equal(t, "ok: 2 modules, 1 systems\n", stdout)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.stork"), []byte("sys broken { [Nope] = 1; }\n"), 0o600))
	_, stderr, err = execute(t, "check", "--color", "never", dir)
	assert.ErrorIs(t, err, errCompile)
	assert.Contains(t, stderr, "error[NAME_UNRESOLVED]")
}

func TestDump(t *testing.T) {
	src := writeTemp(t, "main.stork", "res R: f32\nsys s { [R] = 1; }")

	stdout, stderr, err := execute(t, "dump", src)
	require.NoError(t, err, stderr)
	assert.True(t, strings.HasPrefix(stdout, "module main (#1)\n"), stdout)
	assert.Contains(t, stdout, "Resource R : f32 (stored)")

	stdout, _, err = execute(t, "dump", "--cst", src)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "module main")
	assert.Contains(t, stdout, `"sys"`)
}

func TestConfigFile(t *testing.T) {
	cfg := writeTemp(t, "stork.toml", "log-level = \"debug\"\nlog-format = \"json\"\n")
	src := writeTemp(t, "hello.stork", "sys hello { print(1); }")
	_, stderr, err := execute(t, "--config", cfg, "run", src)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"Compiled modules"`)
	assert.Contains(t, stderr, `"msg":"Running system"`)
}
