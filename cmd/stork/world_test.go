package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/value"
)

const worldTOML = `
[[type]]
name = "Velocity"
storage = "component"
  [[type.field]]
  name = "dx"
  [[type.field]]
  name = "dy"
  type = "f32"

[[type]]
name = "Gravity"
storage = "resource"
type = "f32"

[[entity]]
  [entity.components]
  Velocity = { dy = 2, dx = 0.5 }
  "main::Pos" = { x = 1, y = 0 }

[[entity]]
  [entity.components]
  "main::Pos" = { x = 5.0, y = 5.0 }

[resources]
Gravity = 9.8
"main::Ticks" = 0
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestWorldBuiltins(t *testing.T) {
	w, err := readWorld(writeTemp(t, "world.toml", worldTOML))
	require.NoError(t, err)
	b, err := w.Builtins()
	require.NoError(t, err)

	require.Len(t, b.Types, 2)
	assert.Equal(t, "Velocity", b.Types[0].Name)
	assert.Equal(t, ir.StorageComponent, b.Types[0].Storage)
	assert.Equal(t, "{dx: f32, dy: f32}", b.Types[0].Type.String())
	assert.Equal(t, ir.StorageResource, b.Types[1].Storage)
	assert.True(t, types.Equal(types.TypeNumber, b.Types[1].Type))
}

func TestWorldPopulate(t *testing.T) {
	w, err := readWorld(writeTemp(t, "world.toml", worldTOML))
	require.NoError(t, err)
	b, err := w.Builtins()
	require.NoError(t, err)

	pos := &types.Struct{Fields: []types.Field{{Name: "x", Type: types.TypeNumber}, {Name: "y", Type: types.TypeNumber}}}
	typeOf := func(name string) (types.Type, bool) {
		for _, t := range b.Types {
			if t.Name == name {
				return t.Type, true
			}
		}
		if name == "main::Pos" {
			return pos, true
		}
		return nil, false
	}

	st := store.NewMemStore(b)
	require.NoError(t, w.Populate(st, typeOf))
	require.Len(t, st.Entities(), 2)

	vel, _ := st.LookupComponent("Velocity")
	got, ok := st.Component(st.Entities()[0], vel)
	require.True(t, ok)
	want := value.Struct(
		value.Field{Name: "dx", Value: value.Number(0.5)},
		value.Field{Name: "dy", Value: value.Number(2)},
	)
	assert.True(t, want.Equal(got), "got %s", got)

	var out bytes.Buffer
	writeStore(&out, st)
	assert.Equal(t, ""+
		"entity 0: Velocity = {dx: 0.5, dy: 2}, main::Pos = {x: 1, y: 0}\n"+
		"entity 1: main::Pos = {x: 5, y: 5}\n"+
		"resource Gravity = 9.8\n"+
		"resource main::Ticks = 0\n", out.String())
}

func TestWorldErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		body string
	}{
		{"unknown key", "[[typ]]\nname = \"A\"\n"},
		{"unknown storage", "[[type]]\nname = \"A\"\nstorage = \"disk\"\n"},
		{"unknown field type", "[[type]]\nname = \"A\"\n[[type.field]]\nname = \"x\"\ntype = \"str\"\n"},
		{"duplicate type", "[[type]]\nname = \"A\"\n[[type]]\nname = \"A\"\n"},
		{"missing field", "[[type]]\nname = \"A\"\nstorage = \"component\"\n[[type.field]]\nname = \"x\"\n[[entity]]\n[entity.components]\nA = {}\n"},
		{"extra field", "[[type]]\nname = \"A\"\nstorage = \"component\"\n[[type.field]]\nname = \"x\"\n[[entity]]\n[entity.components]\nA = { x = 1, y = 2 }\n"},
		{"wrong kind", "[[type]]\nname = \"A\"\nstorage = \"resource\"\ntype = \"bool\"\n[resources]\nA = 1\n"},
		{"unsupported value", "[resources]\nName = \"text\"\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w, err := readWorld(writeTemp(t, "world.toml", tt.body))
			if err != nil {
				return
			}
			b, err := w.Builtins()
			if err != nil {
				return
			}
			typeOf := func(name string) (types.Type, bool) {
				for _, t := range b.Types {
					if t.Name == name {
						return t.Type, true
					}
				}
				return nil, false
			}
			if err := w.Populate(store.NewMemStore(b), typeOf); err == nil {
				t.Fatalf("expected an error for %q", tt.body)
			}
		})
	}
}

func TestEmptyWorld(t *testing.T) {
	w, err := readWorld("")
	require.NoError(t, err)
	b, err := w.Builtins()
	require.NoError(t, err)
	assert.Empty(t, b.Types)
}
