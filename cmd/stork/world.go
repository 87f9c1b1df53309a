package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/value"
)

// world is the initial contents of a store, read from TOML:
//
//	[[type]]
//	name = "Transform"
//	storage = "component"
//	  [[type.field]]
//	  name = "x"
//	  type = "f32"
//
//	[[entity]]
//	  [entity.components]
//	  Transform = { x = 1.0, y = 2.0, z = 3.0 }
//
//	[resources]
//	"main::Score" = 0
type world struct {
	Types     []worldType    `toml:"type"`
	Entities  []worldEntity  `toml:"entity"`
	Resources map[string]any `toml:"resources"`
}

type worldType struct {
	Name    string       `toml:"name"`
	Storage string       `toml:"storage"`
	Type    string       `toml:"type"`
	Fields  []worldField `toml:"field"`
}

type worldField struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type worldEntity struct {
	Components map[string]any `toml:"components"`
}

// readWorld decodes the world file at path. An empty path is an empty world.
func readWorld(path string) (*world, error) {
	w := &world{}
	if path == "" {
		return w, nil
	}
	md, err := toml.DecodeFile(path, w)
	if err != nil {
		return nil, errors.Wrapf(err, "reading world %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("reading world %s: unknown keys %v", path, undecoded)
	}
	return w, nil
}

var primitives = map[string]types.Type{
	"":       types.TypeNumber,
	"f32":    types.TypeNumber,
	"bool":   types.TypeBool,
	"Entity": types.TypeEntity,
}

// Builtins returns the host types the world declares.
func (w *world) Builtins() (store.Builtins, error) {
	var b store.Builtins
	seen := make(map[string]bool)
	for _, t := range w.Types {
		if t.Name == "" {
			return b, errors.New("host type without a name")
		}
		if seen[t.Name] {
			return b, errors.Errorf("host type %s declared twice", t.Name)
		}
		seen[t.Name] = true

		def := store.TypeDef{Name: t.Name}
		switch t.Storage {
		case "component":
			def.Storage = ir.StorageComponent
		case "resource":
			def.Storage = ir.StorageResource
		case "", "none":
		default:
			return b, errors.Errorf("host type %s: unknown storage %q", t.Name, t.Storage)
		}

		if len(t.Fields) == 0 && t.Type != "" {
			p, ok := primitives[t.Type]
			if !ok {
				return b, errors.Errorf("host type %s: unknown type %q", t.Name, t.Type)
			}
			def.Type = p
		} else {
			s := &types.Struct{}
			for _, f := range t.Fields {
				p, ok := primitives[f.Type]
				if !ok {
					return b, errors.Errorf("host type %s: field %s: unknown type %q", t.Name, f.Name, f.Type)
				}
				s.Fields = append(s.Fields, types.Field{Name: f.Name, Type: p})
			}
			def.Type = s
		}
		b.Types = append(b.Types, def)
	}
	return b, nil
}

// TypeFunc returns the type stored under a component or resource name.
type TypeFunc func(name string) (types.Type, bool)

// Populate spawns the world's entities and inserts its resources. Values
// are converted using typeOf; names it does not know are converted by
// their TOML shape.
func (w *world) Populate(st *store.MemStore, typeOf TypeFunc) error {
	for i, e := range w.Entities {
		components := make(map[store.ComponentID]value.Value, len(e.Components))
		for _, name := range sortedKeys(e.Components) {
			t, _ := typeOf(name)
			v, err := convert(e.Components[name], t)
			if err != nil {
				return errors.Wrapf(err, "entity %d: component %s", i, name)
			}
			components[st.RegisterComponent(name)] = v
		}
		st.Spawn(components)
	}
	for _, name := range sortedKeys(w.Resources) {
		t, _ := typeOf(name)
		v, err := convert(w.Resources[name], t)
		if err != nil {
			return errors.Wrapf(err, "resource %s", name)
		}
		st.SetResource(st.RegisterResource(name), v)
	}
	return nil
}

func convert(raw any, t types.Type) (value.Value, error) {
	switch t := t.(type) {
	case *types.Primitive:
		switch t.Kind {
		case types.Number:
			if f, ok := number(raw); ok {
				return value.Number(float64(float32(f))), nil
			}
		case types.Bool:
			if b, ok := raw.(bool); ok {
				return value.Bool(b), nil
			}
		case types.Entity:
			if n, ok := raw.(int64); ok && n >= 0 {
				return value.Entity(value.EntityID(n)), nil
			}
		case types.Unit:
			if m, ok := raw.(map[string]any); ok && len(m) == 0 {
				return value.Unit(), nil
			}
		}
		return value.Value{}, errors.Errorf("expected %s, got %v", t, raw)
	case *types.Struct:
		m, ok := raw.(map[string]any)
		if !ok {
			return value.Value{}, errors.Errorf("expected %s, got %v", t, raw)
		}
		fields := make([]value.Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			fv, ok := m[f.Name]
			if !ok {
				return value.Value{}, errors.Errorf("missing field %s", f.Name)
			}
			v, err := convert(fv, f.Type)
			if err != nil {
				return value.Value{}, errors.Wrapf(err, "field %s", f.Name)
			}
			fields = append(fields, value.Field{Name: f.Name, Value: v})
		}
		if len(m) != len(t.Fields) {
			for _, name := range sortedKeys(m) {
				if _, ok := t.Field(name); !ok {
					return value.Value{}, errors.Errorf("unknown field %s", name)
				}
			}
		}
		return value.Struct(fields...), nil
	case nil:
		return infer(raw)
	}
	return value.Value{}, errors.Errorf("values of type %s cannot be stored", t)
}

func infer(raw any) (value.Value, error) {
	if f, ok := number(raw); ok {
		return value.Number(float64(float32(f))), nil
	}
	switch raw := raw.(type) {
	case bool:
		return value.Bool(raw), nil
	case map[string]any:
		var fields []value.Field
		for _, name := range sortedKeys(raw) {
			v, err := infer(raw[name])
			if err != nil {
				return value.Value{}, errors.Wrapf(err, "field %s", name)
			}
			fields = append(fields, value.Field{Name: name, Value: v})
		}
		return value.Struct(fields...), nil
	}
	return value.Value{}, errors.Errorf("unsupported value %v", raw)
}

func number(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeStore prints every entity and resource of st, components and
// resources sorted by name.
func writeStore(w io.Writer, st *store.MemStore) {
	for _, e := range st.Entities() {
		var parts []string
		for _, c := range st.ComponentsOf(e) {
			v, _ := st.Component(e, c)
			parts = append(parts, fmt.Sprintf("%s = %s", st.ComponentName(c), v))
		}
		sort.Strings(parts)
		fmt.Fprintf(w, "entity %d: %s\n", e, strings.Join(parts, ", "))
	}
	var res []string
	for _, r := range st.Resources() {
		v, _ := st.Resource(r)
		res = append(res, fmt.Sprintf("resource %s = %s", st.ResourceName(r), v))
	}
	sort.Strings(res)
	for _, line := range res {
		fmt.Fprintln(w, line)
	}
}
