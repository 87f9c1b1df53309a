package types_test

import (
	"testing"

	"github.com/stork-lang/stork/internal/types"
)

func TestEqual(t *testing.T) {
	vec := func(names ...string) *types.Struct {
		s := &types.Struct{}
		for _, n := range names {
			s.Fields = append(s.Fields, types.Field{Name: n, Type: types.TypeNumber})
		}
		return s
	}

	tests := []struct {
		name string
		a, b types.Type
		want bool
	}{
		{"same primitive", types.TypeNumber, &types.Primitive{Kind: types.Number}, true},
		{"different primitive", types.TypeNumber, types.TypeBool, false},
		{"same struct", vec("x", "y"), vec("x", "y"), true},
		{"field order matters", vec("x", "y"), vec("y", "x"), false},
		{"field count", vec("x"), vec("x", "y"), false},
		{"function", &types.Function{Params: []types.Type{types.TypeNumber}, Return: types.TypeUnit},
			&types.Function{Params: []types.Type{types.TypeNumber}, Return: types.TypeUnit}, true},
		{"function return", &types.Function{Return: types.TypeUnit}, &types.Function{Return: types.TypeBool}, false},
		{"struct vs primitive", vec(), types.TypeUnit, false},
	}

	for _, tt := range tests {
		if got := types.Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestString(t *testing.T) {
	fn := &types.Function{
		Params: []types.Type{types.TypeNumber, &types.Struct{Fields: []types.Field{{Name: "x", Type: types.TypeBool}}}},
		Return: types.TypeUnit,
	}
	if got, want := fn.String(), "fn(f32, {x: bool}) -> ()"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := types.Poisoned.String(); got != "<unknown>" {
		t.Fatalf("unexpected poison string %q", got)
	}
}

func TestTruthy(t *testing.T) {
	if !types.Of(types.TypeBool).Truthy() {
		t.Fatalf("bool must be truthy")
	}
	if types.Of(types.TypeNumber).Truthy() {
		t.Fatalf("plain number must not be truthy")
	}
	if !types.Stored(types.TypeNumber).Truthy() {
		t.Fatalf("stored values test presence")
	}
}
