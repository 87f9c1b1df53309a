package typeres_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/stdlib"
	"github.com/stork-lang/stork/internal/types"
)

func compile(t *testing.T, src string) (*compiler.Index, *ir.Module) {
	t.Helper()
	ix := compiler.New()
	_, err := ix.AddBuiltins(stdlib.Path, stdlib.Builtins(&bytes.Buffer{}))
	require.NoError(t, err)
	_, err = ix.AddModule("main", src)
	require.NoError(t, err)
	ix.Compile()
	m, _ := ix.Modules().Lookup("main")
	return ix, m
}

func typeCodes(ix *compiler.Index) []diag.Code {
	var out []diag.Code
	for _, d := range ix.Diagnostics() {
		if d.Stage == diag.StageTypes {
			out = append(out, d.Code)
		}
	}
	return out
}

func TestTypeCycle(t *testing.T) {
	ix, m := compile(t, "comp A: B\ncomp B: A\ncomp C: { inner: C }")

	assert.Equal(t, []diag.Code{diag.CodeTypeCycle, diag.CodeTypeCycle}, typeCodes(ix))
	for _, idx := range m.TopLevel {
		got, ok := ix.Cache().Type(m.Global(idx))
		require.True(t, ok)
		assert.True(t, got.IsPoison(), "%s should be poisoned", got)
		assert.Equal(t, cache.Done, ix.Cache().Status[m.Global(idx)])
	}
}

func TestItemTypes(t *testing.T) {
	ix, m := compile(t, "comp Pos: { x: f32, y: f32 }\nres Paused: bool\ncomp Tag")
	require.False(t, ix.HasErrors())

	pos, _ := ix.Cache().Type(m.Global(m.TopLevel[0]))
	assert.True(t, pos.FromStore)
	assert.Equal(t, "{x: f32, y: f32}", pos.String())

	paused, _ := ix.Cache().Type(m.Global(m.TopLevel[1]))
	assert.True(t, types.Equal(paused.Type, types.TypeBool))

	tag, _ := ix.Cache().Type(m.Global(m.TopLevel[2]))
	assert.Equal(t, "{}", tag.String())
}

func TestWellTypedPrograms(t *testing.T) {
	programs := []string{
		"res Health: f32\nsys s { let [Health] = 5; [Health] = 123; }",
		"comp T: { x: f32, y: f32 }\nsys { query e { e[T].x = 1; e[T].y = e[T].x + 3; } }",
		"comp A: f32\nsys { query e { if e[A] { e[A] += 1 } else { } } }",
		"res R: f32\nsys { if ![R] { let [R] = 0; } while [R] < 10 { [R] *= 2; } }",
		"comp P: { x: f32 }\nsys { query e { let p = P { x: 2 }; p.x = abs(-p.x); let e[P] = p; del e[P]; } }",
		"sys { let x = 1; let y = x; { let x = x < y; if x && !x {} } print(x); }",
	}
	for _, src := range programs {
		ix, _ := compile(t, src)
		if ix.HasErrors() {
			t.Fatalf("unexpected diagnostics for %q: %v", src, ix.Diagnostics())
		}
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"argument type", "sys { 1 + (2 < 3); }", diag.CodeTypeMismatch},
		{"arity", "sys { print(1, 2); }", diag.CodeTypeArity},
		{"not callable", "sys { let x = 1; x(2); }", diag.CodeTypeNotCallable},
		{"condition", "sys { if 1 { } }", diag.CodeTypeNotTruthy},
		{"not truthy in not", "sys { !1; }", diag.CodeTypeNotTruthy},
		{"member of number", "sys { let x = 1; x.y; }", diag.CodeTypeNotStruct},
		{"unknown field", "comp P: { x: f32 }\nsys { query e { e[P].z; } }", diag.CodeTypeUnknownField},
		{"missing field", "comp P: { x: f32, y: f32 }\nsys { let p = P { x: 1 }; }", diag.CodeTypeMissingField},
		{"wrong field type", "comp P: { x: f32 }\nsys { let p = P { x: 1 < 2 }; }", diag.CodeTypeMismatch},
		{"resource as component", "res R: f32\nsys { query e { e[R]; } }", diag.CodeTypeNotStored},
		{"local as resource", "sys { let x = 1; [x]; }", diag.CodeTypeNotStored},
		{"entity required", "comp A: f32\nsys { let x = 1; x[A]; }", diag.CodeTypeNotEntity},
		{"store write type", "res R: f32\nsys { [R] = 1 < 2; }", diag.CodeTypeMismatch},
		{"assign to query entity", "sys { query e { e = e; } }", diag.CodeTypeInvalidTarget},
		{"assign to literal", "sys { 1 = 2; }", diag.CodeTypeInvalidTarget},
		{"delete a local", "sys { let x = 1; del x; }", diag.CodeTypeInvalidTarget},
		{"component as value", "comp A: f32\nsys { let x = A; }", diag.CodeTypeNotAValue},
		{"not a type", "sys s { }\ncomp A: s", diag.CodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, _ := compile(t, tt.src)
			got := typeCodes(ix)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("type diagnostics = %v, want [%s]\n%v", got, tt.want, ix.Diagnostics())
			}
		})
	}
}

func TestUnknownFieldIsUnit(t *testing.T) {
	ix, m := compile(t, "comp P: { x: f32 }\nsys { query e { e[P].z; } }")
	require.True(t, ix.HasErrors())

	for i := 0; i < m.Len(); i++ {
		if _, ok := m.Node(ir.Idx(i)).(*ir.MemberAccess); ok {
			got, _ := ix.Cache().Type(m.Global(ir.Idx(i)))
			assert.True(t, types.Equal(got.Type, types.TypeUnit))
			return
		}
	}
	t.Fatal("no member access lowered")
}

func TestPoisonSuppressesCascades(t *testing.T) {
	ix, _ := compile(t, "sys { let x = missing; let y = x + 1; print(y); }")
	assert.Empty(t, typeCodes(ix))
	require.Len(t, ix.Diagnostics(), 1)
	assert.Equal(t, diag.CodeNameUnresolved, ix.Diagnostics()[0].Code)
}
