// Package stdlib is the builtin `std` module: primitive types, operators
// and a handful of numeric functions.
package stdlib

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/value"
)

// Path is the module path the standard library is registered under.
const Path = "std"

var (
	number = types.TypeNumber
	boolT  = types.TypeBool
)

// Builtins returns the standard library. print writes to out and may be
// called from concurrently running systems.
func Builtins(out io.Writer) store.Builtins {
	var mu sync.Mutex
	b := store.Builtins{
		Types: []store.TypeDef{
			{Name: "f32", Type: types.TypeNumber},
			{Name: "bool", Type: types.TypeBool},
			{Name: "Entity", Type: types.TypeEntity},
		},
	}

	arith := map[ir.Operator]func(a, b float64) float64{
		ir.OpAdd: func(a, b float64) float64 { return a + b },
		ir.OpSub: func(a, b float64) float64 { return a - b },
		ir.OpMul: func(a, b float64) float64 { return a * b },
		ir.OpDiv: func(a, b float64) float64 { return a / b },
	}
	for _, op := range []ir.Operator{ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv} {
		f := arith[op]
		b.Functions = append(b.Functions, binary(ir.Op(op), number, func(x, y float64) value.Value {
			return value.Number(f32(f(x, y)))
		}))
	}

	compare := map[ir.Operator]func(a, b float64) bool{
		ir.OpEq:        func(a, b float64) bool { return a == b },
		ir.OpNotEq:     func(a, b float64) bool { return a != b },
		ir.OpLess:      func(a, b float64) bool { return a < b },
		ir.OpLessEq:    func(a, b float64) bool { return a <= b },
		ir.OpGreater:   func(a, b float64) bool { return a > b },
		ir.OpGreaterEq: func(a, b float64) bool { return a >= b },
	}
	for _, op := range []ir.Operator{ir.OpEq, ir.OpNotEq, ir.OpLess, ir.OpLessEq, ir.OpGreater, ir.OpGreaterEq} {
		f := compare[op]
		b.Functions = append(b.Functions, binary(ir.Op(op), boolT, func(x, y float64) value.Value {
			return value.Bool(f(x, y))
		}))
	}

	b.Functions = append(b.Functions,
		unary(ir.Op(ir.OpNeg), func(x float64) float64 { return -x }),
		unary(ir.Name("abs"), math.Abs),
		unary(ir.Name("sqrt"), math.Sqrt),
		binary(ir.Name("min"), number, func(x, y float64) value.Value { return value.Number(math.Min(x, y)) }),
		binary(ir.Name("max"), number, func(x, y float64) value.Value { return value.Number(math.Max(x, y)) }),
		store.Function{
			Ident:  ir.Op(ir.OpNot),
			Params: []types.Type{boolT},
			Return: boolT,
			Fn: func(args []value.Value) (value.Value, error) {
				x, err := asBool(args, 0)
				return value.Bool(!x), err
			},
		},
		logical(ir.OpAnd, func(a, b bool) bool { return a && b }),
		logical(ir.OpOr, func(a, b bool) bool { return a || b }),
		store.Function{
			Ident:  ir.Name("print"),
			Params: []types.Type{number},
			Return: types.TypeUnit,
			Fn: func(args []value.Value) (value.Value, error) {
				x, err := asNumber(args, 0)
				if err != nil {
					return value.Unit(), err
				}
				mu.Lock()
				_, err = fmt.Fprintln(out, value.Number(x))
				mu.Unlock()
				return value.Unit(), errors.Wrap(err, "print")
			},
		},
	)
	return b
}

// f32 rounds x to single precision, the precision of script numbers.
func f32(x float64) float64 { return float64(float32(x)) }

func unary(id ir.Identifier, f func(float64) float64) store.Function {
	return store.Function{
		Ident:  id,
		Params: []types.Type{number},
		Return: number,
		Fn: func(args []value.Value) (value.Value, error) {
			x, err := asNumber(args, 0)
			return value.Number(f32(f(x))), err
		},
	}
}

func binary(id ir.Identifier, ret types.Type, f func(x, y float64) value.Value) store.Function {
	return store.Function{
		Ident:  id,
		Params: []types.Type{number, number},
		Return: ret,
		Fn: func(args []value.Value) (value.Value, error) {
			x, err := asNumber(args, 0)
			if err != nil {
				return value.Unit(), err
			}
			y, err := asNumber(args, 1)
			if err != nil {
				return value.Unit(), err
			}
			return f(x, y), nil
		},
	}
}

func logical(op ir.Operator, f func(a, b bool) bool) store.Function {
	return store.Function{
		Ident:  ir.Op(op),
		Params: []types.Type{boolT, boolT},
		Return: boolT,
		Fn: func(args []value.Value) (value.Value, error) {
			x, err := asBool(args, 0)
			if err != nil {
				return value.Unit(), err
			}
			y, err := asBool(args, 1)
			if err != nil {
				return value.Unit(), err
			}
			return value.Bool(f(x, y)), nil
		},
	}
}

func asNumber(args []value.Value, i int) (float64, error) {
	if i >= len(args) {
		return 0, errors.Errorf("missing argument %d", i)
	}
	x, ok := args[i].AsNumber()
	if !ok {
		return 0, errors.Errorf("argument %d: expected number, found %s", i, args[i].Kind())
	}
	return x, nil
}

func asBool(args []value.Value, i int) (bool, error) {
	if i >= len(args) {
		return false, errors.Errorf("missing argument %d", i)
	}
	x, ok := args[i].AsBool()
	if !ok {
		return false, errors.Errorf("argument %d: expected bool, found %s", i, args[i].Kind())
	}
	return x, nil
}
