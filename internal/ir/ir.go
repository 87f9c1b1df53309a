// Package ir is the lowered, arena-allocated program representation. Nodes
// live in a per-module slice and refer to each other by Idx; GlobalIdx
// addresses a node across modules. Nodes never change after lowering.
package ir

import (
	"fmt"

	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/value"
)

// ModuleID identifies a module in a Collection.
type ModuleID int

// Idx addresses a node inside one module.
type Idx uint32

// GlobalIdx addresses a node across modules.
type GlobalIdx struct {
	Module ModuleID
	Index  Idx
}

// NoGlobalIdx stands for "no node".
var NoGlobalIdx = GlobalIdx{Module: -1}

func (g GlobalIdx) Valid() bool { return g.Module >= 0 }

func (g GlobalIdx) String() string {
	if !g.Valid() {
		return "#none"
	}
	return fmt.Sprintf("#%d:%d", g.Module, g.Index)
}

// Less orders indices by module, then position.
func (g GlobalIdx) Less(o GlobalIdx) bool {
	if g.Module != o.Module {
		return g.Module < o.Module
	}
	return g.Index < o.Index
}

// Span is the byte range a node was lowered from.
type Span struct {
	Start int
	End   int
}

// Operator is a builtin operator usable as a function name.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpNot
	OpOr
	OpAnd
)

var operatorNames = map[Operator]string{
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpNeg:       "neg",
	OpEq:        "==",
	OpNotEq:     "!=",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
	OpNot:       "!",
	OpOr:        "||",
	OpAnd:       "&&",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "op?"
}

// Identifier is either a plain name or an operator. Operators resolve
// through the same scopes as names.
type Identifier struct {
	Name string
	Op   Operator
}

func Name(name string) Identifier { return Identifier{Name: name} }
func Op(op Operator) Identifier   { return Identifier{Op: op} }

func (id Identifier) IsOperator() bool { return id.Op != OpNone }

func (id Identifier) String() string {
	if id.IsOperator() {
		return id.Op.String()
	}
	return id.Name
}

// Storage says where values of a builtin type live in the host store.
type Storage int

const (
	StorageNone Storage = iota
	StorageComponent
	StorageResource
)

func (s Storage) String() string {
	switch s {
	case StorageComponent:
		return "component"
	case StorageResource:
		return "resource"
	default:
		return "value"
	}
}

// NativeFunc implements a builtin function. Arguments are already copies.
type NativeFunc func(args []value.Value) (value.Value, error)

// Node is any IR node.
type Node interface {
	irNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// System is a top-level system; Name is empty for an anonymous one.
type System struct {
	Name string
	Body Idx
}

// TypedIdent pairs a name with the index of its type node.
type TypedIdent struct {
	Name string
	Type Idx
}

type Component struct{ TypedIdent }

type Resource struct{ TypedIdent }

type Import struct {
	Path string
}

type TypeIdent struct {
	Name string
}

type StructType struct {
	Fields []TypedIdent
}

// BuiltinType is a type supplied by the host.
type BuiltinType struct {
	Ident   Identifier
	Type    types.Resolved
	Storage Storage
}

// BuiltinFunction is a function or operator supplied by the host.
type BuiltinFunction struct {
	Ident Identifier
	Type  *types.Function
	Fn    NativeFunc
}

func (*System) irNode()          {}
func (*Component) irNode()       {}
func (*Resource) irNode()        {}
func (*Import) irNode()          {}
func (*TypeIdent) irNode()       {}
func (*StructType) irNode()      {}
func (*BuiltinType) irNode()     {}
func (*BuiltinFunction) irNode() {}
