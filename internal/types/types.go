// Package types models the types of stork values. There is exactly one
// numeric type; structs are compared structurally with field order
// significant.
package types

import "strings"

// Type represents a type in the stork type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	Number PrimitiveKind = "f32"
	Bool   PrimitiveKind = "bool"
	Unit   PrimitiveKind = "()"
	Entity PrimitiveKind = "Entity"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances
var (
	TypeNumber = &Primitive{Kind: Number}
	TypeBool   = &Primitive{Kind: Bool}
	TypeUnit   = &Primitive{Kind: Unit}
	TypeEntity = &Primitive{Kind: Entity}
)

// Struct is an ordered list of named fields.
type Struct struct {
	Fields []Field
}

type Field struct {
	Name string
	Type Type
}

func (s *Struct) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (s *Struct) IsType() {}

// Field returns the named field.
func (s *Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Function represents a function type.
type Function struct {
	Params []Type
	Return Type
}

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + f.Return.String()
}
func (f *Function) IsType() {}

// Poison marks a type that could not be resolved. It is never reported on
// twice: anything built on a poisoned type is itself poisoned silently.
type Poison struct{}

func (*Poison) String() string { return "<unknown>" }
func (*Poison) IsType()        {}

var TypePoison = &Poison{}

// IsPoison reports whether t is missing or poisoned.
func IsPoison(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*Poison)
	return ok
}

// Equal compares types structurally.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Kind == y.Kind
	case *Struct:
		y, ok := b.(*Struct)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equal(x.Fields[i].Type, y.Fields[i].Type) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	case *Poison:
		_, ok := b.(*Poison)
		return ok
	default:
		return false
	}
}

// Resolved is a type plus whether values of it live in the host store as a
// component or resource.
type Resolved struct {
	Type      Type
	FromStore bool
}

// Of wraps a plain type.
func Of(t Type) Resolved { return Resolved{Type: t} }

// Stored wraps a component or resource type.
func Stored(t Type) Resolved { return Resolved{Type: t, FromStore: true} }

// Poisoned is the resolved form of an unresolvable node.
var Poisoned = Resolved{Type: TypePoison}

func (r Resolved) IsPoison() bool { return IsPoison(r.Type) }

// Truthy reports whether the type may be used as a condition: a bool, or a
// store access whose presence is tested.
func (r Resolved) Truthy() bool {
	return r.FromStore || Equal(r.Type, TypeBool)
}

func (r Resolved) String() string {
	if r.Type == nil {
		return TypePoison.String()
	}
	return r.Type.String()
}
