// Package value holds runtime values: numbers, booleans, entity references,
// ordered structs and opaque host handles.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EntityID identifies an entity in the host store.
type EntityID uint32

type Kind int

const (
	KindUnit Kind = iota
	KindNumber
	KindBool
	KindEntity
	KindStruct
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindEntity:
		return "entity"
	case KindStruct:
		return "struct"
	case KindOpaque:
		return "opaque"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

var (
	ErrNotStruct = errors.New("value is not a struct")
	ErrNoField   = errors.New("no such field")
)

// Value is a tagged runtime value. The zero Value is unit.
type Value struct {
	kind   Kind
	num    float64
	flag   bool
	entity EntityID
	fields []Field
	opaque any
}

// Field is one named struct member.
type Field struct {
	Name  string
	Value Value
}

func Unit() Value              { return Value{} }
func Number(f float64) Value   { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value        { return Value{kind: KindBool, flag: b} }
func Entity(id EntityID) Value { return Value{kind: KindEntity, entity: id} }
func Opaque(handle any) Value  { return Value{kind: KindOpaque, opaque: handle} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsUnit() bool   { return v.kind == KindUnit }

// Struct builds a struct value; fields keep the given order.
func Struct(fields ...Field) Value {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Name: f.Name, Value: f.Value.Clone()}
	}
	return Value{kind: KindStruct, fields: out}
}

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool)      { return v.flag, v.kind == KindBool }
func (v Value) AsEntity() (EntityID, bool) {
	return v.entity, v.kind == KindEntity
}

// Fields returns the struct fields. Callers must not mutate the result.
func (v Value) Fields() []Field { return v.fields }

// Field returns a struct member by name.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	if v.kind != KindStruct {
		return v
	}
	out := v
	out.fields = make([]Field, len(v.fields))
	for i, f := range v.fields {
		out.fields[i] = Field{Name: f.Name, Value: f.Value.Clone()}
	}
	return out
}

// Equal compares values deeply. Opaque handles compare with ==.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnit:
		return true
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindEntity:
		return v.entity == o.entity
	case KindOpaque:
		return v.opaque == o.opaque
	case KindStruct:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindUnit:
		return "()"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 32)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindEntity:
		return fmt.Sprintf("entity#%d", v.entity)
	case KindOpaque:
		return fmt.Sprintf("<%v>", v.opaque)
	case KindStruct:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}
