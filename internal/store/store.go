// Package store defines the host store contract scripts run against, and
// an in-memory implementation of it.
package store

import (
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/types"
	"github.com/stork-lang/stork/internal/value"
)

// ComponentID identifies a registered component kind.
type ComponentID uint32

// ResourceID identifies a registered resource.
type ResourceID uint32

// Filter selects entities that have every listed component.
type Filter []ComponentID

// QueryState is a reusable handle for one filter. Entities returns a
// snapshot of the matching entities in store order.
type QueryState interface {
	Entities() []value.EntityID
}

// Store is the database systems read and write. Registration is idempotent
// by name. Values passed in and returned are owned by the receiver.
type Store interface {
	RegisterComponent(name string) ComponentID
	RegisterResource(name string) ResourceID

	Component(e value.EntityID, c ComponentID) (value.Value, bool)
	SetComponent(e value.EntityID, c ComponentID, v value.Value) error
	RemoveComponent(e value.EntityID, c ComponentID)

	Resource(r ResourceID) (value.Value, bool)
	SetResource(r ResourceID, v value.Value)
	RemoveResource(r ResourceID)

	Query(f Filter) QueryState

	// Builtins lists the functions and types the host exposes to scripts.
	Builtins() Builtins
}

// Function is a host function or operator.
type Function struct {
	Ident  ir.Identifier
	Params []types.Type
	Return types.Type
	Fn     ir.NativeFunc
}

// TypeDef is a host type. Storage says whether it is usable as a component
// or resource.
type TypeDef struct {
	Name    string
	Type    types.Type
	Storage ir.Storage
}

// Builtins is everything a host exposes.
type Builtins struct {
	Functions []Function
	Types     []TypeDef
}

// Merge appends o to b.
func (b Builtins) Merge(o Builtins) Builtins {
	return Builtins{
		Functions: append(append([]Function(nil), b.Functions...), o.Functions...),
		Types:     append(append([]TypeDef(nil), b.Types...), o.Types...),
	}
}
