// Package access models the store accesses a piece of code performs and the
// conflict rule the scheduler uses to decide what may run in parallel.
package access

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stork-lang/stork/internal/ir"
)

// Kind is the kind of access an Effect performs.
type Kind int

const (
	ReadResource Kind = iota
	WriteResource
	ReadComponent
	WriteComponent
	HasComponent
	// StructuralComponents adds or removes components. It claims every
	// component, whatever Target says.
	StructuralComponents
	// StructuralResources inserts or removes resources. It claims every
	// resource.
	StructuralResources
	// Exclusive is produced when the accessed location could not be
	// resolved; it conflicts with everything.
	Exclusive
)

var kindNames = map[Kind]string{
	ReadResource:         "R-res",
	WriteResource:        "W-res",
	ReadComponent:        "R-comp",
	WriteComponent:       "W-comp",
	HasComponent:         "C-comp",
	StructuralComponents: "S-comp",
	StructuralResources:  "S-res",
	Exclusive:            "Exclusive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsComponent reports whether k touches the component region.
func (k Kind) IsComponent() bool {
	switch k {
	case ReadComponent, WriteComponent, HasComponent, StructuralComponents:
		return true
	}
	return false
}

// IsResource reports whether k touches the resource region.
func (k Kind) IsResource() bool {
	switch k {
	case ReadResource, WriteResource, StructuralResources:
		return true
	}
	return false
}

func (k Kind) isWrite() bool { return k == WriteResource || k == WriteComponent }

// Effect is one required access. Target is the component or resource
// definition; Entity is the definition of the entity variable for
// component effects. Unused fields hold ir.NoGlobalIdx.
type Effect struct {
	Kind   Kind
	Target ir.GlobalIdx
	Entity ir.GlobalIdx
}

func Resource(kind Kind, target ir.GlobalIdx) Effect {
	return Effect{Kind: kind, Target: target, Entity: ir.NoGlobalIdx}
}

func Component(kind Kind, target, entity ir.GlobalIdx) Effect {
	return Effect{Kind: kind, Target: target, Entity: entity}
}

// ExclusiveEffect claims the whole store.
var ExclusiveEffect = Effect{Kind: Exclusive, Target: ir.NoGlobalIdx, Entity: ir.NoGlobalIdx}

func (e Effect) String() string {
	switch {
	case e.Kind == Exclusive:
		return e.Kind.String()
	case e.Entity.Valid():
		return fmt.Sprintf("%s(%s @ %s)", e.Kind, e.Target, e.Entity)
	default:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Target)
	}
}

func (e Effect) less(o Effect) bool {
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	if e.Target != o.Target {
		return e.Target.Less(o.Target)
	}
	return e.Entity.Less(o.Entity)
}

// Conflict reports whether a and b may not run at the same time.
func Conflict(a, b Effect) bool {
	if a.Kind == Exclusive || b.Kind == Exclusive {
		return true
	}
	if a.Kind == StructuralComponents && b.Kind.IsComponent() ||
		b.Kind == StructuralComponents && a.Kind.IsComponent() {
		return true
	}
	if a.Kind == StructuralResources && b.Kind.IsResource() ||
		b.Kind == StructuralResources && a.Kind.IsResource() {
		return true
	}
	if a.Target != b.Target || a.Kind.IsComponent() != b.Kind.IsComponent() {
		return false
	}
	return a.Kind.isWrite() || b.Kind.isWrite()
}

// Set is an access set.
type Set map[Effect]struct{}

func NewSet(effects ...Effect) Set {
	s := make(Set, len(effects))
	for _, e := range effects {
		s[e] = struct{}{}
	}
	return s
}

func (s Set) Add(e Effect) { s[e] = struct{}{} }

func (s Set) Has(e Effect) bool {
	_, ok := s[e]
	return ok
}

// Union adds every effect of o to s.
func (s Set) Union(o Set) {
	for e := range o {
		s[e] = struct{}{}
	}
}

// Sorted returns the effects in a stable order.
func (s Set) Sorted() []Effect {
	out := make([]Effect, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// IsExclusive reports whether s claims the whole store.
func (s Set) IsExclusive() bool { return s.Has(ExclusiveEffect) }

// ForEntity returns the component effects made through entity.
func (s Set) ForEntity(entity ir.GlobalIdx) Set {
	out := make(Set)
	for e := range s {
		if e.Kind.IsComponent() && e.Entity == entity {
			out.Add(e)
		}
	}
	return out
}

// Filter lists the components an entity must have to be visited by the
// query bound to entity: every component read or written through it.
func (s Set) Filter(entity ir.GlobalIdx) []ir.GlobalIdx {
	seen := make(map[ir.GlobalIdx]bool)
	var out []ir.GlobalIdx
	for e := range s {
		if e.Entity != entity || (e.Kind != ReadComponent && e.Kind != WriteComponent) {
			continue
		}
		if !seen[e.Target] {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s Set) String() string {
	effects := s.Sorted()
	parts := make([]string, len(effects))
	for i, e := range effects {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Conflicts reports whether any effect of a conflicts with any effect of b.
func Conflicts(a, b Set) bool {
	for x := range a {
		for y := range b {
			if Conflict(x, y) {
				return true
			}
		}
	}
	return false
}
