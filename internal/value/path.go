package value

import (
	"strings"

	"github.com/pkg/errors"
)

// Path addresses a nested struct member, outermost field first.
type Path []string

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	return "." + strings.Join(p, ".")
}

// Get returns a copy of the member at path.
func (v Value) Get(path Path) (Value, error) {
	cur := v
	for i, name := range path {
		if cur.kind != KindStruct {
			return Value{}, errors.Wrapf(ErrNotStruct, "at %s", path[:i])
		}
		next, ok := cur.Field(name)
		if !ok {
			return Value{}, errors.Wrapf(ErrNoField, "%s", path[:i+1])
		}
		cur = next
	}
	return cur.Clone(), nil
}

// Set replaces the member at path in place. An empty path replaces v.
func (v *Value) Set(path Path, nv Value) error {
	return v.set(path, 0, nv.Clone())
}

func (v *Value) set(path Path, depth int, nv Value) error {
	if depth == len(path) {
		*v = nv
		return nil
	}
	if v.kind != KindStruct {
		return errors.Wrapf(ErrNotStruct, "at %s", path[:depth])
	}
	for i := range v.fields {
		if v.fields[i].Name != path[depth] {
			continue
		}
		// copy on write: v may share its backing array with another copy
		v.fields = append([]Field(nil), v.fields...)
		return v.fields[i].Value.set(path, depth+1, nv)
	}
	return errors.Wrapf(ErrNoField, "%s", path[:depth+1])
}
