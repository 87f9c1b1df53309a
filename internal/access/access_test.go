package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/ir"
)

var (
	compA = ir.GlobalIdx{Module: 0, Index: 1}
	compB = ir.GlobalIdx{Module: 0, Index: 2}
	resR  = ir.GlobalIdx{Module: 0, Index: 3}
	e1    = ir.GlobalIdx{Module: 1, Index: 10}
	e2    = ir.GlobalIdx{Module: 1, Index: 20}
)

func TestConflictMatrix(t *testing.T) {
	tests := []struct {
		name string
		a, b access.Effect
		want bool
	}{
		{"read read", access.Component(access.ReadComponent, compA, e1), access.Component(access.ReadComponent, compA, e2), false},
		{"read write", access.Component(access.ReadComponent, compA, e1), access.Component(access.WriteComponent, compA, e2), true},
		{"write write other target", access.Component(access.WriteComponent, compA, e1), access.Component(access.WriteComponent, compB, e1), false},
		{"has write", access.Component(access.HasComponent, compA, e1), access.Component(access.WriteComponent, compA, e1), true},
		{"has has", access.Component(access.HasComponent, compA, e1), access.Component(access.HasComponent, compA, e2), false},
		{"resource read write", access.Resource(access.ReadResource, resR), access.Resource(access.WriteResource, resR), true},
		{"resource read read", access.Resource(access.ReadResource, resR), access.Resource(access.ReadResource, resR), false},
		{"structural components vs read", access.Component(access.StructuralComponents, compA, e1), access.Component(access.ReadComponent, compB, e2), true},
		{"structural components vs resource", access.Component(access.StructuralComponents, compA, e1), access.Resource(access.WriteResource, resR), false},
		{"structural resources vs read", access.Resource(access.StructuralResources, resR), access.Resource(access.ReadResource, compA), true},
		{"structural resources vs component", access.Resource(access.StructuralResources, resR), access.Component(access.WriteComponent, compA, e1), false},
		{"exclusive", access.ExclusiveEffect, access.Resource(access.ReadResource, resR), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := access.Conflict(tt.a, tt.b); got != tt.want {
				t.Fatalf("Conflict(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := access.Conflict(tt.b, tt.a); got != tt.want {
				t.Fatalf("Conflict is not symmetric for %s, %s", tt.a, tt.b)
			}
		})
	}
}

func TestSetFilter(t *testing.T) {
	s := access.NewSet(
		access.Component(access.WriteComponent, compA, e1),
		access.Component(access.ReadComponent, compB, e1),
		access.Component(access.ReadComponent, compA, e1),
		access.Component(access.HasComponent, compB, e2),
		access.Component(access.ReadComponent, compB, e2),
		access.Resource(access.ReadResource, resR),
	)

	assert.Equal(t, []ir.GlobalIdx{compA, compB}, s.Filter(e1))
	assert.Equal(t, []ir.GlobalIdx{compB}, s.Filter(e2))
	assert.Len(t, s.ForEntity(e2), 2)
	assert.Empty(t, s.Filter(resR))
}

func TestSetConflicts(t *testing.T) {
	reader := access.NewSet(access.Resource(access.ReadResource, resR))
	writer := access.NewSet(access.Resource(access.WriteResource, resR))
	other := access.NewSet(access.Component(access.WriteComponent, compA, e1))

	assert.True(t, access.Conflicts(reader, writer))
	assert.False(t, access.Conflicts(reader, reader))
	assert.False(t, access.Conflicts(writer, other))
	assert.False(t, access.Conflicts(access.NewSet(), writer))
}

func TestSetString(t *testing.T) {
	s := access.NewSet(
		access.Resource(access.ReadResource, resR),
		access.Component(access.WriteComponent, compA, e1),
	)
	s.Union(access.NewSet(access.ExclusiveEffect))

	assert.True(t, s.IsExclusive())
	assert.Equal(t, "{R-res(#0:3), W-comp(#0:1 @ #1:10), Exclusive}", s.String())
}
