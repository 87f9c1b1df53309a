package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stork-lang/stork/internal/cache"
	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/types"
)

func TestTypeStatus(t *testing.T) {
	c := cache.New()
	g := ir.GlobalIdx{Module: 0, Index: 4}

	assert.Equal(t, cache.Unvisited, c.Status[g])

	c.Status[g] = cache.InProgress
	_, ok := c.Type(g)
	assert.False(t, ok, "in-progress nodes have no type yet")

	c.SetType(g, types.Poisoned)
	got, ok := c.Type(g)
	assert.True(t, ok)
	assert.True(t, got.IsPoison())
	assert.Equal(t, cache.Done, c.Status[g])
}

func TestReport(t *testing.T) {
	c := cache.New()
	c.Report(1, diag.New(diag.StageNames, diag.CodeNameUnresolved, diag.Span{}, "x"))

	assert.Len(t, c.Diagnostics(1), 1)
	assert.Empty(t, c.Diagnostics(0))
	assert.Empty(t, c.Effect(ir.GlobalIdx{}))
}
