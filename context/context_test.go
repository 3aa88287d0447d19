package context_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/npaflow/context"
)

func TestPushTrimsToDepth(t *testing.T) {
	table := context.NewTable(2)
	cs := context.Empty()
	cs = table.Push(cs, "a@1")
	cs = table.Push(cs, "b@2")
	assert.Equal(t, []context.Site{"a@1", "b@2"}, cs.Sites())

	cs = table.Push(cs, "c@3")
	assert.Equal(t, []context.Site{"b@2", "c@3"}, cs.Sites())
	assert.Equal(t, 2, cs.Len())
}

func TestPushZeroCFACollapsesToEmpty(t *testing.T) {
	table := context.NewTable(0)
	cs := context.Empty()
	for _, site := range []context.Site{"a@1", "b@2", "c@3", "d@4"} {
		cs = table.Push(cs, site)
	}
	assert.Equal(t, 0, cs.Len())
}

func TestPushUnboundedKeepsFullCallString(t *testing.T) {
	table := context.NewTable(context.Unbounded)
	cs := context.Empty()
	for _, site := range []context.Site{"a@1", "b@2", "c@3", "d@4"} {
		cs = table.Push(cs, site)
	}
	assert.Equal(t, 4, cs.Len())
}

func TestEqualAndHash(t *testing.T) {
	table := context.NewTable(context.Unbounded)
	a := table.Push(table.Push(context.Empty(), "a@1"), "b@2")
	b := table.Push(table.Push(context.Empty(), "a@1"), "b@2")
	c := table.Push(context.Empty(), "a@1")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
}
