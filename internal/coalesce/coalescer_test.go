package coalesce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabsync/internal/types"
)

func TestBufferReportsSupersededDelivery(t *testing.T) {
	c := New()
	first := types.TabCollapsedStateChanged{TabID: 1, Collapsed: true}
	second := types.TabCollapsedStateChanged{TabID: 1, Collapsed: false}

	assert.False(t, c.Buffer(first, "collapse-expand-1"))
	assert.True(t, c.Buffer(second, "collapse-expand-1"))

	msg, ok := c.Take(types.MessageTabCollapsedStateChanged, "collapse-expand-1")
	require.True(t, ok)
	assert.Equal(t, second, msg)

	_, ok = c.Take(types.MessageTabCollapsedStateChanged, "collapse-expand-1")
	assert.False(t, ok, "an entry is consumed once")
}

func TestKindsDoNotCollide(t *testing.T) {
	c := New()
	subtree := types.SubtreeCollapsedStateChanged{TabID: 4, Collapsed: true}
	tab := types.TabCollapsedStateChanged{TabID: 4, Collapsed: true}

	assert.False(t, c.Buffer(subtree, "collapse-expand-4"))
	assert.False(t, c.Buffer(tab, "collapse-expand-4"))
	assert.Equal(t, 2, c.Pending())

	got, ok := c.Take(types.MessageSubtreeCollapsedStateChanged, "collapse-expand-4")
	require.True(t, ok)
	assert.Equal(t, subtree, got)
	assert.Equal(t, 1, c.Pending())
}

func TestBufferAfterTakeStartsFresh(t *testing.T) {
	c := New()
	msg := types.TabLevelChanged{TabID: 2, Level: 1}
	assert.False(t, c.Buffer(msg, "indent-2"))
	_, ok := c.Take(msg.Kind(), "indent-2")
	require.True(t, ok)
	assert.False(t, c.Buffer(msg, "indent-2"))
}

func TestTakeMissingIsNotAnError(t *testing.T) {
	var zero Coalescer
	msg, ok := zero.Take(types.MessageTabLevelChanged, "indent-9")
	assert.Nil(t, msg)
	assert.False(t, ok)
	assert.False(t, zero.Buffer(types.TabLevelChanged{TabID: 9}, "indent-9"))
	assert.True(t, zero.Buffer(types.TabLevelChanged{TabID: 9, Level: 2}, "indent-9"))
}
