package collapse

import (
	"tabsync/internal/registry"
	"tabsync/internal/types"
)

// Canceller is the cancellation handle of one in-flight transition.
type Canceller struct {
	tab       *registry.Tab
	target    bool
	cancelled bool
}

func newCanceller(tab *registry.Tab, target bool) *Canceller {
	return &Canceller{tab: tab, target: target}
}

// Cancel marks the transition as abandoned. newTarget is compared against
// the abandoned transition's own direction, not the tab's current flag.
// The transitional flags are only cleared when newTarget points the other
// way; a restart in the same direction keeps them so the row does not
// flicker mid-animation.
func (c *Canceller) Cancel(newTarget bool) bool {
	if c == nil || c.cancelled {
		return false
	}
	c.cancelled = true
	if newTarget != c.target {
		c.tab.RemoveState(types.TabStateCollapsing)
		c.tab.RemoveState(types.TabStateExpanding)
		return true
	}
	return false
}

func (c *Canceller) Cancelled() bool {
	return c != nil && c.cancelled
}

func (c *Canceller) Target() bool {
	return c != nil && c.target
}
