package types

import "testing"

func TestTabStateFlags(t *testing.T) {
	state := TabState(0).With(TabStateCollapsed).With(TabStateCollapsing)
	if !state.Has(TabStateCollapsed) || !state.Has(TabStateCollapsing) {
		t.Fatalf("expected both flags, got %v", state)
	}
	if state.Has(TabStateCollapsed | TabStateExpanding) {
		t.Fatalf("Has must require every flag of a mask")
	}
	state = state.Without(TabStateCollapsing).Toggle(TabStateCollapsedDone, true)
	if got := state.String(); got != "collapsed|collapsed-completely" {
		t.Fatalf("unexpected state string %q", got)
	}
	if got := state.Toggle(TabStateCollapsed, false).Toggle(TabStateCollapsedDone, false); got != 0 {
		t.Fatalf("expected empty state, got %v", got)
	}
}

func TestTabStateString(t *testing.T) {
	if got := TabState(0).String(); got != "none" {
		t.Fatalf("expected none, got %q", got)
	}
	if got := TabState(1 << 12).String(); got != "0x1000" {
		t.Fatalf("expected hex fallback, got %q", got)
	}
}

func TestTabStateClassName(t *testing.T) {
	if got := TabStateCollapsedDone.ClassName(); got != "collapsed-completely" {
		t.Fatalf("unexpected class %q", got)
	}
	if got := (TabStatePinned | TabStateCollapsed).ClassName(); got != "" {
		t.Fatalf("expected no class for a combination, got %q", got)
	}
}
