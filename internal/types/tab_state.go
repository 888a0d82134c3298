package types

import (
	"strconv"
	"strings"
)

type TabID int

func (id TabID) String() string {
	return strconv.Itoa(int(id))
}

// TabState is the set of visual state flags carried by a tab row. The names
// returned by String double as the class names used by generated selectors.
type TabState uint16

const (
	TabStateCollapsed TabState = 1 << iota
	TabStateCollapsing
	TabStateExpanding
	TabStateCollapsedDone
	TabStateSubtreeCollapsed
	TabStatePinned
	TabStateThrobberUnsynchronized
)

var tabStateNames = []struct {
	state TabState
	name  string
}{
	{TabStateCollapsed, "collapsed"},
	{TabStateCollapsing, "collapsing"},
	{TabStateExpanding, "expanding"},
	{TabStateCollapsedDone, "collapsed-completely"},
	{TabStateSubtreeCollapsed, "subtree-collapsed"},
	{TabStatePinned, "pinned"},
	{TabStateThrobberUnsynchronized, "throbber-unsynchronized"},
}

func (s TabState) Has(flag TabState) bool {
	return s&flag == flag
}

func (s TabState) With(flag TabState) TabState {
	return s | flag
}

func (s TabState) Without(flag TabState) TabState {
	return s &^ flag
}

func (s TabState) Toggle(flag TabState, on bool) TabState {
	if on {
		return s.With(flag)
	}
	return s.Without(flag)
}

func (s TabState) Names() []string {
	out := make([]string, 0, len(tabStateNames))
	for _, entry := range tabStateNames {
		if s.Has(entry.state) {
			out = append(out, entry.name)
		}
	}
	return out
}

func (s TabState) String() string {
	if s == 0 {
		return "none"
	}
	names := s.Names()
	if len(names) == 0 {
		return "0x" + strconv.FormatUint(uint64(s), 16)
	}
	return strings.Join(names, "|")
}

// ClassName returns the selector class of a single flag.
func (s TabState) ClassName() string {
	for _, entry := range tabStateNames {
		if entry.state == s {
			return entry.name
		}
	}
	return ""
}
