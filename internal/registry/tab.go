package registry

import "tabsync/internal/types"

// Tab is the mutable view state of one tab row. The sync loop is its only
// writer; it is not safe for concurrent use.
type Tab struct {
	id       types.TabID
	windowID int
	title    string
	state    types.TabState
	level    int
	loading  bool
	removed  bool

	// CollapsedOnCreated marks a tab that was tracked while already
	// collapsed and has not been expanded by anyone since.
	CollapsedOnCreated bool
	// ShouldExpandLater is a deferral hint cleared by every collapse or
	// expand request.
	ShouldExpandLater bool
}

func (t *Tab) ID() types.TabID {
	if t == nil {
		return 0
	}
	return t.id
}

func (t *Tab) WindowID() int {
	if t == nil {
		return 0
	}
	return t.windowID
}

func (t *Tab) Title() string {
	if t == nil {
		return ""
	}
	return t.title
}

func (t *Tab) State() types.TabState {
	if t == nil {
		return 0
	}
	return t.state
}

func (t *Tab) HasState(flag types.TabState) bool {
	return t.State().Has(flag)
}

func (t *Tab) AddState(flag types.TabState) {
	if t == nil {
		return
	}
	t.state = t.state.With(flag)
}

func (t *Tab) RemoveState(flag types.TabState) {
	if t == nil {
		return
	}
	t.state = t.state.Without(flag)
}

func (t *Tab) ToggleState(flag types.TabState, on bool) {
	if t == nil {
		return
	}
	t.state = t.state.Toggle(flag, on)
}

func (t *Tab) Collapsed() bool {
	return t.HasState(types.TabStateCollapsed)
}

func (t *Tab) Level() int {
	if t == nil {
		return 0
	}
	return t.level
}

func (t *Tab) SetLevel(level int) {
	if t == nil {
		return
	}
	if level < 0 {
		level = 0
	}
	t.level = level
}

func (t *Tab) Loading() bool {
	if t == nil {
		return false
	}
	return t.loading
}

func (t *Tab) SetLoading(loading bool) {
	if t == nil {
		return
	}
	t.loading = loading
}
