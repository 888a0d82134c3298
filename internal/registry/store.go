package registry

import (
	"tabsync/internal/events"
	"tabsync/internal/types"
)

type TabInit struct {
	ID        types.TabID
	WindowID  int
	Title     string
	Level     int
	Collapsed bool
	Pinned    bool
	Loading   bool
}

// Store is the live tab registry mirrored by the sidebar: tabs in tree
// order plus the visible and expanded indices.
type Store struct {
	tabs     map[types.TabID]*Tab
	order    []types.TabID
	visible  map[types.TabID]struct{}
	expanded map[types.TabID]struct{}

	OnTracked events.Emitter[*Tab]
	OnRemoved events.Emitter[*Tab]
}

func NewStore() *Store {
	return &Store{
		tabs:     map[types.TabID]*Tab{},
		visible:  map[types.TabID]struct{}{},
		expanded: map[types.TabID]struct{}{},
	}
}

// Track registers a tab, or returns the already tracked one.
func (s *Store) Track(init TabInit) *Tab {
	if existing, ok := s.tabs[init.ID]; ok {
		return existing
	}
	tab := &Tab{
		id:       init.ID,
		windowID: init.WindowID,
		title:    init.Title,
		loading:  init.Loading,
	}
	tab.SetLevel(init.Level)
	if init.Pinned {
		tab.AddState(types.TabStatePinned)
	}
	if init.Collapsed {
		tab.AddState(types.TabStateCollapsed)
		tab.AddState(types.TabStateCollapsedDone)
		tab.CollapsedOnCreated = true
	} else {
		s.visible[tab.id] = struct{}{}
		s.expanded[tab.id] = struct{}{}
	}
	s.tabs[tab.id] = tab
	s.order = append(s.order, tab.id)
	_ = s.OnTracked.Dispatch(tab)
	return tab
}

func (s *Store) Remove(id types.TabID) {
	tab, ok := s.tabs[id]
	if !ok {
		return
	}
	tab.removed = true
	delete(s.tabs, id)
	delete(s.visible, id)
	delete(s.expanded, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	_ = s.OnRemoved.Dispatch(tab)
}

func (s *Store) Get(id types.TabID) (*Tab, bool) {
	tab, ok := s.tabs[id]
	return tab, ok
}

// IsLive reports whether tab is still the tracked instance for its id.
func (s *Store) IsLive(tab *Tab) bool {
	if s == nil || tab == nil || tab.removed {
		return false
	}
	current, ok := s.tabs[tab.id]
	return ok && current == tab
}

func (s *Store) SetVisible(tab *Tab, visible bool) {
	if !s.IsLive(tab) {
		return
	}
	setMember(s.visible, tab.id, visible)
}

func (s *Store) SetExpanded(tab *Tab, expanded bool) {
	if !s.IsLive(tab) {
		return
	}
	setMember(s.expanded, tab.id, expanded)
}

func (s *Store) IsVisible(id types.TabID) bool {
	_, ok := s.visible[id]
	return ok
}

func (s *Store) IsExpanded(id types.TabID) bool {
	_, ok := s.expanded[id]
	return ok
}

// Tabs returns the tabs of windowID in tree order.
func (s *Store) Tabs(windowID int, onlyVisible bool) []*Tab {
	out := make([]*Tab, 0, len(s.order))
	for _, id := range s.order {
		tab := s.tabs[id]
		if tab == nil || tab.windowID != windowID {
			continue
		}
		if onlyVisible && !s.IsVisible(id) {
			continue
		}
		out = append(out, tab)
	}
	return out
}

func (s *Store) Len() int {
	return len(s.tabs)
}

func setMember(set map[types.TabID]struct{}, id types.TabID, member bool) {
	if member {
		set[id] = struct{}{}
		return
	}
	delete(set, id)
}
