package preview

import (
	"tabsync/internal/types"
)

// node is one tab as the tree owner sees it.
type node struct {
	id               types.TabID
	title            string
	level            int
	pinned           bool
	subtreeCollapsed bool
}

// ownerTree plays the tree owner for the preview: it keeps the canonical
// hierarchy and produces the notifications a real owner would send.
type ownerTree struct {
	nodes  []*node
	nextID types.TabID
}

type demoTab struct {
	title  string
	level  int
	pinned bool
}

var demoTabs = []demoTab{
	{"Inbox", 0, true},
	{"Project board", 0, false},
	{"Design review", 1, false},
	{"Mockups", 2, false},
	{"Feedback thread", 2, false},
	{"Release notes", 1, false},
	{"Changelog draft", 2, false},
	{"Migration guide", 3, false},
	{"Search results", 0, false},
	{"API reference", 1, false},
	{"Examples", 2, false},
	{"Music", 0, false},
}

func newOwnerTree(tabs []demoTab) *ownerTree {
	t := &ownerTree{nextID: 1}
	for _, tab := range tabs {
		t.nodes = append(t.nodes, &node{id: t.nextID, title: tab.title, level: tab.level, pinned: tab.pinned})
		t.nextID++
	}
	return t
}

func (t *ownerTree) index(id types.TabID) int {
	for i, n := range t.nodes {
		if n.id == id {
			return i
		}
	}
	return -1
}

func (t *ownerTree) get(id types.TabID) *node {
	if i := t.index(id); i >= 0 {
		return t.nodes[i]
	}
	return nil
}

// descendants returns the nodes below index i, in tree order.
func (t *ownerTree) descendants(i int) []*node {
	var out []*node
	for j := i + 1; j < len(t.nodes) && t.nodes[j].level > t.nodes[i].level; j++ {
		out = append(out, t.nodes[j])
	}
	return out
}

func (t *ownerTree) hasChildren(id types.TabID) bool {
	i := t.index(id)
	return i >= 0 && len(t.descendants(i)) > 0
}

// reachable returns the descendants of index i that are not hidden by a
// collapsed subtree below i.
func (t *ownerTree) reachable(i int) []*node {
	var out []*node
	hiddenBelow := -1
	for _, n := range t.descendants(i) {
		if hiddenBelow >= 0 && n.level > hiddenBelow {
			continue
		}
		hiddenBelow = -1
		out = append(out, n)
		if n.subtreeCollapsed {
			hiddenBelow = n.level
		}
	}
	return out
}

// toggle flips the subtree of id and returns the resulting notifications.
func (t *ownerTree) toggle(id types.TabID) []types.Message {
	i := t.index(id)
	if i < 0 || len(t.descendants(i)) == 0 {
		return nil
	}
	n := t.nodes[i]
	n.subtreeCollapsed = !n.subtreeCollapsed
	affected := t.reachable(i)

	ids := make([]types.TabID, 0, len(affected))
	for _, child := range affected {
		ids = append(ids, child.id)
	}
	msgs := []types.Message{types.SubtreeCollapsedStateChanged{
		TabID:                   id,
		Collapsed:               n.subtreeCollapsed,
		VisibilityChangedTabIDs: ids,
	}}
	anchor := id
	for j, child := range affected {
		msgs = append(msgs, types.TabCollapsedStateChanged{
			TabID:     child.id,
			Collapsed: n.subtreeCollapsed,
			AnchorID:  &anchor,
			Last:      j == len(affected)-1,
		})
	}
	return msgs
}

// addChild inserts a new last child of parent.
func (t *ownerTree) addChild(parent types.TabID, title string) (*node, []types.Message) {
	i := t.index(parent)
	if i < 0 {
		return nil, nil
	}
	p := t.nodes[i]
	child := &node{id: t.nextID, title: title, level: p.level + 1}
	t.nextID++
	at := i + 1 + len(t.descendants(i))
	t.nodes = append(t.nodes[:at], append([]*node{child}, t.nodes[at:]...)...)

	msgs := []types.Message{
		types.TabTopologyChanged{Type: types.MessageTabCreated, TabID: child.id},
		types.TabLevelChanged{TabID: child.id, Level: child.level},
	}
	if p.subtreeCollapsed {
		msgs = append(msgs, types.TabCollapsedStateChanged{TabID: child.id, Collapsed: true, JustNow: true})
	}
	return child, msgs
}

// remove closes id and promotes its descendants one level up.
func (t *ownerTree) remove(id types.TabID) []types.Message {
	i := t.index(id)
	if i < 0 {
		return nil
	}
	below := t.descendants(i)
	t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)

	msgs := []types.Message{types.TabTopologyChanged{Type: types.MessageTabRemoving, TabID: id}}
	for _, n := range below {
		n.level--
		msgs = append(msgs, types.TabLevelChanged{TabID: n.id, Level: n.level})
	}
	return msgs
}
