package preview

import "charm.land/bubbles/v2/key"

type keyMap struct {
	up        key.Binding
	down      key.Binding
	toggle    key.Binding
	addChild  key.Binding
	closeTab  key.Binding
	narrower  key.Binding
	wider     key.Binding
	showSheet key.Binding
	copySheet key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		toggle: key.NewBinding(
			key.WithKeys("enter", "space"),
			key.WithHelp("enter", "collapse/expand"),
		),
		addChild: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new child"),
		),
		closeTab: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close tab"),
		),
		narrower: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "narrower"),
		),
		wider: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "wider"),
		),
		showSheet: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stylesheet"),
		),
		copySheet: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy stylesheet"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.addChild, k.closeTab, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.addChild, k.closeTab},
		{k.narrower, k.wider},
		{k.showSheet, k.copySheet, k.help, k.quit},
	}
}
