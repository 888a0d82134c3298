// Package preview renders a demo tab tree in the terminal and drives it
// through the same collapse animator, indent scheduler and dispatcher the
// sync daemon uses.
package preview

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"tabsync/internal/collapse"
	"tabsync/internal/indent"
	"tabsync/internal/logging"
	"tabsync/internal/loop"
	"tabsync/internal/metrics"
	"tabsync/internal/registry"
	"tabsync/internal/sidebar"
	"tabsync/internal/types"
)

const (
	previewWindow     = 1
	defaultColumns    = 40
	minColumns        = 8
	resizeStep        = 4
	stylesheetPreview = 12
)

var (
	rowStyle        = lipgloss.NewStyle()
	pinnedStyle     = lipgloss.NewStyle().Bold(true)
	transitionStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	selectedStyle   = lipgloss.NewStyle().Reverse(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	sheetStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(loop.FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type Option func(*Model)

func WithLogger(logger logging.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}

func WithMetrics(collector *metrics.Metrics) Option {
	return func(m *Model) {
		m.metrics = collector
	}
}

// WithCache warm-starts the stylesheet from a persisted cache.
func WithCache(cache *indent.Cache) Option {
	return func(m *Model) {
		m.cache = cache
	}
}

// Model is the bubbletea model of the preview. Virtual time advances by
// one frame per tick, so every callback runs inside Update.
type Model struct {
	settings indent.Settings
	log      logging.Logger
	metrics  *metrics.Metrics
	cache    *indent.Cache

	clock      *loop.Manual
	tabs       *registry.Store
	animator   *collapse.Animator
	indent     *indent.Scheduler
	dispatcher *sidebar.Dispatcher
	surface    *Surface
	tree       *ownerTree

	keys      keyMap
	help      help.Model
	selected  types.TabID
	width     int
	showSheet bool
	status    string
	statusErr bool
}

func New(settings indent.Settings, opts ...Option) *Model {
	m := &Model{
		settings: settings,
		log:      logging.Nop(),
		clock:    loop.NewManual(time.Time{}),
		tabs:     registry.NewStore(),
		surface:  NewSurface(defaultColumns),
		tree:     newOwnerTree(demoTabs),
		keys:     newKeyMap(),
		help:     help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.animator = collapse.New(m.tabs, m.clock, settings,
		collapse.WithLogger(m.log),
		collapse.WithMetrics(m.metrics))
	m.indent = indent.NewScheduler(m.tabs, m.clock, settings,
		indent.WithLogger(m.log),
		indent.WithMetrics(m.metrics),
		indent.WithWindow(previewWindow))
	m.dispatcher = sidebar.New(m.tabs, m.clock, m.animator, m.indent,
		sidebar.WithLogger(m.log),
		sidebar.WithMetrics(m.metrics),
		sidebar.WithRenderer(m.surface),
		sidebar.WithWindow(previewWindow))

	for _, n := range m.tree.nodes {
		m.tabs.Track(registry.TabInit{
			ID:       n.id,
			WindowID: previewWindow,
			Title:    n.title,
			Level:    n.level,
			Pinned:   n.pinned,
		})
	}
	if len(m.tree.nodes) > 0 {
		m.selected = m.tree.nodes[0].id
	}
	m.indent.Init(m.surface)
	m.indent.RestoreTree(m.cache)
	m.clock.Flush()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.SetWidth(msg.Width)
		m.resize(msg.Width)
		return m, nil
	case tickMsg:
		m.clock.Advance(loop.FrameInterval)
		return m, tick()
	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.dispatcher.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.toggle):
		msgs := m.tree.toggle(m.selected)
		if len(msgs) == 0 {
			m.setStatus("nothing to collapse", false)
			return nil
		}
		m.dispatch(msgs)
	case key.Matches(msg, m.keys.addChild):
		child, msgs := m.tree.addChild(m.selected, fmt.Sprintf("New tab %d", m.tree.nextID))
		if child == nil {
			return nil
		}
		m.dispatch(msgs)
		m.setStatus("opened "+child.title, false)
	case key.Matches(msg, m.keys.closeTab):
		m.closeSelected()
	case key.Matches(msg, m.keys.narrower):
		m.resize(m.surface.Columns() - resizeStep)
	case key.Matches(msg, m.keys.wider):
		m.resize(m.surface.Columns() + resizeStep)
	case key.Matches(msg, m.keys.showSheet):
		m.showSheet = !m.showSheet
	case key.Matches(msg, m.keys.copySheet):
		m.copyStylesheet()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) dispatch(msgs []types.Message) {
	for _, msg := range msgs {
		m.dispatcher.Handle(msg)
	}
	m.clock.Flush()
}

func (m *Model) resize(columns int) {
	m.surface.SetColumns(max(columns, minColumns))
	m.indent.HandleResize()
}

func (m *Model) closeSelected() {
	n := m.tree.get(m.selected)
	if n == nil {
		return
	}
	if n.subtreeCollapsed {
		m.setStatus("expand before closing", true)
		return
	}
	rows := m.rows()
	next := types.TabID(0)
	for i, r := range rows {
		if r.id != n.id {
			continue
		}
		switch {
		case i+1 < len(rows):
			next = rows[i+1].id
		case i > 0:
			next = rows[i-1].id
		}
		break
	}
	m.dispatch(m.tree.remove(n.id))
	m.selected = next
	m.setStatus("closed "+n.title, false)
}

func (m *Model) copyStylesheet() {
	definition := m.surface.Stylesheet()
	if definition == "" {
		m.setStatus("no stylesheet yet", true)
		return
	}
	method, err := copyTextToClipboard(definition)
	if err != nil {
		m.setStatus("copy failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("stylesheet copied (%s)", method), false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) moveSelection(delta int) {
	rows := m.rows()
	if len(rows) == 0 {
		return
	}
	current := 0
	for i, r := range rows {
		if r.id == m.selected {
			current = i
			break
		}
	}
	next := min(max(current+delta, 0), len(rows)-1)
	m.selected = rows[next].id
}

type row struct {
	*node
	tab *registry.Tab
}

// rows returns the tabs currently drawn, in tree order. Fully collapsed
// tabs are hidden; tabs still animating stay visible.
func (m *Model) rows() []row {
	out := make([]row, 0, len(m.tree.nodes))
	for _, n := range m.tree.nodes {
		tab, ok := m.tabs.Get(n.id)
		if !ok {
			continue
		}
		if tab.Collapsed() && tab.HasState(types.TabStateCollapsedDone) {
			continue
		}
		out = append(out, row{node: n, tab: tab})
	}
	return out
}

// unit is the per-level indent the current stylesheet yields.
func (m *Model) unit() int {
	params := m.settings.IndentParams()
	sheet := m.indent.Stylesheet()
	if sheet.LastMaxIndent < 0 {
		return params.BaseIndent
	}
	return indent.UnitFor(m.surface.MaxTreeLevel(), sheet.LastMaxIndent, params)
}

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	var b strings.Builder
	unit := m.unit()
	params := m.settings.IndentParams()

	for _, r := range m.rows() {
		b.WriteString(m.renderRow(r, unit, params))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(statusStyle.Render(fmt.Sprintf("depth %d  unit %dpx  width %dpx  sheets %d",
		m.surface.MaxTreeLevel(), unit, m.surface.Width(), m.surface.Applied())))
	b.WriteByte('\n')
	if tip := m.tooltip(); tip != "" {
		b.WriteString(statusStyle.Render(tip))
		b.WriteByte('\n')
	}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.truncate(m.status)))
		b.WriteByte('\n')
	}
	if m.showSheet {
		b.WriteByte('\n')
		b.WriteString(m.renderStylesheet())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderRow(r row, unit int, params indent.Params) string {
	px := 0
	if !r.tab.HasState(types.TabStatePinned) {
		px = indent.IndentFor(r.tab.Level(), unit, params)
	}
	twisty := "  "
	if m.tree.hasChildren(r.id) {
		twisty = "▾ "
		if r.tab.HasState(types.TabStateSubtreeCollapsed) {
			twisty = "▸ "
		}
	}
	line := m.truncate(strings.Repeat(" ", px/pxPerColumn) + twisty + r.title)

	style := rowStyle
	switch {
	case r.id == m.selected:
		style = selectedStyle
	case r.tab.HasState(types.TabStateCollapsing), r.tab.HasState(types.TabStateExpanding):
		style = transitionStyle
	case r.tab.HasState(types.TabStatePinned):
		style = pinnedStyle
	}
	return style.Render(line)
}

func (m *Model) tooltip() string {
	n := m.tree.get(m.selected)
	if n == nil {
		return ""
	}
	tab, ok := m.tabs.Get(n.id)
	if !ok {
		return ""
	}
	tip := fmt.Sprintf("%s  level %d  [%s]", n.title, tab.Level(), tab.State())
	if tab.HasState(types.TabStateSubtreeCollapsed) {
		if i := m.tree.index(n.id); i >= 0 {
			tip += fmt.Sprintf("  %d hidden", len(m.tree.descendants(i)))
		}
	}
	return m.truncate(tip)
}

func (m *Model) renderStylesheet() string {
	lines := strings.Split(m.surface.Stylesheet(), "\n")
	shown := lines
	if len(shown) > stylesheetPreview {
		shown = shown[:stylesheetPreview]
	}
	for i, line := range shown {
		shown[i] = m.truncate(line)
	}
	out := sheetStyle.Render(strings.Join(shown, "\n"))
	if rest := len(lines) - len(shown); rest > 0 {
		out += "\n" + statusStyle.Render(fmt.Sprintf("… %d more lines", rest))
	}
	return out
}

func (m *Model) truncate(line string) string {
	if m.width <= 0 {
		return line
	}
	return ansi.Truncate(line, m.width, "…")
}

// Stylesheet returns the current stylesheet state for persisting.
func (m *Model) Stylesheet() indent.Cache {
	return m.indent.Stylesheet()
}
