package indent

import (
	"time"

	"tabsync/internal/collapse"
	"tabsync/internal/events"
	"tabsync/internal/logging"
	"tabsync/internal/loop"
	"tabsync/internal/metrics"
	"tabsync/internal/registry"
	"tabsync/internal/types"
)

const reserveDelayWithoutAnimation = 100 * time.Millisecond

// Surface is the render layer consuming the depth marker and stylesheet.
type Surface interface {
	// Width is the current tab bar width in pixels.
	Width() int
	SetMaxTreeLevel(level int)
	ApplyStylesheet(definition string)
}

type Tabs interface {
	Tabs(windowID int, onlyVisible bool) []*registry.Tab
}

type Settings interface {
	AnimationEnabled() bool
	CollapseDuration() time.Duration
	IndentDuration() time.Duration
	IndentParams() Params
	AutoShrink() bool
	AutoShrinkOnlyForVisible() bool
	WidthRatio() float64
	MaxImmediateRefreshCount() int
	ImmediateRefreshWindow() time.Duration
}

// Scheduler throttles maximum depth recomputation and stylesheet rebuilds.
//
// Reset rules: the immediate refresh counter goes back to zero when the
// refresh window elapses after the last immediate recompute, or when a
// deferred recompute runs. A new deferred request replaces the pending one,
// and so does a new reserve request.
type Scheduler struct {
	tabs       Tabs
	clock      loop.Scheduler
	settings   Settings
	windowID   int
	log        logging.Logger
	metrics    *metrics.Metrics
	stylesheet *Stylesheet

	surface Surface
	waiting []func()

	calledCount   int
	resetTimer    loop.Timer
	deferredTimer loop.Timer
	deferredSeq   uint64
	reserveTimer  loop.Timer
	reserveSeq    uint64

	batch map[types.TabID]struct{}

	// OnStylesheetChanged fires after a new definition was applied.
	OnStylesheetChanged events.Emitter[Cache]
}

type Option func(*Scheduler)

func WithLogger(logger logging.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithWindow(windowID int) Option {
	return func(s *Scheduler) {
		s.windowID = windowID
	}
}

func NewScheduler(tabs Tabs, clock loop.Scheduler, settings Settings, opts ...Option) *Scheduler {
	s := &Scheduler{
		tabs:     tabs,
		clock:    clock,
		settings: settings,
		log:      logging.Nop(),
		batch:    map[types.TabID]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("indent")
	s.stylesheet = NewStylesheet(settings.IndentParams())
	return s
}

// Init attaches the render surface and releases the work queued while the
// scheduler was waiting for it.
func (s *Scheduler) Init(surface Surface) {
	if s == nil || surface == nil || s.surface != nil {
		return
	}
	s.surface = surface
	waiting := s.waiting
	s.waiting = nil
	for _, fn := range waiting {
		fn()
	}
}

func (s *Scheduler) Initialized() bool {
	return s != nil && s.surface != nil
}

func (s *Scheduler) whenInitialized(fn func()) {
	if s.surface == nil {
		s.waiting = append(s.waiting, fn)
		return
	}
	fn()
}

// TryUpdate requests a depth recomputation. Without animation it runs
// right away while the immediate budget lasts; otherwise it is deferred
// until running collapse animations are over.
func (s *Scheduler) TryUpdate() {
	if s == nil {
		return
	}
	if s.deferredTimer != nil {
		s.deferredTimer.Stop()
		s.deferredTimer = nil
	}
	s.calledCount++

	animation := s.settings.AnimationEnabled()
	if !animation && s.calledCount <= s.settings.MaxImmediateRefreshCount() {
		s.Recompute()
		if s.resetTimer != nil {
			s.resetTimer.Stop()
		}
		s.resetTimer = s.clock.AfterFunc(s.settings.ImmediateRefreshWindow(), func() {
			s.resetTimer = nil
			s.calledCount = 0
		})
		return
	}

	var delay time.Duration
	if animation {
		delay = max(0, s.settings.CollapseDuration()) * 3 / 2
	}
	s.deferredSeq++
	seq := s.deferredSeq
	s.deferredTimer = s.clock.AfterFunc(delay, func() {
		if seq != s.deferredSeq {
			return
		}
		s.deferredTimer = nil
		s.calledCount = 0
		s.Recompute()
	})
}

// Recompute publishes the maximum depth of the window, at least 1.
func (s *Scheduler) Recompute() {
	if s == nil {
		return
	}
	s.whenInitialized(func() {
		level := max(1, s.maxTreeLevel(s.settings.AutoShrinkOnlyForVisible()))
		s.log.Debug("recompute max tree level", logging.F("level", level))
		s.surface.SetMaxTreeLevel(level)
		s.metrics.DepthRecomputed(level)
	})
}

func (s *Scheduler) maxTreeLevel(onlyVisible bool) int {
	level := 0
	for _, tab := range s.tabs.Tabs(s.windowID, onlyVisible) {
		level = max(level, tab.Level())
	}
	if limit := s.settings.IndentParams().MaxTreeLevel; limit > -1 {
		level = min(level, limit)
	}
	return level
}

// ReserveUpdateIndent schedules a stylesheet refresh after layout settles.
func (s *Scheduler) ReserveUpdateIndent() {
	if s == nil {
		return
	}
	s.whenInitialized(func() {
		if s.reserveTimer != nil {
			s.reserveTimer.Stop()
		}
		delay := reserveDelayWithoutAnimation
		if s.settings.AnimationEnabled() {
			delay = max(s.settings.IndentDuration(), s.settings.CollapseDuration()) * 3 / 2
		}
		s.reserveSeq++
		seq := s.reserveSeq
		s.reserveTimer = s.clock.AfterFunc(delay, func() {
			if seq != s.reserveSeq {
				return
			}
			s.reserveTimer = nil
			s.UpdateIndent(false)
		})
	})
}

// UpdateIndent rebuilds the stylesheet when the depth grew past the
// generated range or the available width changed, or always with force.
func (s *Scheduler) UpdateIndent(force bool) {
	if s == nil {
		return
	}
	s.whenInitialized(func() {
		s.stylesheet.SetParams(s.settings.IndentParams())
		maxIndent := float64(s.surface.Width()) * s.settings.WidthRatio()
		if !s.stylesheet.Update(s.maxTreeLevel(false), maxIndent, force) {
			return
		}
		s.apply(false)
	})
}

// RestoreTree publishes the current depth and adopts cache as the
// stylesheet. A nil cache forces a fresh build.
func (s *Scheduler) RestoreTree(cache *Cache) {
	if s == nil {
		return
	}
	s.Recompute()
	if cache == nil {
		s.UpdateIndent(true)
		return
	}
	restored := *cache
	s.whenInitialized(func() {
		s.stylesheet.SetParams(s.settings.IndentParams())
		s.stylesheet.Restore(restored)
		s.apply(restored.Definition != "")
	})
}

func (s *Scheduler) apply(fromCache bool) {
	cache := s.stylesheet.Cache()
	s.log.Debug("apply stylesheet",
		logging.F("last_max_level", cache.LastMaxLevel),
		logging.F("last_max_indent", cache.LastMaxIndent),
		logging.F("from_cache", fromCache))
	s.surface.ApplyStylesheet(cache.Definition)
	s.metrics.StylesheetGenerated(fromCache)
	if err := s.OnStylesheetChanged.Dispatch(cache); err != nil {
		s.log.Warn("listener failed", logging.F("channel", "stylesheet-changed"), logging.F("err", err))
	}
}

func (s *Scheduler) Stylesheet() Cache {
	if s == nil {
		return Cache{LastMaxLevel: -1, LastMaxIndent: -1}
	}
	return s.stylesheet.Cache()
}

// BeginBatch registers tabs whose visibility changes together. Their
// individual collapse notifications do not recompute until the last one
// has settled.
func (s *Scheduler) BeginBatch(ids []types.TabID) {
	if s == nil {
		return
	}
	for _, id := range ids {
		s.batch[id] = struct{}{}
	}
}

func (s *Scheduler) PendingBatch() int {
	if s == nil {
		return 0
	}
	return len(s.batch)
}

// Forget drops id from the pending batch, e.g. when its tab is closed or
// never shows up. Emptying the batch this way recomputes once, since the
// settle notification that would have done it is not coming.
func (s *Scheduler) Forget(id types.TabID) {
	if s == nil {
		return
	}
	if _, pending := s.batch[id]; !pending {
		return
	}
	delete(s.batch, id)
	if len(s.batch) == 0 {
		s.TryUpdate()
	}
}

// NoteCollapsedStateChanged handles a collapsed-state notification for id.
func (s *Scheduler) NoteCollapsedStateChanged(id types.TabID) {
	if s == nil {
		return
	}
	if _, pending := s.batch[id]; pending {
		return
	}
	s.TryUpdate()
}

// HandleUpdated drains id from the pending batch after its collapsed state
// was applied.
func (s *Scheduler) HandleUpdated(update collapse.Update) {
	if s == nil {
		return
	}
	id := update.Tab.ID()
	_, finishBatch := s.batch[id]
	delete(s.batch, id)

	if (s.settings.AutoShrink() && s.settings.AutoShrinkOnlyForVisible()) ||
		(finishBatch && len(s.batch) == 0) {
		s.TryUpdate()
	}
}

// ApplyLevel stores a new level for tab and schedules the dependent work.
func (s *Scheduler) ApplyLevel(tab *registry.Tab, level int) {
	if s == nil || tab == nil {
		return
	}
	if tab.Level() != level {
		tab.SetLevel(level)
		s.TryUpdate()
	}
	s.ReserveUpdateIndent()
}

func (s *Scheduler) HandleResize() {
	s.ReserveUpdateIndent()
}

// HandleMessage reacts to the tree notifications that affect depth or
// spacing. Level changes go through ApplyLevel once the tab is known.
func (s *Scheduler) HandleMessage(msg types.Message) {
	if s == nil || msg == nil {
		return
	}
	switch m := msg.(type) {
	case types.SubtreeCollapsedStateChanged:
		s.BeginBatch(m.VisibilityChangedTabIDs)
	case types.TabCollapsedStateChanged:
		s.NoteCollapsedStateChanged(m.TabID)
	case types.TabTopologyChanged:
		switch m.Kind() {
		case types.MessageTabCreated, types.MessageTabRemoving:
			s.TryUpdate()
		case types.MessageTabShown, types.MessageTabHidden, types.MessageChildrenChanged:
			s.ReserveUpdateIndent()
			s.TryUpdate()
		}
	}
}
