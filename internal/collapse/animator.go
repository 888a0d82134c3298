// Package collapse drives the collapsed/expanded visual state of tab rows,
// including cancellable collapse/expand animations.
//
// Several triggers (a user action, a synchronization message, a cascading
// subtree toggle) may request opposite transitions on the same tab before
// the first one finishes. Only the last requested direction wins: every
// request cancels the handle of the previous transition first, and every
// deferred callback re-validates liveness and cancellation before touching
// the tab.
package collapse

import (
	"time"

	"tabsync/internal/events"
	"tabsync/internal/logging"
	"tabsync/internal/loop"
	"tabsync/internal/metrics"
	"tabsync/internal/registry"
	"tabsync/internal/types"
)

type Registry interface {
	IsLive(tab *registry.Tab) bool
	SetVisible(tab *registry.Tab, visible bool)
	SetExpanded(tab *registry.Tab, expanded bool)
}

type Settings interface {
	AnimationEnabled() bool
	CollapseDuration() time.Duration
}

type Request struct {
	Collapsed bool
	JustNow   bool
	Anchor    *registry.Tab
	Last      bool
}

// Update is the payload of OnUpdating and OnUpdated.
type Update struct {
	Tab       *registry.Tab
	Collapsed bool
	Anchor    *registry.Tab
	Last      bool
}

type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipAnimationDisabled SkipReason = "animation-disabled"
	SkipJustNow           SkipReason = "just-now"
	SkipNoDuration        SkipReason = "no-duration"
	SkipUnchanged         SkipReason = "unchanged"
)

type record struct {
	canceller  *Canceller
	completion *completion
}

type completion struct {
	timer loop.Timer
	run   func()
}

type Animator struct {
	tabs     Registry
	clock    loop.Scheduler
	settings Settings
	log      logging.Logger
	metrics  *metrics.Metrics
	records  map[types.TabID]*record

	// OnUpdating fires at the frame an animation visually starts.
	OnUpdating events.Emitter[Update]
	// OnUpdated fires when the state changed or settled.
	OnUpdated events.Emitter[Update]
	// OnReadyToExpand fires before a fully collapsed tab starts expanding.
	OnReadyToExpand events.Emitter[*registry.Tab]
}

type Option func(*Animator)

func WithLogger(logger logging.Logger) Option {
	return func(a *Animator) {
		if logger != nil {
			a.log = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Animator) {
		a.metrics = m
	}
}

func New(tabs Registry, clock loop.Scheduler, settings Settings, opts ...Option) *Animator {
	a := &Animator{
		tabs:     tabs,
		clock:    clock,
		settings: settings,
		log:      logging.Nop(),
		records:  map[types.TabID]*record{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("collapse")
	return a
}

func (a *Animator) SetCollapsed(tab *registry.Tab, req Request) {
	if a == nil || !a.tabs.IsLive(tab) {
		return
	}
	a.log.Debug("set collapsed",
		logging.F("tab", tab.ID()),
		logging.F("collapsed", req.Collapsed),
		logging.F("just_now", req.JustNow),
		logging.F("state", tab.State()))

	changed := req.Collapsed != tab.Collapsed()
	tab.ShouldExpandLater = false

	if req.Collapsed {
		tab.AddState(types.TabStateCollapsed)
		a.tabs.SetVisible(tab, false)
		a.tabs.SetExpanded(tab, false)
	} else {
		if tab.HasState(types.TabStateCollapsedDone) {
			tab.RemoveState(types.TabStateCollapsedDone)
			a.report("ready-to-expand", a.OnReadyToExpand.Dispatch(tab))
			if !a.tabs.IsLive(tab) {
				return
			}
		}
		tab.RemoveState(types.TabStateCollapsed)
		a.tabs.SetVisible(tab, true)
		a.tabs.SetExpanded(tab, true)
	}

	rec := a.record(tab.ID())
	if rec.completion != nil {
		rec.completion.timer.Stop()
		rec.completion = nil
	}

	if tab.Loading() {
		tab.AddState(types.TabStateThrobberUnsynchronized)
	}

	if rec.canceller != nil {
		if rec.canceller.Cancel(tab.Collapsed()) {
			a.metrics.TransitionCancelled()
		}
		rec.canceller = nil
	}

	if reason := a.SkipReason(req, changed); reason != SkipNone {
		a.log.Debug("skip animation", logging.F("tab", tab.ID()), logging.F("reason", string(reason)))
		a.metrics.Transition(req.Collapsed, false)
		a.settle(tab, req)
		return
	}
	a.metrics.Transition(req.Collapsed, true)
	a.animate(tab, rec, req)
}

// SkipReason reports why a request settles immediately instead of
// animating. Each condition is checked on its own.
func (a *Animator) SkipReason(req Request, changed bool) SkipReason {
	switch {
	case a.settings == nil || !a.settings.AnimationEnabled():
		return SkipAnimationDisabled
	case req.JustNow:
		return SkipJustNow
	case a.settings.CollapseDuration() < time.Millisecond:
		return SkipNoDuration
	case !changed:
		return SkipUnchanged
	default:
		return SkipNone
	}
}

func (a *Animator) settle(tab *registry.Tab, req Request) {
	if tab.Collapsed() {
		tab.RemoveState(types.TabStateCollapsing)
		tab.AddState(types.TabStateCollapsedDone)
	} else {
		tab.RemoveState(types.TabStateExpanding)
	}
	a.emitUpdated(Update{
		Tab:       tab,
		Collapsed: tab.Collapsed(),
		Anchor:    req.Anchor,
		Last:      req.Last,
	})
}

func (a *Animator) animate(tab *registry.Tab, rec *record, req Request) {
	canceller := newCanceller(tab, req.Collapsed)
	rec.canceller = canceller

	if tab.Collapsed() {
		tab.RemoveState(types.TabStateExpanding)
		tab.AddState(types.TabStateCollapsing)
	} else {
		tab.RemoveState(types.TabStateCollapsing)
		tab.AddState(types.TabStateExpanding)
		tab.RemoveState(types.TabStateCollapsedDone)
	}

	// Dependent layout reacts to the target state before the animation ends.
	a.emitUpdated(Update{Tab: tab, Collapsed: req.Collapsed})

	a.clock.NextFrame(func() {
		if canceller.Cancelled() || !a.tabs.IsLive(tab) {
			return
		}
		a.report("updating", a.OnUpdating.Dispatch(Update{
			Tab:       tab,
			Collapsed: req.Collapsed,
			Anchor:    req.Anchor,
			Last:      req.Last,
		}))
		if canceller.Cancelled() || !a.tabs.IsLive(tab) {
			return
		}

		comp := &completion{}
		comp.run = func() {
			if canceller.Cancelled() || !a.tabs.IsLive(tab) {
				return
			}
			tab.RemoveState(types.TabStateCollapsing)
			tab.RemoveState(types.TabStateExpanding)
			// Another trigger may have changed the tab meanwhile, so the
			// actual flag wins over the requested one.
			tab.ToggleState(types.TabStateCollapsedDone, tab.Collapsed())
			if rec.canceller == canceller {
				rec.canceller = nil
			}
			a.emitUpdated(Update{Tab: tab, Collapsed: tab.Collapsed()})
		}
		comp.timer = a.clock.AfterFunc(a.settings.CollapseDuration(), func() {
			if rec.completion != comp {
				return
			}
			rec.completion = nil
			comp.run()
		})
		rec.completion = comp
	})
}

// FinishAnimation runs the pending completion of tab right away, e.g. when
// the render surface reports that the transition ended. It reports whether
// a completion was pending.
func (a *Animator) FinishAnimation(tab *registry.Tab) bool {
	if a == nil || tab == nil {
		return false
	}
	rec, ok := a.records[tab.ID()]
	if !ok || rec.completion == nil {
		return false
	}
	comp := rec.completion
	rec.completion = nil
	comp.timer.Stop()
	comp.run()
	return true
}

// Animating reports whether a transition of id is still in flight.
func (a *Animator) Animating(id types.TabID) bool {
	if a == nil {
		return false
	}
	rec, ok := a.records[id]
	return ok && rec.canceller != nil && !rec.canceller.Cancelled()
}

// Forget drops the per-tab record of a removed tab without emitting.
func (a *Animator) Forget(id types.TabID) {
	if a == nil {
		return
	}
	rec, ok := a.records[id]
	if !ok {
		return
	}
	if rec.completion != nil {
		rec.completion.timer.Stop()
		rec.completion = nil
	}
	if rec.canceller != nil {
		rec.canceller.cancelled = true
		rec.canceller = nil
	}
	delete(a.records, id)
}

func (a *Animator) record(id types.TabID) *record {
	rec, ok := a.records[id]
	if !ok {
		rec = &record{}
		a.records[id] = rec
	}
	return rec
}

func (a *Animator) emitUpdated(update Update) {
	a.report("updated", a.OnUpdated.Dispatch(update))
}

func (a *Animator) report(channel string, err error) {
	if err == nil {
		return
	}
	a.log.Warn("listener failed", logging.F("channel", channel), logging.F("err", err))
}
