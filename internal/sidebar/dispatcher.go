// Package sidebar routes synchronization messages from the tree owner to
// the collapse animator and the indent scheduler.
package sidebar

import (
	"context"
	"fmt"
	"time"

	"tabsync/internal/coalesce"
	"tabsync/internal/collapse"
	"tabsync/internal/indent"
	"tabsync/internal/logging"
	"tabsync/internal/loop"
	"tabsync/internal/metrics"
	"tabsync/internal/registry"
	"tabsync/internal/types"
)

const (
	collapseExpandKeyPrefix = "collapse-expand-"
	indentKeyPrefix         = "indent-"

	defaultTrackTimeout = 5 * time.Second
)

// Part names the pieces of a tab row that can be redrawn on their own.
type Part uint8

const (
	PartTwisty Part = 1 << iota
	PartTooltip
)

type Renderer interface {
	Invalidate(tab *registry.Tab, parts Part)
}

type Poster interface {
	Post(fn func()) error
}

type Dispatcher struct {
	tabs         *registry.Store
	clock        loop.Scheduler
	coalescer    *coalesce.Coalescer
	animator     *collapse.Animator
	indent       *indent.Scheduler
	renderer     Renderer
	windowID     int
	trackTimeout time.Duration
	log          logging.Logger
	metrics      *metrics.Metrics

	unsubscribe []func()
}

type Option func(*Dispatcher)

func WithLogger(logger logging.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.log = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithRenderer(renderer Renderer) Option {
	return func(d *Dispatcher) {
		d.renderer = renderer
	}
}

func WithTrackTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.trackTimeout = timeout
		}
	}
}

// WithWindow sets the window assigned to tabs tracked from tab-created
// notifications.
func WithWindow(windowID int) Option {
	return func(d *Dispatcher) {
		d.windowID = windowID
	}
}

// New connects the animator and the indent scheduler to the registry and
// returns the dispatcher feeding them.
func New(tabs *registry.Store, clock loop.Scheduler, animator *collapse.Animator, scheduler *indent.Scheduler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tabs:         tabs,
		clock:        clock,
		coalescer:    coalesce.New(),
		animator:     animator,
		indent:       scheduler,
		trackTimeout: defaultTrackTimeout,
		log:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.Named("sidebar")
	d.unsubscribe = append(d.unsubscribe,
		animator.OnUpdated.Listen(scheduler.HandleUpdated),
		tabs.OnRemoved.Listen(func(tab *registry.Tab) {
			animator.Forget(tab.ID())
		}),
	)
	return d
}

// Close detaches the listeners installed by New.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	for _, fn := range d.unsubscribe {
		fn()
	}
	d.unsubscribe = nil
}

// Pending reports how many buffered messages wait for their tab.
func (d *Dispatcher) Pending() int {
	if d == nil {
		return 0
	}
	return d.coalescer.Pending()
}

// Handle processes one message. It must run on the loop that owns the
// registry.
func (d *Dispatcher) Handle(msg types.Message) {
	if d == nil || msg == nil {
		return
	}
	d.metrics.MessageReceived(msg.Kind())
	d.log.Debug("message", logging.F("kind", string(msg.Kind())), logging.F("tab", msg.Tab()))

	if m, ok := msg.(types.TabTopologyChanged); ok && m.Kind() == types.MessageTabCreated {
		if _, tracked := d.tabs.Get(m.TabID); !tracked {
			d.tabs.Track(registry.TabInit{ID: m.TabID, WindowID: d.windowID})
		}
	}

	d.indent.HandleMessage(msg)

	switch m := msg.(type) {
	case types.SubtreeCollapsedStateChanged:
		d.buffered(m, collapseExpandKeyPrefix, func(tab *registry.Tab, latest types.Message) {
			d.applySubtreeCollapsed(tab, latest.(types.SubtreeCollapsedStateChanged))
		})
	case types.TabCollapsedStateChanged:
		d.buffered(m, collapseExpandKeyPrefix, func(tab *registry.Tab, latest types.Message) {
			d.applyTabCollapsed(tab, latest.(types.TabCollapsedStateChanged))
		})
	case types.TabLevelChanged:
		d.buffered(m, indentKeyPrefix, func(tab *registry.Tab, latest types.Message) {
			d.indent.ApplyLevel(tab, latest.(types.TabLevelChanged).Level)
		})
	case types.TabTopologyChanged:
		if m.Kind() == types.MessageTabRemoving {
			d.tabs.Remove(m.TabID)
			d.indent.Forget(m.TabID)
		}
	}
}

// buffered records msg and, unless a delivery for the same key is already
// waiting, applies the latest buffered message once the tab is known.
func (d *Dispatcher) buffered(msg types.Message, prefix string, apply func(*registry.Tab, types.Message)) {
	key := prefix + msg.Tab().String()
	if d.coalescer.Buffer(msg, key) {
		d.metrics.MessageSuperseded(msg.Kind())
		d.log.Debug("superseded", logging.F("kind", string(msg.Kind())), logging.F("key", key))
		return
	}
	d.whenTracked(msg.Tab(), func(tab *registry.Tab) {
		latest, ok := d.coalescer.Take(msg.Kind(), key)
		if tab == nil {
			d.indent.Forget(msg.Tab())
			return
		}
		if !ok {
			return
		}
		apply(tab, latest)
	})
}

// whenTracked calls fn with the tab once it is tracked, or with nil when
// trackTimeout elapses first. fn never runs synchronously, so messages
// already queued behind the current one get buffered before it reads.
func (d *Dispatcher) whenTracked(id types.TabID, fn func(*registry.Tab)) {
	d.clock.AfterFunc(0, func() {
		if tab, ok := d.tabs.Get(id); ok {
			fn(tab)
			return
		}
		done := false
		var timeout loop.Timer
		var remove func()
		finish := func(tab *registry.Tab) {
			if done {
				return
			}
			done = true
			remove()
			timeout.Stop()
			fn(tab)
		}
		remove = d.tabs.OnTracked.Listen(func(tab *registry.Tab) {
			if tab.ID() == id {
				finish(tab)
			}
		})
		timeout = d.clock.AfterFunc(d.trackTimeout, func() {
			d.log.Debug("tab not tracked in time", logging.F("tab", id), logging.F("timeout", d.trackTimeout.String()))
			finish(nil)
		})
	})
}

func (d *Dispatcher) applySubtreeCollapsed(tab *registry.Tab, msg types.SubtreeCollapsedStateChanged) {
	tab.ToggleState(types.TabStateSubtreeCollapsed, msg.Collapsed)
	if d.renderer != nil {
		d.renderer.Invalidate(tab, PartTwisty|PartTooltip)
	}
}

func (d *Dispatcher) applyTabCollapsed(tab *registry.Tab, msg types.TabCollapsedStateChanged) {
	if tab.CollapsedOnCreated {
		if !tab.Collapsed() {
			// Someone expanded it since it was created.
			tab.CollapsedOnCreated = false
		}
		if tab.HasState(types.TabStateExpanding) || !tab.HasState(types.TabStateCollapsedDone) {
			return
		}
		if !tab.Collapsed() {
			tab.AddState(types.TabStateCollapsedDone)
			tab.AddState(types.TabStateCollapsed)
			d.tabs.SetVisible(tab, false)
			d.tabs.SetExpanded(tab, false)
		}
	}

	var anchor *registry.Tab
	if msg.AnchorID != nil {
		anchor, _ = d.tabs.Get(*msg.AnchorID)
	}
	d.animator.SetCollapsed(tab, collapse.Request{
		Collapsed: msg.Collapsed,
		JustNow:   msg.JustNow,
		Anchor:    anchor,
		Last:      msg.Last,
	})
}

// Run forwards messages onto the loop until ctx is done or messages is
// closed.
func (d *Dispatcher) Run(ctx context.Context, poster Poster, messages <-chan types.Message) error {
	if d == nil || poster == nil {
		return fmt.Errorf("dispatcher is not configured")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := poster.Post(func() { d.Handle(msg) }); err != nil {
				return fmt.Errorf("post message: %w", err)
			}
		}
	}
}
