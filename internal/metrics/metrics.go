// Package metrics exposes Prometheus counters for the sidebar mirror.
//
// Metrics:
//   - tabsync_messages_total{kind} - synchronization messages received
//   - tabsync_messages_superseded_total{kind} - deliveries dropped by coalescing
//   - tabsync_transitions_total{direction,mode} - collapse/expand requests (mode: animated, settled)
//   - tabsync_transitions_cancelled_total - in-flight animations replaced by a new target
//   - tabsync_depth_recomputes_total - maximum depth recomputations
//   - tabsync_stylesheet_generations_total{source} - indent stylesheet rebuilds (source: computed, cache)
//   - tabsync_max_tree_level - last published maximum depth
//
// All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tabsync/internal/types"
)

type Metrics struct {
	registry *prometheus.Registry

	MessagesTotal         *prometheus.CounterVec
	MessagesSuperseded    *prometheus.CounterVec
	TransitionsTotal      *prometheus.CounterVec
	TransitionsCancelled  prometheus.Counter
	DepthRecomputes       prometheus.Counter
	StylesheetGenerations *prometheus.CounterVec
	MaxTreeLevel          prometheus.Gauge
}

// New registers the collectors on a fresh registry, so several instances
// can coexist (tests, multiple windows).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsync_messages_total",
			Help: "Synchronization messages received, by kind",
		}, []string{"kind"}),
		MessagesSuperseded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsync_messages_superseded_total",
			Help: "Deliveries skipped because a newer message for the same key was buffered",
		}, []string{"kind"}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsync_transitions_total",
			Help: "Collapse/expand requests applied, by direction and mode",
		}, []string{"direction", "mode"}),
		TransitionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsync_transitions_cancelled_total",
			Help: "In-flight collapse/expand animations cancelled by a newer request",
		}),
		DepthRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsync_depth_recomputes_total",
			Help: "Maximum tree depth recomputations",
		}),
		StylesheetGenerations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsync_stylesheet_generations_total",
			Help: "Indent stylesheet rebuilds, by source",
		}, []string{"source"}),
		MaxTreeLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabsync_max_tree_level",
			Help: "Last published maximum tree depth",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) MessageReceived(kind types.MessageKind) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) MessageSuperseded(kind types.MessageKind) {
	if m == nil {
		return
	}
	m.MessagesSuperseded.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Transition(collapsed, animated bool) {
	if m == nil {
		return
	}
	direction := "expand"
	if collapsed {
		direction = "collapse"
	}
	mode := "settled"
	if animated {
		mode = "animated"
	}
	m.TransitionsTotal.WithLabelValues(direction, mode).Inc()
}

func (m *Metrics) TransitionCancelled() {
	if m == nil {
		return
	}
	m.TransitionsCancelled.Inc()
}

func (m *Metrics) DepthRecomputed(level int) {
	if m == nil {
		return
	}
	m.DepthRecomputes.Inc()
	m.MaxTreeLevel.Set(float64(level))
}

func (m *Metrics) StylesheetGenerated(fromCache bool) {
	if m == nil {
		return
	}
	source := "computed"
	if fromCache {
		source = "cache"
	}
	m.StylesheetGenerations.WithLabelValues(source).Inc()
}
