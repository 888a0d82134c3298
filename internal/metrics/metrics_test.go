package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabsync/internal/types"
)

func TestCountersAreIndependentPerInstance(t *testing.T) {
	a := New()
	b := New()

	a.MessageReceived(types.MessageTabCreated)
	a.MessageReceived(types.MessageTabCreated)
	a.MessageSuperseded(types.MessageTabCollapsedStateChanged)
	a.Transition(true, true)
	a.Transition(false, false)
	a.TransitionCancelled()
	a.DepthRecomputed(4)
	a.StylesheetGenerated(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.MessagesTotal.WithLabelValues("tab-created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.MessagesSuperseded.WithLabelValues("tab-collapsed-state-changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.TransitionsTotal.WithLabelValues("collapse", "animated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.TransitionsTotal.WithLabelValues("expand", "settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.TransitionsCancelled))
	assert.Equal(t, 4.0, testutil.ToFloat64(a.MaxTreeLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.StylesheetGenerations.WithLabelValues("cache")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DepthRecomputes))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.DepthRecomputed(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tabsync_max_tree_level 2")
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.MessageReceived(types.MessageTabShown)
	m.Transition(true, false)
	m.DepthRecomputed(1)
	assert.Nil(t, m.Registry())
}
