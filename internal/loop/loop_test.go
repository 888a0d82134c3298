package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualRunsTimersInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Time{})
	var got []string
	m.AfterFunc(20*time.Millisecond, func() { got = append(got, "late") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "early") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "early-2") })

	m.Advance(15 * time.Millisecond)
	assert.Equal(t, []string{"early", "early-2"}, got)

	m.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"early", "early-2", "late"}, got)
	assert.Zero(t, m.Pending())
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := NewManual(time.Time{})
	fired := false
	timer := m.AfterFunc(time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	m.Advance(time.Second)
	assert.False(t, fired)
}

func TestManualRunsCallbacksScheduledWhileAdvancing(t *testing.T) {
	m := NewManual(time.Time{})
	var at []time.Duration
	start := m.Now()
	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now().Sub(start))
		m.AfterFunc(5*time.Millisecond, func() {
			at = append(at, m.Now().Sub(start))
		})
	})

	m.Advance(time.Second)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, at)
	assert.Equal(t, time.Second, m.Now().Sub(start))
}

func TestManualNextFrameAlignsToFrameBoundary(t *testing.T) {
	m := NewManual(time.Time{})
	m.Advance(5 * time.Millisecond)
	fired := false
	m.NextFrame(func() { fired = true })

	m.Advance(FrameInterval - 5*time.Millisecond - time.Millisecond)
	assert.False(t, fired)
	m.Advance(time.Millisecond)
	assert.True(t, fired)
}

func TestManualFlushRunsZeroDelayOnly(t *testing.T) {
	m := NewManual(time.Time{})
	var got []int
	m.AfterFunc(0, func() { got = append(got, 0) })
	m.AfterFunc(time.Millisecond, func() { got = append(got, 1) })

	m.Flush()
	assert.Equal(t, []int{0}, got)
}

func TestLoopSerializesPostedWork(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	var counter int
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Post(func() { counter++ }))
	}
	var got int
	require.NoError(t, l.Call(ctx, func() { got = counter }))
	assert.Equal(t, 100, got)
}

func TestLoopTimersAndFramesRunOnLoop(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	var fired atomic.Int32
	done := make(chan struct{})
	require.NoError(t, l.Post(func() {
		l.AfterFunc(time.Millisecond, func() {
			fired.Add(1)
			l.NextFrame(func() {
				fired.Add(1)
				close(done)
			})
		})
		stopped := l.AfterFunc(time.Millisecond, func() { fired.Add(100) })
		stopped.Stop()
	}))

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timeout waiting for frame callback")
	}
	assert.EqualValues(t, 2, fired.Load())
}

func TestLoopPostAfterCloseFails(t *testing.T) {
	l := New(1)
	l.Close()
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrClosed)
}
