package loop

import (
	"container/heap"
	"time"
)

// Manual is a virtual-time Scheduler. Nothing runs until the owner calls
// Advance or Flush, and callbacks run on the caller's goroutine.
type Manual struct {
	now     time.Time
	seq     uint64
	pending timerHeap
}

func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	heap.Push(&m.pending, t)
	return t
}

// NextFrame schedules fn at the next multiple of FrameInterval.
func (m *Manual) NextFrame(fn func()) Timer {
	elapsed := m.now.Sub(time.Unix(0, 0))
	next := FrameInterval - elapsed%FrameInterval
	return m.AfterFunc(next, fn)
}

// Advance moves virtual time forward by d, running every callback that
// becomes due, including callbacks scheduled while advancing.
func (m *Manual) Advance(d time.Duration) {
	deadline := m.now.Add(d)
	for m.pending.Len() > 0 {
		next := m.pending[0]
		if next.at.After(deadline) {
			break
		}
		heap.Pop(&m.pending)
		if next.at.After(m.now) {
			m.now = next.at
		}
		next.fire()
	}
	m.now = deadline
}

// Flush runs everything that is due without moving time.
func (m *Manual) Flush() {
	m.Advance(0)
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	count := 0
	for _, t := range m.pending {
		if !t.stopped {
			count++
		}
	}
	return count
}

type manualTimer struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	index   int
}

func (t *manualTimer) Stop() bool {
	if t == nil || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) fire() {
	if t.stopped {
		return
	}
	t.stopped = true
	if t.fn != nil {
		t.fn()
	}
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
