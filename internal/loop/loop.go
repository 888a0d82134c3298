// Package loop runs the sidebar mirror on a single cooperative event loop.
// Callbacks scheduled through a Scheduler never run concurrently with each
// other, so state touched only from callbacks needs no locking.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// FrameInterval is the spacing of render-frame boundaries.
const FrameInterval = 16 * time.Millisecond

var ErrClosed = errors.New("loop closed")

type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped a callback that had not run yet.
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	NextFrame(fn func()) Timer
	Now() time.Time
}

// Loop executes posted closures one at a time on its own goroutine.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once

	frameMu      sync.Mutex
	frameQueue   []*loopTimer
	framePending bool
}

func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Loop{
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes closures until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return ErrClosed
	}
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

func (l *Loop) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Post enqueues fn. It blocks while the queue is full and returns
// ErrClosed once the loop has stopped.
func (l *Loop) Post(fn func()) error {
	if l == nil || fn == nil {
		return ErrClosed
	}
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	t := &loopTimer{fn: fn}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(t.fire)
	})
	return t
}

// NextFrame queues fn for the next frame boundary. All callbacks queued
// before a boundary run together, in order.
func (l *Loop) NextFrame(fn func()) Timer {
	t := &loopTimer{fn: fn}
	l.frameMu.Lock()
	l.frameQueue = append(l.frameQueue, t)
	schedule := !l.framePending
	l.framePending = true
	l.frameMu.Unlock()
	if schedule {
		time.AfterFunc(FrameInterval, func() {
			_ = l.Post(l.flushFrame)
		})
	}
	return t
}

func (l *Loop) flushFrame() {
	l.frameMu.Lock()
	queued := l.frameQueue
	l.frameQueue = nil
	l.framePending = false
	l.frameMu.Unlock()
	for _, t := range queued {
		t.fire()
	}
}

type loopTimer struct {
	timer   *time.Timer
	fn      func()
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if t == nil {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	return t.stopped.CompareAndSwap(false, true)
}

func (t *loopTimer) fire() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.fn != nil {
		t.fn()
	}
}
