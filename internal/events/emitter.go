// Package events provides typed, synchronous notification channels.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

type Listener[T any] func(T) error

type subscriber[T any] struct {
	id int
	fn Listener[T]
}

// Emitter fans a payload out to every registered listener, in registration
// order, on the caller's goroutine. A failing or panicking listener does not
// stop the remaining ones.
type Emitter[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

// AddListener registers fn and returns the function that removes it.
func (e *Emitter[T]) AddListener(fn Listener[T]) func() {
	if e == nil || fn == nil {
		return func() {}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber[T]{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() { e.removeListener(id) })
	}
}

// Listen registers a listener that cannot fail.
func (e *Emitter[T]) Listen(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	return e.AddListener(func(payload T) error {
		fn(payload)
		return nil
	})
}

func (e *Emitter[T]) removeListener(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subs {
		if sub.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

func (e *Emitter[T]) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Dispatch calls the listeners registered at the time of the call. The
// returned error combines every listener failure.
func (e *Emitter[T]) Dispatch(payload T) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	subs := append([]subscriber[T](nil), e.subs...)
	e.mu.Unlock()

	var err error
	for _, sub := range subs {
		err = multierr.Append(err, invoke(sub.fn, payload))
	}
	return err
}

func invoke[T any](fn Listener[T], payload T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return fn(payload)
}
