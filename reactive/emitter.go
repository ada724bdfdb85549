package reactive

import (
	"sync"

	"go.uber.org/atomic"
)

// emitter drives one run of a pull-backed source.
//
// It looks one element ahead so that the terminal signal is delivered as soon
// as the source is exhausted, without waiting for more demand. Only one
// goroutine drains at a time: Request calls made while values are being
// delivered, re-entrant or not, only add demand and the running loop picks
// them up, so synchronous chains never recurse.
type emitter[T any] struct {
	pull      func() (T, bool, error)
	release   func()
	interrupt func()

	// Owned by the draining goroutine.
	pending    T
	hasPending bool

	mu         sync.Mutex
	downstream Subscriber[T]
	demand     Demand
	draining   bool
	done       bool
	released   bool

	cancelled *atomic.Bool
}

// runEmitter hands a fresh emitter to sub and delivers whatever the initial
// demand allows. release runs once when the run ends. interrupt, if set, is
// called by Cancel right away, from the cancelling goroutine, so that a pull
// blocked in another goroutine can return.
func runEmitter[T any](sub Subscriber[T], pull func() (T, bool, error), release, interrupt func()) {
	e := &emitter[T]{
		downstream: sub,
		pull:       pull,
		release:    release,
		interrupt:  interrupt,
		cancelled:  atomic.NewBool(false),
	}
	sub.OnSubscribe(e)
	e.drain()
}

func (e *emitter[T]) Request(d Demand) {
	e.mu.Lock()
	if e.done || e.cancelled.Load() {
		e.mu.Unlock()
		return
	}
	e.demand = e.demand.Add(d)
	e.mu.Unlock()
	e.drain()
}

func (e *emitter[T]) Cancel() {
	if !e.cancelled.CompareAndSwap(false, true) {
		return
	}
	if e.interrupt != nil {
		e.interrupt()
	}
	e.mu.Lock()
	draining := e.draining
	e.mu.Unlock()
	// A running drain loop tears down on its next check.
	if !draining {
		e.teardown()
	}
}

func (e *emitter[T]) drain() {
	e.mu.Lock()
	if e.draining || e.done {
		e.mu.Unlock()
		return
	}
	e.draining = true
	downstream := e.downstream
	e.mu.Unlock()

	for {
		if e.cancelled.Load() {
			e.stopDraining()
			e.teardown()
			return
		}
		if !e.hasPending {
			v, ok, err := e.pull()
			// Cancel may have arrived while pull was blocked.
			if e.cancelled.Load() {
				e.stopDraining()
				e.teardown()
				return
			}
			if err != nil {
				e.complete(Failed(err))
				return
			}
			if !ok {
				e.complete(Finished)
				return
			}
			e.pending, e.hasPending = v, true
		}

		e.mu.Lock()
		if e.cancelled.Load() {
			e.draining = false
			e.mu.Unlock()
			e.teardown()
			return
		}
		if e.demand.IsZero() {
			e.draining = false
			e.mu.Unlock()
			if e.cancelled.Load() {
				e.teardown()
			}
			return
		}
		e.demand = e.demand.Sub(1)
		e.mu.Unlock()

		v := e.pending
		var zero T
		e.pending, e.hasPending = zero, false
		if d := downstream.OnNext(v); !d.IsZero() {
			e.mu.Lock()
			e.demand = e.demand.Add(d)
			e.mu.Unlock()
		}
	}
}

func (e *emitter[T]) stopDraining() {
	e.mu.Lock()
	e.draining = false
	e.mu.Unlock()
}

func (e *emitter[T]) complete(c Completion) {
	e.mu.Lock()
	e.done = true
	e.draining = false
	sub := e.downstream
	e.mu.Unlock()

	e.teardown()
	if sub != nil && !e.cancelled.Load() {
		sub.OnComplete(c)
	}
}

// teardown releases source resources and drops the subscriber reference.
func (e *emitter[T]) teardown() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.downstream = nil
	release := e.release
	e.mu.Unlock()

	if release != nil {
		release()
	}
}
