package reactive

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/kbukum/rxkit/errors"
)

// Sink subscribes to upstream, requests Unlimited as soon as it is
// subscribed, and calls onValue for each value and onComplete once at the
// end. Either callback may be nil. Cancelling the returned handle stops the
// run; the handle keeps the subscription alive until then. Signals still in
// flight when the handle is cancelled from another goroutine are dropped.
func Sink[T any](upstream Publisher[T], onValue func(T), onComplete func(Completion)) Cancellable {
	s := &sink[T]{onValue: onValue, onComplete: onComplete, cancelled: atomic.NewBool(false)}
	upstream.Subscribe(s)
	return s
}

type sink[T any] struct {
	onValue    func(T)
	onComplete func(Completion)
	cancelled  *atomic.Bool

	mu         sync.Mutex
	sub        Subscription
	subscribed bool
	terminated bool
}

func (s *sink[T]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		panic(errors.ProtocolViolation("subscription received twice"))
	}
	s.subscribed = true
	s.sub = sub
	s.mu.Unlock()
	if s.cancelled.Load() {
		sub.Cancel()
		return
	}
	sub.Request(Unlimited)
}

func (s *sink[T]) OnNext(v T) Demand {
	s.mu.Lock()
	switch {
	case !s.subscribed:
		s.mu.Unlock()
		panic(errors.ProtocolViolation("value before subscription"))
	case s.terminated:
		s.mu.Unlock()
		panic(errors.ProtocolViolation("value after completion"))
	}
	s.mu.Unlock()
	if s.cancelled.Load() {
		return None
	}
	if s.onValue != nil {
		s.onValue(v)
	}
	return None
}

func (s *sink[T]) OnComplete(c Completion) {
	s.mu.Lock()
	switch {
	case !s.subscribed:
		s.mu.Unlock()
		panic(errors.ProtocolViolation("completion before subscription"))
	case s.terminated:
		s.mu.Unlock()
		panic(errors.ProtocolViolation("completion received twice"))
	}
	s.terminated = true
	s.sub = nil
	s.mu.Unlock()
	if s.cancelled.Load() {
		return
	}
	if s.onComplete != nil {
		s.onComplete(c)
	}
}

func (s *sink[T]) Cancel() {
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}
