package reactive

import (
	"go.uber.org/atomic"

	"github.com/kbukum/rxkit/errors"
)

// Checked wraps s so that any signal arriving out of protocol order panics
// with a PROTOCOL_VIOLATION AppError instead of reaching s. It checks:
// one subscription, nothing before it, nothing after the terminal signal, and
// no values after s cancelled.
func Checked[T any](s Subscriber[T]) Subscriber[T] {
	return &checkedSubscriber[T]{downstream: s, cancelled: atomic.NewBool(false)}
}

type checkedSubscriber[T any] struct {
	downstream Subscriber[T]
	subscribed bool
	terminated bool
	cancelled  *atomic.Bool
}

func (c *checkedSubscriber[T]) OnSubscribe(sub Subscription) {
	if c.subscribed {
		panic(errors.ProtocolViolation("subscription received twice"))
	}
	c.subscribed = true
	c.downstream.OnSubscribe(&checkedSubscription{upstream: sub, cancelled: c.cancelled})
}

func (c *checkedSubscriber[T]) OnNext(v T) Demand {
	switch {
	case !c.subscribed:
		panic(errors.ProtocolViolation("value before subscription"))
	case c.terminated:
		panic(errors.ProtocolViolation("value after completion"))
	case c.cancelled.Load():
		panic(errors.ProtocolViolation("value after cancel"))
	}
	return c.downstream.OnNext(v)
}

func (c *checkedSubscriber[T]) OnComplete(comp Completion) {
	switch {
	case !c.subscribed:
		panic(errors.ProtocolViolation("completion before subscription"))
	case c.terminated:
		panic(errors.ProtocolViolation("completion received twice"))
	case c.cancelled.Load():
		panic(errors.ProtocolViolation("completion after cancel"))
	}
	c.terminated = true
	c.downstream.OnComplete(comp)
}

type checkedSubscription struct {
	upstream  Subscription
	cancelled *atomic.Bool
}

func (s *checkedSubscription) Request(d Demand) { s.upstream.Request(d) }

func (s *checkedSubscription) Cancel() {
	s.cancelled.Store(true)
	s.upstream.Cancel()
}
