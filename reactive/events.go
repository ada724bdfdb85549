package reactive

import "go.uber.org/atomic"

// Hooks observe the signals of one run. Nil hooks are skipped.
type Hooks[T any] struct {
	OnSubscribe func()
	// OnRequest sees every demand sent upstream. synchronous is true for demand
	// returned from OnNext and false for demand sent through Request.
	OnRequest  func(d Demand, synchronous bool)
	OnNext     func(v T)
	OnComplete func(c Completion)
	OnCancel   func()
}

// HandleEvents calls hooks for every signal passing through, without changing
// any of them. newHooks is called once per subscription so hooks can keep
// per-run state. OnCancel runs for the first Cancel only.
func HandleEvents[T any](upstream Publisher[T], newHooks func() Hooks[T]) Publisher[T] {
	return PublisherFunc[T](func(downstream Subscriber[T]) {
		upstream.Subscribe(&eventsSubscriber[T]{downstream: downstream, hooks: newHooks()})
	})
}

type eventsSubscriber[T any] struct {
	downstream Subscriber[T]
	hooks      Hooks[T]
}

func (s *eventsSubscriber[T]) OnSubscribe(sub Subscription) {
	if s.hooks.OnSubscribe != nil {
		s.hooks.OnSubscribe()
	}
	s.downstream.OnSubscribe(&eventsSubscription[T]{upstream: sub, hooks: &s.hooks, cancelled: atomic.NewBool(false)})
}

func (s *eventsSubscriber[T]) OnNext(v T) Demand {
	if s.hooks.OnNext != nil {
		s.hooks.OnNext(v)
	}
	d := s.downstream.OnNext(v)
	if s.hooks.OnRequest != nil && !d.IsZero() {
		s.hooks.OnRequest(d, true)
	}
	return d
}

func (s *eventsSubscriber[T]) OnComplete(c Completion) {
	if s.hooks.OnComplete != nil {
		s.hooks.OnComplete(c)
	}
	s.downstream.OnComplete(c)
}

type eventsSubscription[T any] struct {
	upstream  Subscription
	hooks     *Hooks[T]
	cancelled *atomic.Bool
}

func (s *eventsSubscription[T]) Request(d Demand) {
	if s.hooks.OnRequest != nil {
		s.hooks.OnRequest(d, false)
	}
	s.upstream.Request(d)
}

func (s *eventsSubscription[T]) Cancel() {
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	if s.hooks.OnCancel != nil {
		s.hooks.OnCancel()
	}
	s.upstream.Cancel()
}
