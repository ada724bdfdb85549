package reactive

import "golang.org/x/exp/constraints"

// Number is any integer or floating-point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Map returns a Publisher that applies transform to every value of upstream.
//
// transform must be pure and total. Each upstream value produces exactly one
// downstream value within the same call. Subscriptions, demand and
// completions pass through untouched, including failures.
func Map[T any](upstream Publisher[T], transform func(T) T) Publisher[T] {
	return &mapPublisher[T]{upstream: upstream, transform: transform}
}

// Double multiplies every value of upstream by two.
func Double[N Number](upstream Publisher[N]) Publisher[N] {
	return Map(upstream, func(v N) N { return v * 2 })
}

type mapPublisher[T any] struct {
	upstream  Publisher[T]
	transform func(T) T
}

func (p *mapPublisher[T]) Subscribe(downstream Subscriber[T]) {
	p.upstream.Subscribe(&mapSubscriber[T]{downstream: downstream, transform: p.transform})
}

// mapSubscriber sits between upstream and one downstream subscriber for the
// lifetime of a single run. It never holds the Subscription: downstream talks
// to upstream through the handle it was given, so demand and cancellation are
// never rewritten here.
type mapSubscriber[T any] struct {
	downstream Subscriber[T]
	transform  func(T) T
}

func (s *mapSubscriber[T]) OnSubscribe(sub Subscription) {
	s.downstream.OnSubscribe(sub)
}

func (s *mapSubscriber[T]) OnNext(v T) Demand {
	return s.downstream.OnNext(s.transform(v))
}

func (s *mapSubscriber[T]) OnComplete(c Completion) {
	s.downstream.OnComplete(c)
}
