package reactive

import (
	"sync"

	"go.uber.org/atomic"
)

// Serialize makes upstream safe to use from several goroutines at once.
//
// Signals are queued per subscription and delivered by a single goroutine at
// a time, in arrival order. Because a queued value may be delivered after the
// producer's OnNext call has returned, OnNext always returns None upstream
// and the demand granted by downstream is forwarded through Request instead.
// The total demand seen upstream is unchanged. Signals still queued when
// downstream cancels are dropped.
func Serialize[T any](upstream Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(downstream Subscriber[T]) {
		upstream.Subscribe(&serializedSubscriber[T]{
			downstream: downstream,
			cancelled:  atomic.NewBool(false),
		})
	})
}

type serializedSubscriber[T any] struct {
	downstream Subscriber[T]
	cancelled  *atomic.Bool

	mu       sync.Mutex
	queue    []func()
	draining bool
	upstream Subscription

	// only touched by the draining goroutine
	terminated bool
}

func (s *serializedSubscriber[T]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	s.upstream = sub
	s.mu.Unlock()
	s.enqueue(func() {
		s.downstream.OnSubscribe(&serializedSubscription[T]{parent: s, upstream: sub})
	})
}

func (s *serializedSubscriber[T]) OnNext(v T) Demand {
	s.enqueue(func() {
		if s.terminated {
			return
		}
		d := s.downstream.OnNext(v)
		if !d.IsZero() && !s.cancelled.Load() {
			s.mu.Lock()
			up := s.upstream
			s.mu.Unlock()
			up.Request(d)
		}
	})
	return None
}

func (s *serializedSubscriber[T]) OnComplete(c Completion) {
	s.enqueue(func() {
		if s.terminated {
			return
		}
		s.terminated = true
		s.downstream.OnComplete(c)
	})
}

// enqueue appends work and, if no goroutine is delivering, becomes the
// deliverer until the queue is empty.
func (s *serializedSubscriber[T]) enqueue(work func()) {
	s.mu.Lock()
	s.queue = append(s.queue, work)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for {
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if !s.cancelled.Load() {
			next()
		}

		s.mu.Lock()
	}
}

type serializedSubscription[T any] struct {
	parent   *serializedSubscriber[T]
	upstream Subscription
}

func (s *serializedSubscription[T]) Request(d Demand) {
	if s.parent.cancelled.Load() {
		return
	}
	s.upstream.Request(d)
}

func (s *serializedSubscription[T]) Cancel() {
	if s.parent.cancelled.CompareAndSwap(false, true) {
		s.upstream.Cancel()
	}
}
