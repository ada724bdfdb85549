package reactive

import "github.com/kbukum/rxkit/errors"

// TryMap is Map with a fallible transform.
//
// The first transform error cancels upstream and fails the run with a
// TRANSFORM_FAILED AppError wrapping that error. Anything upstream sends after
// that is dropped.
func TryMap[T any](upstream Publisher[T], transform func(T) (T, error)) Publisher[T] {
	return PublisherFunc[T](func(downstream Subscriber[T]) {
		upstream.Subscribe(&tryMapSubscriber[T]{downstream: downstream, transform: transform})
	})
}

type tryMapSubscriber[T any] struct {
	downstream Subscriber[T]
	transform  func(T) (T, error)
	upstream   Subscription
	failed     bool
}

func (s *tryMapSubscriber[T]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.downstream.OnSubscribe(sub)
}

func (s *tryMapSubscriber[T]) OnNext(v T) Demand {
	if s.failed {
		return None
	}
	out, err := s.transform(v)
	if err != nil {
		s.failed = true
		s.upstream.Cancel()
		s.downstream.OnComplete(Failed(errors.TransformFailed("try_map", err)))
		return None
	}
	return s.downstream.OnNext(out)
}

func (s *tryMapSubscriber[T]) OnComplete(c Completion) {
	if s.failed {
		return
	}
	s.downstream.OnComplete(c)
}
