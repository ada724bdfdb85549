package reactive

import (
	"context"

	"github.com/kbukum/rxkit/errors"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	// A blocking Next should return once ctx is done.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromIterator publishes the values of an Iterator.
//
// factory is called once per subscription, so every run reads its own
// iterator. The iterator is pulled only as demand allows (plus one element of
// look-ahead) and closed when the run completes or is cancelled. Each run
// gets a context derived from ctx that Cancel cancels at once, so a Next
// blocked on it returns; Close follows after Next has returned. An error from
// Next fails the run with that error, unless the run was cancelled.
func FromIterator[T any](ctx context.Context, factory func(ctx context.Context) Iterator[T]) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		runCtx, cancel := context.WithCancel(ctx)
		iter := factory(runCtx)
		runEmitter(s, func() (T, bool, error) {
			return iter.Next(runCtx)
		}, func() {
			_ = iter.Close()
			cancel()
		}, cancel)
	})
}

// ToIterator exposes a Publisher as a pull-based Iterator.
//
// Subscription happens on the first Next. Each Next requests one value and
// waits for it or for the terminal signal. A failure is returned once as the
// error of Next; afterwards Next reports exhaustion. Close cancels the run.
func ToIterator[T any](p Publisher[T]) Iterator[T] {
	return &publisherIter[T]{
		source:  p,
		ready:   make(chan struct{}),
		signals: make(chan iterSignal[T], 2),
	}
}

type iterSignal[T any] struct {
	value    T
	terminal bool
	err      error
}

type publisherIter[T any] struct {
	source  Publisher[T]
	sub     Subscription
	ready   chan struct{}
	signals chan iterSignal[T]
	started bool
	done    bool
}

func (it *publisherIter[T]) OnSubscribe(s Subscription) {
	if it.sub != nil {
		panic(errors.ProtocolViolation("subscription received twice"))
	}
	it.sub = s
	close(it.ready)
}

func (it *publisherIter[T]) OnNext(v T) Demand {
	it.signals <- iterSignal[T]{value: v}
	return None
}

func (it *publisherIter[T]) OnComplete(c Completion) {
	it.signals <- iterSignal[T]{terminal: true, err: c.Err()}
}

func (it *publisherIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	if !it.started {
		it.started = true
		it.source.Subscribe(it)
	}

	select {
	case <-it.ready:
	case <-ctx.Done():
		_ = it.Close()
		return zero, false, ctx.Err()
	}

	// A terminal signal may already be queued behind the previous value.
	select {
	case sig := <-it.signals:
		return it.deliver(sig)
	default:
	}

	it.sub.Request(Max(1))
	select {
	case sig := <-it.signals:
		return it.deliver(sig)
	case <-ctx.Done():
		_ = it.Close()
		return zero, false, ctx.Err()
	}
}

func (it *publisherIter[T]) deliver(sig iterSignal[T]) (T, bool, error) {
	if sig.terminal {
		it.done = true
		var zero T
		return zero, false, sig.err
	}
	return sig.value, true, nil
}

func (it *publisherIter[T]) Close() error {
	if !it.done {
		it.done = true
		select {
		case <-it.ready:
			it.sub.Cancel()
		default:
		}
	}
	return nil
}
