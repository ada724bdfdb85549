package reactive

// A Publisher describes how to produce a sequence of values of type T.
//
// Subscribe is a factory: every call starts a new, independent run that
// reports to the given Subscriber. Failures travel as a Completion carrying
// a Go error.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// A Subscriber consumes exactly one run of a Publisher.
//
// OnSubscribe is called once, before anything else. OnNext returns the
// additional demand granted after this value, not a replacement for the
// outstanding demand. OnComplete is called at most once and nothing follows it.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T) Demand
	OnComplete(c Completion)
}

// Subscription links one run of a Publisher to one Subscriber.
// It must not be shared between subscribers.
type Subscription interface {
	// Request adds d to the outstanding demand. A no-op after Cancel.
	Request(d Demand)
	// Cancel stops the run. Idempotent; no signal is delivered afterwards.
	Cancel()
}

// Cancellable is anything that can be cancelled, such as a Sink.
type Cancellable interface {
	Cancel()
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc[T any] func(s Subscriber[T])

// Subscribe calls f(s).
func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) { f(s) }
