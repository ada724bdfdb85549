package reactive

import (
	"sync"

	"github.com/kbukum/rxkit/errors"
)

// CollectorOption configures a Collector.
type CollectorOption func(*collectorConfig)

type collectorConfig struct {
	perValue    Demand
	cancelAfter int
}

// WithDemandPerValue sets the demand returned from each OnNext.
func WithDemandPerValue(d Demand) CollectorOption {
	return func(c *collectorConfig) { c.perValue = d }
}

// WithCancelAfter makes the collector cancel its subscription from inside
// OnNext once n values have arrived.
func WithCancelAfter(n int) CollectorOption {
	return func(c *collectorConfig) { c.cancelAfter = n }
}

// Collector is a Subscriber that records everything it receives.
//
// It requests its initial demand when subscribed, returns the per-value
// demand from each OnNext, and panics with a PROTOCOL_VIOLATION AppError on
// out-of-order signals. Signals that race with its own Cancel are dropped.
// It is safe to read from another goroutine.
type Collector[T any] struct {
	initial Demand
	cfg     collectorConfig

	mu           sync.Mutex
	subscription Subscription
	subscribed   bool
	values       []T
	completion   *Completion
	requested    Demand
	cancelled    bool
	done         chan struct{}
}

// NewCollector creates a Collector that requests initial on subscription.
func NewCollector[T any](initial Demand, opts ...CollectorOption) *Collector[T] {
	c := &Collector[T]{initial: initial, done: make(chan struct{})}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

// Collect subscribes a new Collector with Unlimited demand to p and returns
// the values and completion. It is meant for synchronous publishers; for
// asynchronous ones wait on Done first.
func Collect[T any](p Publisher[T]) ([]T, Completion, bool) {
	c := NewCollector[T](Unlimited)
	p.Subscribe(c)
	comp, ok := c.Completion()
	return c.Values(), comp, ok
}

func (c *Collector[T]) OnSubscribe(sub Subscription) {
	c.mu.Lock()
	if c.subscribed {
		c.mu.Unlock()
		panic(errors.ProtocolViolation("subscription received twice"))
	}
	c.subscribed = true
	c.subscription = sub
	c.mu.Unlock()

	if !c.initial.IsZero() {
		c.Request(c.initial)
	}
}

func (c *Collector[T]) OnNext(v T) Demand {
	c.mu.Lock()
	switch {
	case !c.subscribed:
		c.mu.Unlock()
		panic(errors.ProtocolViolation("value before subscription"))
	case c.completion != nil:
		c.mu.Unlock()
		panic(errors.ProtocolViolation("value after completion"))
	case c.cancelled:
		// in flight when Cancel came from another goroutine
		c.mu.Unlock()
		return None
	}
	c.values = append(c.values, v)
	reached := c.cfg.cancelAfter > 0 && len(c.values) >= c.cfg.cancelAfter
	c.mu.Unlock()

	if reached {
		c.Cancel()
		return None
	}

	c.mu.Lock()
	c.requested = c.requested.Add(c.cfg.perValue)
	c.mu.Unlock()
	return c.cfg.perValue
}

func (c *Collector[T]) OnComplete(comp Completion) {
	c.mu.Lock()
	if !c.subscribed {
		c.mu.Unlock()
		panic(errors.ProtocolViolation("completion before subscription"))
	}
	if c.completion != nil {
		c.mu.Unlock()
		panic(errors.ProtocolViolation("completion received twice"))
	}
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.completion = &comp
	c.subscription = nil
	c.mu.Unlock()
	close(c.done)
}

// Request asks upstream for d more values.
func (c *Collector[T]) Request(d Demand) {
	c.mu.Lock()
	sub := c.subscription
	if sub == nil || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.requested = c.requested.Add(d)
	c.mu.Unlock()
	sub.Request(d)
}

// Cancel cancels the subscription. Safe to call more than once.
func (c *Collector[T]) Cancel() {
	c.mu.Lock()
	sub := c.subscription
	c.cancelled = true
	c.subscription = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Values returns a copy of the values received so far.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.values))
	copy(out, c.values)
	return out
}

// Completion returns the terminal signal and whether one has arrived.
func (c *Collector[T]) Completion() (Completion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completion == nil {
		return Completion{}, false
	}
	return *c.completion, true
}

// Requested returns the total demand this collector has granted.
func (c *Collector[T]) Requested() Demand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Subscribed reports whether OnSubscribe has been called.
func (c *Collector[T]) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed
}

// Cancelled reports whether the collector cancelled its subscription.
func (c *Collector[T]) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Done is closed when the terminal signal arrives.
func (c *Collector[T]) Done() <-chan struct{} {
	return c.done
}
