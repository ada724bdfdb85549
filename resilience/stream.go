package resilience

import (
	"sync"
	"time"

	"github.com/kbukum/rxkit/reactive"
)

// RetryStream resubscribes to upstream after each retryable failure, up to
// cfg.MaxAttempts subscriptions. The last failure, or the first one RetryIf
// rejects, reaches downstream unchanged. A zero InitialBackoff resubscribes
// synchronously.
func RetryStream[T any](upstream reactive.Publisher[T], cfg RetryConfig) reactive.Publisher[T] {
	cfg = cfg.withDefaults()
	return reactive.PublisherFunc[T](func(downstream reactive.Subscriber[T]) {
		r := &retryRun[T]{upstream: upstream, downstream: downstream, cfg: cfg}
		downstream.OnSubscribe(r)
		r.subscribe(1)
	})
}

// retryRun is the single subscription downstream sees across attempts.
type retryRun[T any] struct {
	upstream   reactive.Publisher[T]
	downstream reactive.Subscriber[T]
	cfg        RetryConfig

	mu          sync.Mutex
	attempt     int
	current     reactive.Subscription
	outstanding reactive.Demand
	timer       *time.Timer
	cancelled   bool
	done        bool
}

func (r *retryRun[T]) subscribe(attempt int) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.attempt = attempt
	r.timer = nil
	r.mu.Unlock()

	r.upstream.Subscribe(&attemptSubscriber[T]{run: r, attempt: attempt})
}

func (r *retryRun[T]) Request(d reactive.Demand) {
	r.mu.Lock()
	if r.cancelled || r.done {
		r.mu.Unlock()
		return
	}
	r.outstanding = r.outstanding.Add(d)
	sub := r.current
	r.mu.Unlock()

	if sub != nil {
		sub.Request(d)
	}
}

func (r *retryRun[T]) Cancel() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	sub := r.current
	r.current = nil
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// live reports whether signals of attempt still belong to the run.
func (r *retryRun[T]) live(attempt int) bool {
	return !r.cancelled && !r.done && r.attempt == attempt
}

type attemptSubscriber[T any] struct {
	run     *retryRun[T]
	attempt int
}

func (s *attemptSubscriber[T]) OnSubscribe(sub reactive.Subscription) {
	r := s.run
	r.mu.Lock()
	if !r.live(s.attempt) {
		r.mu.Unlock()
		sub.Cancel()
		return
	}
	r.current = sub
	d := r.outstanding
	r.mu.Unlock()

	if !d.IsZero() {
		sub.Request(d)
	}
}

func (s *attemptSubscriber[T]) OnNext(v T) reactive.Demand {
	r := s.run
	r.mu.Lock()
	if !r.live(s.attempt) {
		r.mu.Unlock()
		return reactive.None
	}
	r.outstanding = r.outstanding.Sub(1)
	r.mu.Unlock()

	d := r.downstream.OnNext(v)
	if !d.IsZero() {
		r.mu.Lock()
		r.outstanding = r.outstanding.Add(d)
		r.mu.Unlock()
	}
	return d
}

func (s *attemptSubscriber[T]) OnComplete(c reactive.Completion) {
	r := s.run
	err := c.Err()
	retry := err != nil && s.attempt < r.cfg.MaxAttempts && r.cfg.RetryIf(err)

	r.mu.Lock()
	if !r.live(s.attempt) {
		r.mu.Unlock()
		return
	}
	r.current = nil
	if !retry {
		r.done = true
		r.mu.Unlock()
		r.downstream.OnComplete(c)
		return
	}
	r.mu.Unlock()

	backoff := calculateBackoff(s.attempt, r.cfg)
	if r.cfg.OnRetry != nil {
		r.cfg.OnRetry(s.attempt, err, backoff)
	}

	next := s.attempt + 1
	if backoff <= 0 {
		r.subscribe(next)
		return
	}
	r.mu.Lock()
	if !r.cancelled {
		r.timer = time.AfterFunc(backoff, func() { r.subscribe(next) })
	}
	r.mu.Unlock()
}
