package main

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/observability"
	"github.com/kbukum/rxkit/reactive"
	"github.com/kbukum/rxkit/resilience"
)

type transform func(reactive.Publisher[int]) reactive.Publisher[int]

var transforms = map[string]transform{
	"double": reactive.Double[int],
	"inc": func(p reactive.Publisher[int]) reactive.Publisher[int] {
		return reactive.Map(p, func(v int) int { return v + 1 })
	},
	"square": func(p reactive.Publisher[int]) reactive.Publisher[int] {
		return reactive.Map(p, func(v int) int { return v * v })
	},
	"negate": func(p reactive.Publisher[int]) reactive.Publisher[int] {
		return reactive.Map(p, func(v int) int { return -v })
	},
}

// retryTracker follows a retried source so the consumer knows whether more
// signals can still arrive: a resubscribe waiting out its backoff, or an
// attempt running on the backoff timer. Attempts are synchronous sources.
type retryTracker struct {
	retries *atomic.Int64
	pending *atomic.Bool
	settled chan struct{}
}

func newRetryTracker() *retryTracker {
	return &retryTracker{
		retries: atomic.NewInt64(0),
		pending: atomic.NewBool(false),
		settled: make(chan struct{}, 1),
	}
}

func (t *retryTracker) retried() {
	t.retries.Inc()
	t.pending.Store(true)
}

// wrap marks the tracker idle after an attempt that scheduled no retry.
func (t *retryTracker) wrap(p reactive.Publisher[int]) reactive.Publisher[int] {
	return reactive.PublisherFunc[int](func(s reactive.Subscriber[int]) {
		before := t.retries.Load()
		p.Subscribe(s)
		if t.retries.Load() == before {
			t.pending.Store(false)
		}
		select {
		case t.settled <- struct{}{}:
		default:
		}
	})
}

// source publishes the configured values, failing afterwards when cfg.Fail
// is set, and retries the whole source when enabled. tracker, if not nil,
// follows the retries.
func source(cfg StreamConfig, log *logger.Logger, tracker *retryTracker) reactive.Publisher[int] {
	var p reactive.Publisher[int]
	if cfg.Fail == "" {
		p = reactive.FromSlice(cfg.Values)
	} else {
		p = reactive.FromSliceThenFail(cfg.Values, errors.UpstreamFailed("values", stderrors.New(cfg.Fail)))
	}
	if !cfg.Retry.Enabled() {
		return p
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.InitialBackoff = cfg.Retry.InitialBackoff
	if cfg.Retry.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.Retry.MaxBackoff
	}
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		if tracker != nil {
			tracker.retried()
		}
		log.Warn("retrying source", logger.Fields("attempt", attempt, "backoff", backoff.String(), logger.FieldError, err.Error()))
	}
	if tracker != nil {
		p = tracker.wrap(p)
	}
	return resilience.RetryStream(p, retry)
}

// buildPipeline chains the configured transforms onto the source.
// Signal logging and instrumentation wrap the last stage when enabled.
func buildPipeline(cfg StreamConfig, log *logger.Logger, metrics *observability.StreamMetrics, tracker *retryTracker) (reactive.Publisher[int], error) {
	p := source(cfg, log, tracker)
	for _, name := range cfg.Transforms {
		t, ok := transforms[name]
		if !ok {
			return nil, errors.InvalidConfig("stream.transforms", "unknown transform "+name)
		}
		p = t(p)
	}
	if cfg.LogSignals {
		p = reactive.Log(p, log, serviceName)
	}
	if metrics != nil {
		p = observability.Instrument(p, metrics, serviceName)
	}
	return p, nil
}

// runResult is what the consumer saw. Completed is false when the run was
// cancelled or stalled waiting for demand.
type runResult struct {
	Values     []int
	Completion reactive.Completion
	Completed  bool
}

// consume subscribes to p as configured and calls onValue for each value.
// With a tracker it waits while a retry still has work in flight.
func consume(ctx context.Context, p reactive.Publisher[int], cfg StreamConfig, tracker *retryTracker, onValue func(int)) (runResult, error) {
	if cfg.Demand.Unbounded() && cfg.Limit == 0 {
		return consumeUnbounded(ctx, p, onValue)
	}

	initial := reactive.Unlimited
	if !cfg.Demand.Unbounded() {
		initial = reactive.Max(cfg.Demand.Initial)
	}
	opts := []reactive.CollectorOption{reactive.WithDemandPerValue(reactive.Max(cfg.Demand.PerValue))}
	if cfg.Limit > 0 {
		opts = append(opts, reactive.WithCancelAfter(cfg.Limit))
	}

	c := reactive.NewCollector[int](initial, opts...)
	p.Subscribe(c)
	if tracker != nil {
	wait:
		for !c.Cancelled() && tracker.pending.Load() {
			select {
			case <-c.Done():
				break wait
			case <-tracker.settled:
			case <-ctx.Done():
				c.Cancel()
			}
		}
	}

	res := runResult{Values: c.Values()}
	for _, v := range res.Values {
		onValue(v)
	}
	res.Completion, res.Completed = c.Completion()
	return res, nil
}

func consumeUnbounded(ctx context.Context, p reactive.Publisher[int], onValue func(int)) (runResult, error) {
	var (
		mu     sync.Mutex
		values []int
	)
	done := make(chan reactive.Completion, 1)

	handle := reactive.Sink(p, func(v int) {
		mu.Lock()
		values = append(values, v)
		mu.Unlock()
		onValue(v)
	}, func(c reactive.Completion) {
		done <- c
	})

	select {
	case c := <-done:
		mu.Lock()
		defer mu.Unlock()
		return runResult{Values: values, Completion: c, Completed: true}, nil
	case <-ctx.Done():
		handle.Cancel()
		mu.Lock()
		defer mu.Unlock()
		return runResult{Values: values}, errors.Cancelled(serviceName + " stream").WithCause(ctx.Err())
	}
}

// runStream builds the pipeline, consumes it and logs the outcome. A failed
// completion is returned as UPSTREAM_FAILED.
func runStream(ctx context.Context, cfg StreamConfig, log *logger.Logger, metrics *observability.StreamMetrics) (runResult, error) {
	var tracker *retryTracker
	if cfg.Retry.Enabled() {
		tracker = newRetryTracker()
	}
	p, err := buildPipeline(cfg, log, metrics, tracker)
	if err != nil {
		return runResult{}, err
	}

	res, err := consume(ctx, p, cfg, tracker, func(v int) {
		log.Info("value", logger.Fields(logger.FieldValue, v))
	})
	if err != nil {
		return res, err
	}

	switch {
	case !res.Completed:
		log.Warn("stream did not complete", logger.Fields("received", len(res.Values), "limit", cfg.Limit))
	case res.Completion.Err() != nil:
		log.Error("stream failed", logger.ErrorFields("stream", res.Completion.Err()))
		return res, errors.UpstreamFailed(serviceName, res.Completion.Err())
	default:
		log.Info("stream finished", logger.Fields("received", len(res.Values)))
	}
	return res, nil
}
