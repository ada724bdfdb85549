package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxkit/reactive"
)

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	ctx    context.Context
	tracer trace.Tracer
}

// WithContext sets the parent context of subscription spans and metric recordings.
func WithContext(ctx context.Context) InstrumentOption {
	return func(c *instrumentConfig) { c.ctx = ctx }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(c *instrumentConfig) { c.tracer = t }
}

// Instrument records metrics and one span per subscription for the signals
// passing through stage. Values, demand and completions are not changed.
// A nil metrics only traces.
func Instrument[T any](upstream reactive.Publisher[T], metrics *StreamMetrics, stage string, opts ...InstrumentOption) reactive.Publisher[T] {
	cfg := instrumentConfig{ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = Tracer(defaultTracerName)
	}

	return reactive.HandleEvents(upstream, func() reactive.Hooks[T] {
		run := &instrumentedRun{cfg: cfg, metrics: metrics, stage: stage}
		return reactive.Hooks[T]{
			OnSubscribe: run.subscribe,
			OnRequest:   run.request,
			OnNext:      func(T) { run.next() },
			OnComplete:  run.complete,
			OnCancel:    run.cancel,
		}
	})
}

// instrumentedRun is the per-subscription state of Instrument.
type instrumentedRun struct {
	cfg     instrumentConfig
	metrics *StreamMetrics
	stage   string

	ctx    context.Context
	span   trace.Span
	start  time.Time
	values int64
	ended  bool
}

func (r *instrumentedRun) subscribe() {
	r.start = time.Now()
	r.ctx, r.span = r.cfg.tracer.Start(r.cfg.ctx, SpanSubscription, trace.WithAttributes(
		attribute.String(AttrStage, r.stage),
		attribute.String(AttrSubscriptionID, uuid.NewString()),
	))
	if r.metrics != nil {
		r.metrics.RecordSubscribe(r.ctx, r.stage)
	}
}

func (r *instrumentedRun) request(d reactive.Demand, synchronous bool) {
	if r.metrics != nil {
		r.metrics.RecordDemand(r.ctx, r.stage, d.Count(), d.IsUnlimited())
	}
	r.span.AddEvent("request", trace.WithAttributes(
		attribute.String("demand", d.String()),
		attribute.Bool("synchronous", synchronous),
	))
}

func (r *instrumentedRun) next() {
	r.values++
	if r.metrics != nil {
		r.metrics.RecordValue(r.ctx, r.stage)
	}
}

func (r *instrumentedRun) complete(c reactive.Completion) {
	if r.ended {
		return
	}
	r.ended = true

	status := "finished"
	if err := c.Err(); err != nil {
		status = "failed"
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	if r.metrics != nil {
		r.metrics.RecordComplete(r.ctx, r.stage, status, time.Since(r.start))
	}
	r.span.SetAttributes(
		attribute.Int64(AttrValues, r.values),
		attribute.String(AttrStatus, status),
	)
	r.span.End()
}

func (r *instrumentedRun) cancel() {
	if r.ended {
		return
	}
	r.ended = true

	if r.metrics != nil {
		r.metrics.RecordCancel(r.ctx, r.stage, time.Since(r.start))
	}
	r.span.SetAttributes(
		attribute.Int64(AttrValues, r.values),
		attribute.String(AttrStatus, "cancelled"),
	)
	r.span.End()
}
