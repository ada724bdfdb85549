package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rxkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider with an OTLP HTTP exporter.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric instrument names.
const (
	MetricSubscriptions = "rx.subscriptions"
	MetricActive        = "rx.subscriptions.active"
	MetricValues        = "rx.values"
	MetricDemand        = "rx.demand"
	MetricCompletions   = "rx.completions"
	MetricCancels       = "rx.cancels"
	MetricDuration      = "rx.subscription.duration"
)

// StreamMetrics holds OpenTelemetry instruments describing stream traffic.
type StreamMetrics struct {
	subscriptions metric.Int64Counter
	active        metric.Int64UpDownCounter
	values        metric.Int64Counter
	demand        metric.Int64Counter
	completions   metric.Int64Counter
	cancels       metric.Int64Counter
	duration      metric.Float64Histogram
}

// NewStreamMetrics creates metric instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	subscriptions, err := meter.Int64Counter(MetricSubscriptions,
		metric.WithDescription("Total number of subscriptions started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricSubscriptions, err)
	}

	active, err := meter.Int64UpDownCounter(MetricActive,
		metric.WithDescription("Number of subscriptions not yet completed or cancelled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricActive, err)
	}

	values, err := meter.Int64Counter(MetricValues,
		metric.WithDescription("Total number of values delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricValues, err)
	}

	demand, err := meter.Int64Counter(MetricDemand,
		metric.WithDescription("Bounded demand requested; unlimited requests are counted under kind=unlimited with value 1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDemand, err)
	}

	completions, err := meter.Int64Counter(MetricCompletions,
		metric.WithDescription("Terminal signals by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCompletions, err)
	}

	cancels, err := meter.Int64Counter(MetricCancels,
		metric.WithDescription("Total number of cancelled subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCancels, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Lifetime of subscriptions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	return &StreamMetrics{
		subscriptions: subscriptions,
		active:        active,
		values:        values,
		demand:        demand,
		completions:   completions,
		cancels:       cancels,
		duration:      duration,
	}, nil
}

func stageAttr(stage string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrStage, stage))
}

// RecordSubscribe counts a new subscription.
func (m *StreamMetrics) RecordSubscribe(ctx context.Context, stage string) {
	m.subscriptions.Add(ctx, 1, stageAttr(stage))
	m.active.Add(ctx, 1, stageAttr(stage))
}

// RecordValue counts one delivered value.
func (m *StreamMetrics) RecordValue(ctx context.Context, stage string) {
	m.values.Add(ctx, 1, stageAttr(stage))
}

// RecordDemand records one demand request. Unlimited demand is counted once
// under kind=unlimited, bounded demand adds its count under kind=bounded.
func (m *StreamMetrics) RecordDemand(ctx context.Context, stage string, count int64, unlimited bool) {
	kind, n := "bounded", count
	if unlimited {
		kind, n = "unlimited", 1
	}
	m.demand.Add(ctx, n, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrDemandKind, kind),
	))
}

// RecordComplete records a terminal signal and the subscription lifetime.
func (m *StreamMetrics) RecordComplete(ctx context.Context, stage, status string, lifetime time.Duration) {
	m.completions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrStatus, status),
	))
	m.active.Add(ctx, -1, stageAttr(stage))
	m.duration.Record(ctx, lifetime.Seconds(), stageAttr(stage))
}

// RecordCancel records a cancellation and the subscription lifetime.
func (m *StreamMetrics) RecordCancel(ctx context.Context, stage string, lifetime time.Duration) {
	m.cancels.Add(ctx, 1, stageAttr(stage))
	m.active.Add(ctx, -1, stageAttr(stage))
	m.duration.Record(ctx, lifetime.Seconds(), stageAttr(stage))
}
