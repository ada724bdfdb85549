package main

import (
	"context"

	"github.com/kbukum/rxkit/bootstrap"
	"github.com/kbukum/rxkit/observability"
)

// setupTelemetry starts the OTLP tracer and meter when enabled and registers
// their shutdown as stop hooks. It returns nil metrics when disabled.
func setupTelemetry(ctx context.Context, app *bootstrap.App[*Config]) (*observability.StreamMetrics, error) {
	t := app.Cfg.Telemetry
	if !t.Enabled {
		return nil, nil
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    app.Name,
		ServiceVersion: app.Version,
		Environment:    app.Cfg.Environment,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		SampleRate:     t.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	app.OnStop(tp.Shutdown)

	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    app.Name,
		ServiceVersion: app.Version,
		Environment:    app.Cfg.Environment,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		Interval:       t.Interval,
	})
	if err != nil {
		return nil, err
	}
	app.OnStop(mp.Shutdown)

	return observability.NewStreamMetrics(mp.Meter(serviceName))
}
