// Package observability provides OpenTelemetry tracing and metrics for
// reactive streams.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("rxdemo"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("rxdemo"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("rxdemo"))
//
// Instrumenting a stage:
//
//	doubled := observability.Instrument(reactive.Double(src), metrics, "double")
package observability
