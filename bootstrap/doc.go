// Package bootstrap runs finite rxkit tasks with a uniform lifecycle.
//
// NewApp applies defaults to a typed config, validates it and initializes the
// global logger. RunTask then runs start hooks, the task under a context that
// is cancelled on SIGINT/SIGTERM, and stop hooks bounded by a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(shutdownTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return runPipeline(ctx, app.Cfg)
//	})
package bootstrap
