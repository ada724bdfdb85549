package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/logger"
)

// App holds the typed config and lifecycle hooks of one run.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	signals         bool

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the logger.
// The logger is registered under the service name.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		signals:         o.signals,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	logger.Register(app.Name, app.Logger)
	return app, nil
}

// RunTask runs the start hooks, then task, then the stop hooks. The task
// context is cancelled on SIGINT/SIGTERM. A panic in task is returned as an
// error: AppError panics as they are, anything else as INTERNAL_ERROR. The
// task error wins over a stop hook error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.signals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				a.Logger.Info("received signal, cancelling task", logger.Fields("signal", sig.String()))
				cancel()
			case <-taskCtx.Done():
			}
		}()
	}

	if err := runHooks(taskCtx, a.onStart); err != nil {
		a.stop()
		return fmt.Errorf("start: %w", err)
	}

	taskErr := runGuarded(taskCtx, task)
	stopErr := a.stop()

	a.Logger.Info("finished", logger.Fields("duration", time.Since(start).String()))
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	if err := runStopHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("stop", err))
		return err
	}
	return nil
}

func runGuarded(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			if appErr, ok := errors.AsAppError(e); ok {
				err = appErr
				return
			}
			err = errors.Internal(e)
			return
		}
		err = errors.Internal(fmt.Errorf("panic: %v", r))
	}()
	return task(ctx)
}
