package reactive

import (
	"github.com/google/uuid"

	"github.com/kbukum/rxkit/logger"
)

// Log writes every signal of every run to l, tagged with stage and a
// per-subscription id. Values and demand are not changed.
func Log[T any](upstream Publisher[T], l *logger.Logger, stage string) Publisher[T] {
	return HandleEvents(upstream, func() Hooks[T] {
		id := uuid.NewString()
		fields := func(signal string, kvs ...interface{}) map[string]interface{} {
			f := logger.SignalFields(id, stage, signal)
			for k, v := range logger.Fields(kvs...) {
				f[k] = v
			}
			return f
		}
		return Hooks[T]{
			OnSubscribe: func() {
				l.Info("receive subscription", fields(logger.SignalSubscribe))
			},
			OnRequest: func(d Demand, synchronous bool) {
				l.Info("request", fields(logger.SignalRequest, logger.FieldDemand, d.String(), "synchronous", synchronous))
			},
			OnNext: func(v T) {
				l.Info("receive value", fields(logger.SignalNext, logger.FieldValue, v))
			},
			OnComplete: func(c Completion) {
				if c.IsFinished() {
					l.Info("receive finished", fields(logger.SignalComplete, logger.FieldCompletion, c.String()))
					return
				}
				l.Warn("receive failure", fields(logger.SignalComplete, logger.FieldCompletion, "failure", logger.FieldError, c.Err().Error()))
			},
			OnCancel: func() {
				l.Info("cancel", fields(logger.SignalCancel))
			},
		}
	})
}
