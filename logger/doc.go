// Package logger provides structured logging for rxkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Stream operators log signals with the field keys
// defined in fields.go so that one subscription can be followed end to end.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("rxdemo")
//	log.Info("value received", logger.Fields(logger.FieldStage, "sink", "value", 10))
package logger
