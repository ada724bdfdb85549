package logger

// Standard field key constants for structured logging.
const (
	FieldComponent      = "component"
	FieldSubscriptionID = "subscription_id"
	FieldStage          = "stage"
	FieldSignal         = "signal"
	FieldDemand         = "demand"
	FieldValue          = "value"
	FieldCompletion     = "completion"
	FieldOperation      = "operation"
	FieldError          = "error"
)

// Signal names used in the FieldSignal field.
const (
	SignalSubscribe = "subscribe"
	SignalRequest   = "request"
	SignalNext      = "next"
	SignalComplete  = "complete"
	SignalCancel    = "cancel"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("stage", "double", "value", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// SignalFields creates the common fields of one stream signal.
func SignalFields(subscriptionID, stage, signal string) map[string]interface{} {
	return map[string]interface{}{
		FieldSubscriptionID: subscriptionID,
		FieldStage:          stage,
		FieldSignal:         signal,
	}
}
