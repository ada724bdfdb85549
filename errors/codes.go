package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stream protocol errors
const (
	// ErrCodeProtocolViolation indicates a component broke the publisher/subscriber contract.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeTransformFailed indicates a fallible transform rejected a value.
	ErrCodeTransformFailed ErrorCode = "TRANSFORM_FAILED"
	// ErrCodeUpstreamFailed indicates the upstream publisher terminated with a failure.
	ErrCodeUpstreamFailed ErrorCode = "UPSTREAM_FAILED"
	// ErrCodeCancelled indicates the subscription was cancelled before completion.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates a configuration value is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstreamFailed: true,
	ErrCodeCancelled:      false,
	ErrCodeInternal:       false,
}

// IsRetryableCode returns true if re-subscribing may succeed for this code.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
