// Package resilience re-runs failed streams.
//
// RetryStream resubscribes to its upstream when a run fails with a retryable
// error, waiting an exponential backoff between attempts. Downstream sees one
// subscription across all attempts, and the demand it granted carries over to
// the next attempt minus the values already delivered.
//
//	p := resilience.RetryStream(source, resilience.RetryConfig{
//	    MaxAttempts:    5,
//	    InitialBackoff: 50 * time.Millisecond,
//	})
//
// Values emitted by a failed attempt are not taken back, so a source that
// restarts from the beginning is seen again from its first value.
package resilience
