package resilience

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/reactive"
)

var errFlaky = stderrors.New("flaky")

// flakySource emits items and fails for the first failures subscriptions,
// then emits items and finishes.
type flakySource struct {
	items    []int
	failures int

	mu            sync.Mutex
	subscriptions int
}

func (f *flakySource) Subscribe(s reactive.Subscriber[int]) {
	f.mu.Lock()
	f.subscriptions++
	n := f.subscriptions
	f.mu.Unlock()

	if n <= f.failures {
		reactive.FromSliceThenFail(f.items, errFlaky).Subscribe(s)
		return
	}
	reactive.FromSlice(f.items).Subscribe(s)
}

func (f *flakySource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscriptions
}

func immediate(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, RetryIf: DefaultRetryIf}
}

func TestRetryStream_SucceedsAfterFailures(t *testing.T) {
	src := &flakySource{items: []int{1, 2}, failures: 2}
	values, comp, done := reactive.Collect(RetryStream[int](src, immediate(3)))

	if !done || !comp.IsFinished() {
		t.Fatalf("expected finished, got %v", comp)
	}
	if want := []int{1, 2, 1, 2, 1, 2}; !slices.Equal(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
	if src.count() != 3 {
		t.Errorf("expected 3 subscriptions, got %d", src.count())
	}
}

func TestRetryStream_ExhaustedPassesLastFailure(t *testing.T) {
	src := &flakySource{items: []int{1}, failures: 10}
	var retries []int
	cfg := immediate(3)
	cfg.OnRetry = func(attempt int, err error, _ time.Duration) {
		if err != errFlaky {
			t.Errorf("unexpected retry error %v", err)
		}
		retries = append(retries, attempt)
	}

	_, comp, done := reactive.Collect(RetryStream[int](src, cfg))
	if !done || comp.Err() != errFlaky {
		t.Fatalf("expected the upstream failure unchanged, got %v", comp)
	}
	if !slices.Equal(retries, []int{1, 2}) {
		t.Errorf("retries = %v", retries)
	}
}

func TestRetryStream_NonRetryableFailsImmediately(t *testing.T) {
	violation := errors.ProtocolViolation("bad")
	src := reactive.Fail[int](violation)

	_, comp, _ := reactive.Collect(RetryStream(src, immediate(5)))
	if comp.Err() != violation {
		t.Fatalf("expected violation passed through, got %v", comp)
	}
}

func TestRetryStream_DemandCarriesOver(t *testing.T) {
	src := &flakySource{items: []int{1, 2, 3}, failures: 1}
	// Attempt 1 delivers 1, 2, 3 with demand 4 left at 1, then fails.
	// Attempt 2 gets the remaining 1.
	c := reactive.NewCollector[int](reactive.Max(4))
	RetryStream[int](src, immediate(3)).Subscribe(c)

	if want := []int{1, 2, 3, 1}; !slices.Equal(c.Values(), want) {
		t.Fatalf("values = %v, want %v", c.Values(), want)
	}
	if _, ok := c.Completion(); ok {
		t.Error("run must wait for more demand")
	}

	c.Request(reactive.Max(2))
	if want := []int{1, 2, 3, 1, 2, 3}; !slices.Equal(c.Values(), want) {
		t.Fatalf("values = %v, want %v", c.Values(), want)
	}
	if comp, ok := c.Completion(); !ok || !comp.IsFinished() {
		t.Errorf("expected finished, got %v", comp)
	}
}

func TestRetryStream_Backoff(t *testing.T) {
	src := &flakySource{items: []int{7}, failures: 1}
	cfg := RetryConfig{MaxAttempts: 2, InitialBackoff: 5 * time.Millisecond}

	c := reactive.NewCollector[int](reactive.Unlimited)
	RetryStream[int](src, cfg).Subscribe(c)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("retry never completed")
	}
	if want := []int{7, 7}; !slices.Equal(c.Values(), want) {
		t.Errorf("values = %v, want %v", c.Values(), want)
	}
}

func TestRetryStream_CancelStopsPendingRetry(t *testing.T) {
	src := &flakySource{items: nil, failures: 10}
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: 20 * time.Millisecond}

	c := reactive.NewCollector[int](reactive.Unlimited)
	RetryStream[int](src, cfg).Subscribe(c)
	c.Cancel()

	time.Sleep(60 * time.Millisecond)
	if src.count() != 1 {
		t.Errorf("expected no resubscription after cancel, got %d subscriptions", src.count())
	}
	if _, ok := c.Completion(); ok {
		t.Error("cancelled run must not complete")
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errFlaky, true},
		{"context canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"upstream failed", errors.UpstreamFailed("src", errFlaky), true},
		{"transform failed", errors.TransformFailed("map", errFlaky), false},
		{"protocol violation", errors.ProtocolViolation("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := RetryConfig{}.withDefaults()
	if cfg.MaxAttempts != 3 || cfg.BackoffFactor != 2.0 || cfg.MaxBackoff != 10*time.Second || cfg.RetryIf == nil {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.InitialBackoff != 0 {
		t.Errorf("zero initial backoff must stay zero, got %v", cfg.InitialBackoff)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		got := calculateBackoff(tt.attempt, cfg)
		if got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestCalculateBackoff_JitterBounds(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		got := calculateBackoff(1, cfg)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("backoff %v outside jitter range", got)
		}
	}
}
