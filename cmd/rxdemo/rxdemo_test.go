package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/reactive"
)

func jsonLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, serviceName, buf)
}

func TestBuildPipeline_TransformsInOrder(t *testing.T) {
	tests := []struct {
		name       string
		values     []int
		transforms []string
		want       []int
	}{
		{"no transforms", []int{1, 2}, nil, []int{1, 2}},
		{"double", []int{5, 7}, []string{"double"}, []int{10, 14}},
		{"double then inc", []int{3}, []string{"double", "inc"}, []int{7}},
		{"inc then double", []int{3}, []string{"inc", "double"}, []int{8}},
		{"square negate", []int{-2, 3}, []string{"square", "negate"}, []int{-4, -9}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := buildPipeline(StreamConfig{Values: tc.values, Transforms: tc.transforms}, logger.Nop(), nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, comp, done := reactive.Collect(p)
			if !done || !comp.IsFinished() {
				t.Fatalf("expected finished, got %v", comp)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuildPipeline_UnknownTransform(t *testing.T) {
	_, err := buildPipeline(StreamConfig{Transforms: []string{"triple"}}, logger.Nop(), nil, nil)
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestReferenceScenariosPass(t *testing.T) {
	if err := runScenarios(referenceScenarios, logger.Nop()); err != nil {
		t.Fatalf("reference scenarios failed: %v", err)
	}
}

func TestScenarioMismatchIsReported(t *testing.T) {
	bad := []scenario{
		{name: "wrong", input: 3, transforms: []string{"inc", "double"}, want: 7},
		{name: "right", input: 3, transforms: []string{"double", "inc"}, want: 7},
	}
	err := runScenarios(bad, logger.Nop())
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "wrong: got [8], want [7]") {
		t.Errorf("unexpected error %q", err.Error())
	}
	if strings.Contains(err.Error(), "right") {
		t.Errorf("passing scenario reported: %q", err.Error())
	}
}

func TestRunStream_UnboundedLogsValues(t *testing.T) {
	var buf bytes.Buffer
	cfg := StreamConfig{Values: []int{1, 2}, Transforms: []string{"double"}}

	res, err := runStream(context.Background(), cfg, jsonLogger(&buf), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Completed || !slices.Equal(res.Values, []int{2, 4}) {
		t.Fatalf("unexpected result %+v", res)
	}

	var logged []float64
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		if entry["message"] == "value" {
			logged = append(logged, entry[logger.FieldValue].(float64))
		}
	}
	if !slices.Equal(logged, []float64{2, 4}) {
		t.Errorf("logged values %v", logged)
	}
}

func TestRunStream_BoundedDemandStalls(t *testing.T) {
	cfg := StreamConfig{Values: []int{1, 2, 3}, Demand: DemandConfig{Initial: 2}}
	res, err := runStream(context.Background(), cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Completed {
		t.Error("run with exhausted demand must not complete")
	}
	if !slices.Equal(res.Values, []int{1, 2}) {
		t.Errorf("got %v", res.Values)
	}
}

func TestRunStream_PerValueDemandFinishes(t *testing.T) {
	cfg := StreamConfig{Values: []int{1, 2, 3}, Demand: DemandConfig{Initial: 1, PerValue: 1}}
	res, err := runStream(context.Background(), cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Completed || !slices.Equal(res.Values, []int{1, 2, 3}) {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunStream_Limit(t *testing.T) {
	cfg := StreamConfig{Values: []int{1, 2, 3}, Limit: 2}
	res, err := runStream(context.Background(), cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Completed || !slices.Equal(res.Values, []int{1, 2}) {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunStream_LogSignals(t *testing.T) {
	var buf bytes.Buffer
	cfg := StreamConfig{Values: []int{4}, LogSignals: true}
	if _, err := runStream(context.Background(), cfg, jsonLogger(&buf), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"`+logger.FieldSignal+`"`) {
		t.Errorf("expected signal logs, got %s", buf.String())
	}
}

func TestConsumeUnbounded_ContextCancelled(t *testing.T) {
	never := reactive.PublisherFunc[int](func(s reactive.Subscriber[int]) {
		s.OnSubscribe(nopSubscription{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := consume(ctx, never, StreamConfig{}, nil, func(int) {})
	if !errors.IsCode(err, errors.ErrCodeCancelled) {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
}

type nopSubscription struct{}

func (nopSubscription) Request(reactive.Demand) {}
func (nopSubscription) Cancel()                 {}

func TestConfigDefaultsAndValidation(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &Config{Telemetry: TelemetryConfig{Enabled: true}}
		cfg.ApplyDefaults()
		if cfg.Name != serviceName {
			t.Errorf("expected default name, got %q", cfg.Name)
		}
		if cfg.Version == "" {
			t.Error("expected version from build info")
		}
		if cfg.Telemetry.Endpoint != "localhost:4318" || cfg.Telemetry.SampleRate != 1.0 {
			t.Errorf("telemetry defaults not applied: %+v", cfg.Telemetry)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.ErrorCode
	}{
		{"unknown transform", func(c *Config) { c.Stream.Transforms = []string{"double", "cube"} }, errors.ErrCodeInvalidConfig},
		{"negative demand", func(c *Config) { c.Stream.Demand.Initial = -1 }, errors.ErrCodeInvalidConfig},
		{"per value without bound", func(c *Config) { c.Stream.Demand.PerValue = 2 }, errors.ErrCodeInvalidConfig},
		{"bad sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }, errors.ErrCodeInvalidConfig},
		{"bad endpoint", func(c *Config) { c.Telemetry.Endpoint = "not an endpoint" }, errors.ErrCodeInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.IsCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
name: rxdemo
stream:
  values: [3]
  transforms: [double, inc]
  demand:
    initial: 1
    per_value: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := (&rootOptions{configFile: path}).load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cfg.Stream.Transforms, []string{"double", "inc"}) || cfg.Stream.Demand.PerValue != 1 {
		t.Errorf("unexpected stream config %+v", cfg.Stream)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("bad json %q: %v", out.String(), err)
	}
	if info["version"] == "" {
		t.Error("expected version field")
	}
}

func TestRunStream_FailureIsUpstreamFailed(t *testing.T) {
	cfg := StreamConfig{Values: []int{1}, Transforms: []string{"double"}, Fail: "disk gone"}
	res, err := runStream(context.Background(), cfg, logger.Nop(), nil)
	if !errors.IsCode(err, errors.ErrCodeUpstreamFailed) {
		t.Fatalf("expected UPSTREAM_FAILED, got %v", err)
	}
	if !slices.Equal(res.Values, []int{2}) {
		t.Errorf("values before failure = %v", res.Values)
	}
}

func TestRunStream_RetriesFailingSource(t *testing.T) {
	var buf bytes.Buffer
	cfg := StreamConfig{Values: []int{1}, Fail: "flaky", Retry: RetryConfig{MaxAttempts: 3}}
	res, err := runStream(context.Background(), cfg, jsonLogger(&buf), nil)
	if !errors.IsCode(err, errors.ErrCodeUpstreamFailed) {
		t.Fatalf("expected UPSTREAM_FAILED after retries, got %v", err)
	}
	if !slices.Equal(res.Values, []int{1, 1, 1}) {
		t.Errorf("expected one value per attempt, got %v", res.Values)
	}
	if got := strings.Count(buf.String(), "retrying source"); got != 2 {
		t.Errorf("expected 2 retry logs, got %d", got)
	}
}

func TestRunStream_RetryWithBoundedDemand(t *testing.T) {
	cfg := StreamConfig{
		Values: []int{1, 2},
		Fail:   "flaky",
		Demand: DemandConfig{Initial: 1, PerValue: 1},
		Retry:  RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := runStream(ctx, cfg, logger.Nop(), nil)
	if !errors.IsCode(err, errors.ErrCodeUpstreamFailed) {
		t.Fatalf("expected UPSTREAM_FAILED, got %v", err)
	}
	if !slices.Equal(res.Values, []int{1, 2, 1, 2}) {
		t.Errorf("values = %v", res.Values)
	}
}

func TestRunStream_RetryEnabledStallReturns(t *testing.T) {
	cfg := StreamConfig{
		Values: []int{1, 2, 3},
		Demand: DemandConfig{Initial: 1},
		Retry:  RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	res, err := runStream(ctx, cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("stalled run took %v, expected an immediate return", elapsed)
	}
	if res.Completed {
		t.Error("run with exhausted demand must not complete")
	}
	if !slices.Equal(res.Values, []int{1}) {
		t.Errorf("got %v", res.Values)
	}
}

func TestRunStream_RetryStallAfterBackoffReturns(t *testing.T) {
	var buf bytes.Buffer
	cfg := StreamConfig{
		Values: []int{1},
		Fail:   "flaky",
		Demand: DemandConfig{Initial: 2},
		Retry:  RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	res, err := runStream(ctx, cfg, jsonLogger(&buf), nil)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("stalled run took %v, expected to return once the retry settled", elapsed)
	}
	if res.Completed {
		t.Error("third attempt runs out of demand and must not complete")
	}
	if !slices.Equal(res.Values, []int{1, 1}) {
		t.Errorf("got %v", res.Values)
	}
	if got := strings.Count(buf.String(), "retrying source"); got != 2 {
		t.Errorf("expected 2 retry logs, got %d", got)
	}
}
