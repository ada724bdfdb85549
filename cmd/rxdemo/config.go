package main

import (
	"time"

	"github.com/kbukum/rxkit/config"
	"github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/version"
)

const serviceName = "rxdemo"

// Config is the rxdemo configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Stream               StreamConfig    `yaml:"stream" mapstructure:"stream"`
	Telemetry            TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// StreamConfig describes the pipeline: source values, transforms applied in
// order, and how the consumer requests values.
type StreamConfig struct {
	Values     []int        `yaml:"values" mapstructure:"values"`
	Transforms []string     `yaml:"transforms" mapstructure:"transforms" validate:"dive,oneof=double inc square negate"`
	Demand     DemandConfig `yaml:"demand" mapstructure:"demand"`
	// Limit cancels the run after that many values. Zero means no limit.
	Limit      int  `yaml:"limit" mapstructure:"limit" validate:"gte=0"`
	LogSignals bool `yaml:"log_signals" mapstructure:"log_signals"`
	// Fail makes the source fail with this message after its values.
	Fail  string      `yaml:"fail" mapstructure:"fail"`
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig resubscribes to a failing source. MaxAttempts of 0 or 1
// disables retrying.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
}

// Enabled reports whether the source is retried.
func (r RetryConfig) Enabled() bool { return r.MaxAttempts > 1 }

// DemandConfig is the consumer's demand. An Initial of zero requests
// unlimited values up front.
type DemandConfig struct {
	Initial  int64 `yaml:"initial" mapstructure:"initial" validate:"gte=0"`
	PerValue int64 `yaml:"per_value" mapstructure:"per_value" validate:"gte=0"`
}

// Unbounded reports whether the consumer requests Unlimited.
func (d DemandConfig) Unbounded() bool { return d.Initial == 0 }

// TelemetryConfig enables OTLP metrics and traces for the stream.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			c.Telemetry.Endpoint = "localhost:4318"
		}
		if c.Telemetry.SampleRate == 0 {
			c.Telemetry.SampleRate = 1.0
		}
		if c.Telemetry.Interval == 0 {
			c.Telemetry.Interval = 15 * time.Second
		}
	}
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := config.Validate(&c.Stream); err != nil {
		return err
	}
	if c.Stream.Demand.Unbounded() && c.Stream.Demand.PerValue > 0 {
		return errors.InvalidConfig("stream.demand.per_value", "per_value needs a bounded initial demand")
	}
	if err := config.Validate(&c.Telemetry); err != nil {
		return err
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.MissingField("telemetry.endpoint")
	}
	return nil
}
