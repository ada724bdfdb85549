// Package config loads service configuration from YAML files, .env files and
// environment variables, then applies defaults and validates the result.
//
// Files are resolved from the conventional cmd/<service>/config.yml and .env
// locations unless given explicitly. Environment variables prefixed with the
// upper-cased service name override file values, with underscores standing in
// for nesting:
//
//	RXDEMO_DEMAND_INITIAL=3  ->  demand.initial
//
// # Usage
//
//	var cfg MyConfig
//	if err := config.Load("rxdemo", &cfg); err != nil { ... }
//
// Struct fields are validated with go-playground/validator tags; failures are
// reported as INVALID_CONFIG errors.
package config
