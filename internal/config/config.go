// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SHELFPULSE_* environment variables on top.
// - Validation errors wrap ErrInvalidConfig; load failures wrap ErrLoadConfig.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AnalyticsURL is the product analytics endpoint.
	AnalyticsURL string `koanf:"analytics_url"`

	// PerformanceURL is the product performance endpoint.
	PerformanceURL string `koanf:"performance_url"`

	// FetchTimeoutMS bounds each upstream request.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// RefreshSchedule is a cron spec ("*/5 * * * *", "@every 1m"). Empty
	// disables periodic refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// RefreshTimeoutMS bounds one full refresh.
	RefreshTimeoutMS int `koanf:"refresh_timeout_ms"`
}

// New creates a Config with defaults. The defaults point at a local
// fake-catalog instance.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		AnalyticsURL:     "http://localhost:9090/api/product-analytics",
		PerformanceURL:   "http://localhost:9090/api/product-performance",
		FetchTimeoutMS:   5_000,
		RefreshSchedule:  "@every 5m",
		RefreshTimeoutMS: 30_000,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// RefreshTimeout returns RefreshTimeoutMS as a duration.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutMS) * time.Millisecond
}
