// Package catalogfixtures serves generated product analytics and product
// performance documents for local development and end-to-end tests.
package catalogfixtures

import (
	"errors"
	"fmt"
)

// Endpoint paths served by Server.
const (
	AnalyticsPath   = "/api/product-analytics"
	PerformancePath = "/api/product-performance"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid fake catalog config")

// Config holds configuration for the fake catalog.
type Config struct {
	Addr            string // Listen address
	Products        int    // Number of products to generate
	Seed            int64  // Generator seed; equal seeds give equal catalogs
	FailAnalytics   bool   // Answer the analytics endpoint with 503
	FailPerformance bool   // Answer the performance endpoint with 503
	LogFile         string // Optional file that receives a copy of the logs
	Verbose         bool   // Enable debug logging
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.Products < 0 {
		return fmt.Errorf("%w: products must not be negative", ErrInvalidConfig)
	}
	return nil
}
