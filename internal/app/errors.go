package service

import (
	"errors"

	"github.com/okian/shelfpulse/internal/adapters/source"
)

var (
	// ErrFetchFailed is the dashboard's failure state: one of the upstream
	// sources could not be fetched during the latest refresh.
	ErrFetchFailed = source.ErrFetchFailed
	// ErrNotReady is returned before the first refresh has been published.
	ErrNotReady = errors.New("dashboard not ready")
	// ErrProductNotFound is returned when no bucket holds the product.
	ErrProductNotFound = errors.New("product not found")
	// ErrSuperseded is returned by Refresh when a newer refresh published first.
	ErrSuperseded = errors.New("refresh superseded")
	// ErrNoSource is returned by Start and Refresh when no fetcher is configured.
	ErrNoSource = errors.New("no source configured")
)
