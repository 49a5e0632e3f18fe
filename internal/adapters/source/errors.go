package source

import "errors"

var (
	// ErrFetchFailed is returned when either upstream request fails. The
	// dashboard treats both sources as one joint dependency.
	ErrFetchFailed = errors.New("failed to fetch")
	// ErrMissingURL is returned by New when a source URL is not configured.
	ErrMissingURL = errors.New("source url is required")
	// ErrUnexpectedStatus marks a non-2xx upstream response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
