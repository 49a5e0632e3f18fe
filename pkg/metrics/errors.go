package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownBucket = errors.New("metrics: unknown bucket")
)
