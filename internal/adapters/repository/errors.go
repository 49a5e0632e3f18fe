package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNoSnapshot  = errors.New("no snapshot published yet")
	ErrNotFound    = errors.New("product not found")
	ErrNilSnapshot = errors.New("nil snapshot")
)
