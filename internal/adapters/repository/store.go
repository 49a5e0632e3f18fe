// Package repository holds the published dashboard snapshots.
package repository

import (
	"context"
	"time"

	"github.com/okian/shelfpulse/internal/domain/classify"
	"github.com/okian/shelfpulse/internal/domain/model"
)

// Snapshot is an immutable dashboard state. Exactly one of Result or Err is
// meaningful: a snapshot with Err set records that the last refresh could
// not fetch its sources, and carries no classification.
type Snapshot struct {
	ID          string
	Seq         uint64
	GeneratedAt time.Time
	Result      classify.Result
	Analytics   model.AnalyticsPayload
	Err         error
}

// Failed reports whether the snapshot records a fetch failure.
func (s *Snapshot) Failed() bool {
	return s != nil && s.Err != nil
}

// Store provides access to the latest snapshot.
type Store interface {
	// Publish replaces the current snapshot when snap.Seq is newer than the
	// stored one. It returns false when snap was superseded and dropped.
	Publish(ctx context.Context, snap *Snapshot) (bool, error)

	// Latest returns the current snapshot, or ErrNoSnapshot.
	Latest(ctx context.Context) (*Snapshot, error)

	// Product looks a record up in the current snapshot's buckets.
	// Returns ErrNotFound when no bucket holds it.
	Product(ctx context.Context, id model.ProductID) (model.ProductPerformanceRecord, error)
}
