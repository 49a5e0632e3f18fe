package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/shelfpulse/internal/domain/model"
	"github.com/okian/shelfpulse/pkg/metrics"
)

// SnapshotStore is a lock-free Store. Readers load an atomic pointer; writers
// swap it only when their sequence number is newer, so a refresh that
// finishes after a later one never overwrites it.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish implements Store.Publish.
func (s *SnapshotStore) Publish(_ context.Context, snap *Snapshot) (bool, error) {
	if snap == nil {
		metrics.RecordErrorByComponent("repository", "nil_snapshot")
		return false, ErrNilSnapshot
	}
	for {
		old := s.current.Load()
		if old != nil && snap.Seq <= old.Seq {
			return false, nil
		}
		if s.current.CompareAndSwap(old, snap) {
			break
		}
	}

	metrics.RecordSnapshotPublished(float64(time.Now().Unix()), snap.Failed())
	if !snap.Failed() {
		updateBucketMetrics(snap)
	}
	return true, nil
}

// Latest implements Store.Latest.
func (s *SnapshotStore) Latest(_ context.Context) (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Product implements Store.Product. A failed snapshot holds no records.
func (s *SnapshotStore) Product(ctx context.Context, id model.ProductID) (model.ProductPerformanceRecord, error) {
	snap, err := s.Latest(ctx)
	if err != nil {
		return model.ProductPerformanceRecord{}, err
	}
	if snap.Failed() {
		return model.ProductPerformanceRecord{}, snap.Err
	}
	rec, ok := snap.Result.Find(id)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.ProductPerformanceRecord{}, ErrNotFound
	}
	return rec, nil
}

func updateBucketMetrics(snap *Snapshot) {
	r := snap.Result
	sizes := map[string]int{
		metrics.BucketTopSaleable:      len(r.TopSaleableProducts),
		metrics.BucketNonSaleable:      len(r.NonSaleableProducts),
		metrics.BucketRatedToday:       len(r.CurrentRatedProducts),
		metrics.BucketSaleableTotal:    r.SaleableCount,
		metrics.BucketNonSaleableTotal: r.NonSaleableCount,
	}
	for bucket, size := range sizes {
		_ = metrics.UpdateBucketSize(bucket, size)
	}
}
