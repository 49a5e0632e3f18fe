// Package service keeps the dashboard snapshot fresh and serves it to the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/shelfpulse/internal/adapters/repository"
	"github.com/okian/shelfpulse/internal/adapters/source"
	"github.com/okian/shelfpulse/internal/domain/classify"
	"github.com/okian/shelfpulse/internal/domain/model"
	"github.com/okian/shelfpulse/pkg/logger"
	"github.com/okian/shelfpulse/pkg/metrics"
)

const (
	// DefaultRefreshSchedule refreshes every five minutes.
	DefaultRefreshSchedule = "@every 5m"
	// DefaultRefreshTimeout bounds the fetch of one refresh.
	DefaultRefreshTimeout = 30 * time.Second
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	fetcher    source.Fetcher
	cron       *cron.Cron
	cancelJobs context.CancelFunc // cancels the context of scheduled refreshes

	// Configuration
	schedule       string
	refreshTimeout time.Duration
	clock          func() time.Time

	// State
	started     bool
	starting    bool
	seq         atomic.Uint64
	refreshes   atomic.Int64
	failures    atomic.Int64
	discarded   atomic.Int64
	lastRefresh atomic.Int64 // unix nanos of the last published snapshot

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the upstream fetcher.
func WithSource(f source.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithStore replaces the snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithClock sets the time source used for classification.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRefreshSchedule sets the cron spec for periodic refreshes. An empty
// spec disables the scheduler; only the initial refresh runs.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithRefreshTimeout bounds the fetch of each refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:          repository.NewSnapshotStore(),
		schedule:       DefaultRefreshSchedule,
		refreshTimeout: DefaultRefreshTimeout,
		clock:          time.Now,
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// Start runs an initial refresh and schedules the periodic ones. A failed
// initial refresh is logged and leaves the dashboard in its failure state.
// The initial refresh runs without holding the service lock.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.starting {
		s.mu.Unlock()
		return nil
	}
	if s.fetcher == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	s.starting = true
	s.mu.Unlock()

	s.log().Info(ctx, "starting dashboard service...")

	if _, err := s.Refresh(ctx); err != nil {
		s.log().Warn(ctx, "initial refresh failed", logger.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false

	if s.schedule != "" {
		cl := cronLogger{log: s.log().Named("cron")}
		c := cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
		jobCtx, cancel := context.WithCancel(context.Background())
		if _, err := c.AddFunc(s.schedule, func() { s.scheduledRefresh(jobCtx) }); err != nil {
			cancel()
			return fmt.Errorf("schedule refresh %q: %w", s.schedule, err)
		}
		c.Start()
		s.cron = c
		s.cancelJobs = cancel
	}

	s.started = true
	s.log().Info(ctx, "dashboard service started",
		logger.String("schedule", s.schedule),
		logger.Duration("refreshTimeout", s.refreshTimeout),
	)
	return nil
}

// Stop halts the scheduler, cancels a running scheduled refresh and waits
// for it to return.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.log().Info(context.Background(), "stopping dashboard service...")
	if s.cron != nil {
		stopped := s.cron.Stop()
		s.cancelJobs()
		<-stopped.Done()
		s.cron = nil
		s.cancelJobs = nil
	}

	s.started = false
	s.log().Info(context.Background(), "dashboard service stopped")
}

func (s *Service) scheduledRefresh(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.log().Warn(ctx, "scheduled refresh failed", logger.Error(err))
	}
}

// Refresh fetches both sources, classifies the performance records and
// publishes the result. A fetch failure, including the refresh timeout
// expiring, publishes a failure snapshot in place of the previous one and
// returns an error wrapping ErrFetchFailed. If ctx is cancelled before
// publishing, or a newer refresh has already published, the result is
// dropped.
func (s *Service) Refresh(ctx context.Context) (*repository.Snapshot, error) {
	if s.fetcher == nil {
		return nil, ErrNoSource
	}
	seq := s.seq.Add(1)
	s.refreshes.Add(1)
	started := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	payloads, err := s.fetcher.Fetch(fetchCtx)
	cancel()
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.discard(ctx, seq, "context done before publish")
		return nil, ctxErr
	}
	if err != nil {
		return nil, s.publishFailure(ctx, seq, err)
	}

	now := s.clock()
	res := classify.Classify(payloads.Performance.Performance, now)
	metrics.RecordClassification(float64(time.Since(started).Microseconds())/1000, len(payloads.Performance.Performance))

	snap := &repository.Snapshot{
		ID:          uuid.NewString(),
		Seq:         seq,
		GeneratedAt: now.UTC(),
		Result:      res,
		Analytics:   payloads.Analytics,
	}
	ok, err := s.store.Publish(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	if !ok {
		s.discard(ctx, seq, "superseded by a newer refresh")
		return nil, ErrSuperseded
	}

	s.lastRefresh.Store(now.UnixNano())
	metrics.RecordRefresh(metrics.OutcomeSuccess)
	s.log().Info(ctx, "dashboard refreshed",
		logger.String("snapshot", snap.ID),
		logger.Int("topSaleable", len(res.TopSaleableProducts)),
		logger.Int("nonSaleable", len(res.NonSaleableProducts)),
		logger.Int("ratedToday", len(res.CurrentRatedProducts)),
		logger.Int("saleableCount", res.SaleableCount),
		logger.Int("nonSaleableCount", res.NonSaleableCount),
		logger.Duration("took", time.Since(started)),
	)
	return snap, nil
}

func (s *Service) publishFailure(ctx context.Context, seq uint64, cause error) error {
	if !errors.Is(cause, ErrFetchFailed) {
		cause = fmt.Errorf("%w: %w", ErrFetchFailed, cause)
	}
	s.failures.Add(1)
	metrics.RecordRefresh(metrics.OutcomeFailure)

	now := s.clock()
	snap := &repository.Snapshot{
		ID:          uuid.NewString(),
		Seq:         seq,
		GeneratedAt: now.UTC(),
		Err:         cause,
	}
	if ok, err := s.store.Publish(ctx, snap); err == nil && ok {
		s.lastRefresh.Store(now.UnixNano())
	}
	s.log().Error(ctx, "dashboard refresh failed", logger.Error(cause))
	return cause
}

func (s *Service) discard(ctx context.Context, seq uint64, reason string) {
	s.discarded.Add(1)
	metrics.RecordRefreshDiscarded()
	s.log().Debug(ctx, "refresh result discarded",
		logger.Int64("seq", int64(seq)),
		logger.String("reason", reason),
	)
}

// Dashboard returns the latest good snapshot.
func (s *Service) Dashboard(ctx context.Context) (*repository.Snapshot, error) {
	snap, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoSnapshot) {
			return nil, ErrNotReady
		}
		return nil, err
	}
	if snap.Failed() {
		return nil, snap.Err
	}
	return snap, nil
}

// Product returns one classified product from the latest snapshot.
func (s *Service) Product(ctx context.Context, id model.ProductID) (model.ProductPerformanceRecord, error) {
	rec, err := s.store.Product(ctx, id)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, repository.ErrNotFound):
		return rec, ErrProductNotFound
	case errors.Is(err, repository.ErrNoSnapshot):
		return rec, ErrNotReady
	default:
		return rec, err
	}
}

// Analytics returns the analytics document of the latest good snapshot.
func (s *Service) Analytics(ctx context.Context) (model.AnalyticsPayload, error) {
	snap, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Analytics, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"schedule":         s.schedule,
		"refreshes":        s.refreshes.Load(),
		"refreshFailures":  s.failures.Load(),
		"refreshDiscarded": s.discarded.Load(),
	}

	if ns := s.lastRefresh.Load(); ns != 0 {
		stats["lastRefresh"] = time.Unix(0, ns).UTC().Format(time.RFC3339)
	}

	if snap, err := s.store.Latest(context.Background()); err == nil {
		stats["snapshotId"] = snap.ID
		stats["fetchFailed"] = snap.Failed()
		if !snap.Failed() {
			stats["saleableCount"] = snap.Result.SaleableCount
			stats["nonSaleableCount"] = snap.Result.NonSaleableCount
			stats["ratedToday"] = len(snap.Result.CurrentRatedProducts)
		}
	}

	return stats
}
