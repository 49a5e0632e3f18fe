package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/shelfpulse/internal/adapters/source"
	service "github.com/okian/shelfpulse/internal/app"
	"github.com/okian/shelfpulse/internal/domain/model"
	"github.com/okian/shelfpulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var today = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

// fakeFetcher returns canned payloads or an error, optionally blocking until
// release is closed.
type fakeFetcher struct {
	mu       sync.Mutex
	payloads source.Payloads
	err      error
	release  chan struct{}
	calls    atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context) (source.Payloads, error) {
	f.mu.Lock()
	release, payloads, err := f.release, f.payloads, f.err
	f.mu.Unlock()
	f.calls.Add(1)
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return source.Payloads{}, ctx.Err()
		}
	}
	return payloads, err
}

func (f *fakeFetcher) set(p source.Payloads, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads, f.err = p, err
}

func rec(id string, units int64, ratedAt *time.Time) model.ProductPerformanceRecord {
	return model.ProductPerformanceRecord{ID: model.ProductID(id), TotalUnitsSold: &units, LatestRatingDate: ratedAt}
}

func samplePayloads() source.Payloads {
	return source.Payloads{
		Analytics: model.AnalyticsPayload(`{"visits":3}`),
		Performance: model.PerformancePayload{Performance: []model.ProductPerformanceRecord{
			rec("1", 25, nil),
			rec("2", 21, nil),
			rec("3", 2, nil),
			rec("4", 0, nil),
			rec("5", 2, &today),
		}},
	}
}

func newService(f *fakeFetcher, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithSource(f),
		service.WithClock(fixedClock),
		service.WithLogger(logger.Nop()),
		service.WithRefreshSchedule(""),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["schedule"], ShouldEqual, service.DefaultRefreshSchedule)
		})

		Convey("And it refuses to start without a source", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNoSource), ShouldBeTrue)
			_, err := svc.Refresh(context.Background())
			So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
		})

		Convey("And the dashboard is not ready", func() {
			_, err := svc.Dashboard(context.Background())
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
			_, err = svc.Product(context.Background(), "1")
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a service with healthy sources", t, func() {
		ctx := context.Background()
		f := &fakeFetcher{payloads: samplePayloads()}
		svc := newService(f)

		Convey("When refreshing", func() {
			snap, err := svc.Refresh(ctx)

			Convey("Then the classified snapshot is published", func() {
				So(err, ShouldBeNil)
				So(snap.ID, ShouldNotBeBlank)
				So(snap.GeneratedAt, ShouldEqual, today)
				So(len(snap.Result.TopSaleableProducts), ShouldEqual, 2)
				So(snap.Result.NonSaleableCount, ShouldEqual, 2)
				So(len(snap.Result.CurrentRatedProducts), ShouldEqual, 1)

				got, err := svc.Dashboard(ctx)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, snap.ID)
			})

			Convey("And products and analytics are served from it", func() {
				p, err := svc.Product(ctx, "1")
				So(err, ShouldBeNil)
				So(p.UnitsSold(), ShouldEqual, 25)

				_, err = svc.Product(ctx, "4")
				So(errors.Is(err, service.ErrProductNotFound), ShouldBeTrue)

				a, err := svc.Analytics(ctx)
				So(err, ShouldBeNil)
				So(string(a), ShouldEqual, `{"visits":3}`)
			})
		})

		Convey("When the sources return no records", func() {
			f.set(source.Payloads{Performance: model.PerformancePayload{Performance: []model.ProductPerformanceRecord{}}}, nil)
			snap, err := svc.Refresh(ctx)

			Convey("Then an empty snapshot is published without error", func() {
				So(err, ShouldBeNil)
				So(snap.Result.IsEmpty(), ShouldBeTrue)
			})
		})
	})
}

func TestService_RefreshFailure(t *testing.T) {
	Convey("Given a service that already published a good snapshot", t, func() {
		ctx := context.Background()
		f := &fakeFetcher{payloads: samplePayloads()}
		svc := newService(f)
		_, err := svc.Refresh(ctx)
		So(err, ShouldBeNil)

		Convey("When the next fetch fails", func() {
			f.set(source.Payloads{}, errors.New("connection refused"))
			_, err := svc.Refresh(ctx)

			Convey("Then the refresh reports a fetch failure", func() {
				So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
			})

			Convey("And the stale classification is no longer served", func() {
				_, err := svc.Dashboard(ctx)
				So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
				_, err = svc.Product(ctx, "1")
				So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
				_, err = svc.Analytics(ctx)
				So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
			})

			Convey("And a later success recovers", func() {
				f.set(samplePayloads(), nil)
				_, err := svc.Refresh(ctx)
				So(err, ShouldBeNil)
				_, err = svc.Dashboard(ctx)
				So(err, ShouldBeNil)
			})

			Convey("And stats count the failure", func() {
				stats := svc.GetStats()
				So(stats["refreshFailures"], ShouldEqual, 1)
				So(stats["fetchFailed"], ShouldEqual, true)
			})
		})
	})
}

func TestService_RefreshCancelled(t *testing.T) {
	Convey("Given a fetch that is still in flight", t, func() {
		f := &fakeFetcher{payloads: samplePayloads(), release: make(chan struct{})}
		svc := newService(f)

		Convey("When the caller cancels before it completes", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				_, err := svc.Refresh(ctx)
				done <- err
			}()
			cancel()
			err := <-done

			Convey("Then nothing is published", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, err := svc.Dashboard(context.Background())
				So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
				So(svc.GetStats()["refreshDiscarded"], ShouldEqual, 1)
			})
		})
	})

	Convey("Given a refresh timeout shorter than the fetch", t, func() {
		f := &fakeFetcher{payloads: samplePayloads(), release: make(chan struct{})}
		svc := newService(f, service.WithRefreshTimeout(20*time.Millisecond))

		_, err := svc.Refresh(context.Background())

		Convey("Then it is a fetch failure, not a discard", func() {
			So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
			_, err := svc.Dashboard(context.Background())
			So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
		})
	})
}

func TestService_SupersededRefresh(t *testing.T) {
	Convey("Given a slow refresh overtaken by a fast one", t, func() {
		ctx := context.Background()
		release := make(chan struct{})
		slow := &fakeFetcher{payloads: samplePayloads(), release: release}
		svc := newService(slow)

		done := make(chan error, 1)
		go func() {
			_, err := svc.Refresh(ctx)
			done <- err
		}()
		// Wait for the slow refresh to block inside its fetch.
		for slow.calls.Load() == 0 {
			time.Sleep(time.Millisecond)
		}

		slow.mu.Lock()
		slow.release = nil
		slow.mu.Unlock()
		fast, err := svc.Refresh(ctx)
		So(err, ShouldBeNil)

		close(release)
		err = <-done

		Convey("Then the late result is dropped", func() {
			So(errors.Is(err, service.ErrSuperseded), ShouldBeTrue)
			latest, err := svc.Dashboard(ctx)
			So(err, ShouldBeNil)
			So(latest.ID, ShouldEqual, fast.ID)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with a schedule", t, func() {
		f := &fakeFetcher{payloads: samplePayloads()}
		svc := newService(f, service.WithRefreshSchedule("@every 1h"))
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then the initial refresh has been published", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				_, err := svc.Dashboard(context.Background())
				So(err, ShouldBeNil)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
				So(f.calls.Load(), ShouldEqual, 1)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given an initial refresh that fails", t, func() {
		f := &fakeFetcher{err: errors.New("down")}
		svc := newService(f)
		defer svc.Stop()

		Convey("Then start still succeeds in the failure state", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			_, err := svc.Dashboard(context.Background())
			So(errors.Is(err, service.ErrFetchFailed), ShouldBeTrue)
		})
	})

	Convey("Given an initial refresh that is still fetching", t, func() {
		release := make(chan struct{})
		f := &fakeFetcher{payloads: samplePayloads(), release: release}
		svc := newService(f)
		defer svc.Stop()

		started := make(chan error, 1)
		go func() { started <- svc.Start(context.Background()) }()
		for f.calls.Load() == 0 {
			time.Sleep(time.Millisecond)
		}

		Convey("Then stats stay readable and a second start is a no-op", func() {
			got := make(chan map[string]interface{}, 1)
			go func() { got <- svc.GetStats() }()
			var stats map[string]interface{}
			select {
			case stats = <-got:
			case <-time.After(time.Second):
			}
			So(stats, ShouldNotBeNil)
			So(stats["started"], ShouldEqual, false)
			So(svc.Start(context.Background()), ShouldBeNil)

			close(release)
			So(<-started, ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(f.calls.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given a scheduled refresh stuck in its fetch", t, func() {
		f := &fakeFetcher{payloads: samplePayloads()}
		svc := newService(f, service.WithRefreshSchedule("@every 1s"))
		So(svc.Start(context.Background()), ShouldBeNil)

		f.mu.Lock()
		f.release = make(chan struct{})
		f.mu.Unlock()
		deadline := time.Now().Add(5 * time.Second)
		for f.calls.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		So(f.calls.Load(), ShouldBeGreaterThanOrEqualTo, 2)

		Convey("Then stop cancels it instead of waiting out the refresh timeout", func() {
			begin := time.Now()
			svc.Stop()
			So(time.Since(begin), ShouldBeLessThan, 5*time.Second)
			So(svc.GetStats()["refreshDiscarded"], ShouldEqual, 1)
			So(svc.GetStats()["refreshFailures"], ShouldEqual, 0)
		})
	})

	Convey("Given an invalid schedule", t, func() {
		f := &fakeFetcher{payloads: samplePayloads()}
		svc := newService(f, service.WithRefreshSchedule("not a schedule"))

		Convey("Then start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}
