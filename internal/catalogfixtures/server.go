package catalogfixtures

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/shelfpulse/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server serves a regenerated catalog on every request, so the rated-today
// bucket follows the wall clock.
type Server struct {
	cfg   Config
	clock func() time.Time
	log   logger.Logger

	failAnalytics   atomic.Bool
	failPerformance atomic.Bool
	requests        atomic.Int64
}

// NewServer creates a fake catalog server.
func NewServer(cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, clock: time.Now, log: log}
	s.failAnalytics.Store(cfg.FailAnalytics)
	s.failPerformance.Store(cfg.FailPerformance)
	return s
}

// SetFailures toggles the failure mode of each endpoint.
func (s *Server) SetFailures(analytics, performance bool) {
	s.failAnalytics.Store(analytics)
	s.failPerformance.Store(performance)
}

// Requests returns the number of requests served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(AnalyticsPath, s.handle(&s.failAnalytics, func(c Catalog) any {
		return c.Analytics
	}))
	mux.HandleFunc(PerformancePath, s.handle(&s.failPerformance, func(c Catalog) any {
		return map[string]any{"performance": c.Products}
	}))
	return mux
}

func (s *Server) handle(fail *atomic.Bool, body func(Catalog) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		if fail.Load() {
			s.log.Debug(r.Context(), "simulated failure", logger.String("path", r.URL.Path))
			http.Error(w, "simulated upstream failure", http.StatusServiceUnavailable)
			return
		}
		catalog := Generate(s.cfg.Products, s.cfg.Seed, s.clock())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(body(catalog)); err != nil {
			s.log.Error(r.Context(), "encode response", logger.Error(err))
			return
		}
		s.log.Debug(r.Context(), "served", logger.String("path", r.URL.Path), logger.Int("products", s.cfg.Products))
	}
}

// Run listens on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "fake catalog listening",
			logger.String("addr", s.cfg.Addr),
			logger.Int("products", s.cfg.Products),
			logger.Int64("seed", s.cfg.Seed),
			logger.Bool("failAnalytics", s.failAnalytics.Load()),
			logger.Bool("failPerformance", s.failPerformance.Load()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info(ctx, "fake catalog stopped", logger.Int64("requests", s.Requests()))
	return nil
}
