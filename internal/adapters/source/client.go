// Package source fetches the two upstream documents the dashboard is built
// from: product analytics and product performance.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/shelfpulse/internal/domain/model"
	"github.com/okian/shelfpulse/pkg/logger"
	"github.com/okian/shelfpulse/pkg/metrics"
)

// Source names used in errors, logs and metric labels.
const (
	Analytics   = "analytics"
	Performance = "performance"
)

// Payloads is the joined result of one fetch. Both halves are always set.
type Payloads struct {
	Analytics   model.AnalyticsPayload
	Performance model.PerformancePayload
}

// Fetcher is implemented by Client; the service depends on this.
type Fetcher interface {
	Fetch(ctx context.Context) (Payloads, error)
}

// Client fetches both sources concurrently.
type Client struct {
	analyticsURL   string
	performanceURL string
	http           *http.Client
	timeout        time.Duration
	maxBody        int64
	log            logger.Logger
}

// New builds a Client for the given source URLs.
func New(analyticsURL, performanceURL string, opts ...Option) (*Client, error) {
	if analyticsURL == "" {
		return nil, fmt.Errorf("%s: %w", Analytics, ErrMissingURL)
	}
	if performanceURL == "" {
		return nil, fmt.Errorf("%s: %w", Performance, ErrMissingURL)
	}
	c := &Client{
		analyticsURL:   analyticsURL,
		performanceURL: performanceURL,
		http:           &http.Client{},
		timeout:        DefaultTimeout,
		maxBody:        DefaultMaxBodyBytes,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch requests both sources and returns only when both succeeded. The
// first failure cancels the other request and is returned wrapped in
// ErrFetchFailed. There is no retry.
func (c *Client) Fetch(ctx context.Context) (Payloads, error) {
	var out Payloads
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, err := c.get(gctx, Analytics, c.analyticsURL)
		if err != nil {
			return err
		}
		if !json.Valid(body) {
			return c.fail(Analytics, "decode", errors.New("invalid json"))
		}
		out.Analytics = model.AnalyticsPayload(body)
		return nil
	})

	g.Go(func() error {
		body, err := c.get(gctx, Performance, c.performanceURL)
		if err != nil {
			return err
		}
		var p model.PerformancePayload
		if err := json.Unmarshal(body, &p); err != nil {
			return c.fail(Performance, "decode", err)
		}
		if p.Skipped > 0 {
			c.log.Warn(gctx, "skipped malformed performance entries", logger.Int("skipped", p.Skipped))
		}
		metrics.UpdateSourceRecords(len(p.Performance))
		out.Performance = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return Payloads{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, name, url string) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.fail(name, "request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordSourceFetch(name, metrics.OutcomeFailure, msSince(start))
		return nil, c.fail(name, "transport", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordSourceFetch(name, metrics.OutcomeFailure, msSince(start))
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return nil, c.fail(name, "status", fmt.Errorf("%w: %s", ErrUnexpectedStatus, strconv.Itoa(resp.StatusCode)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		metrics.RecordSourceFetch(name, metrics.OutcomeFailure, msSince(start))
		return nil, c.fail(name, "read", err)
	}

	metrics.RecordSourceFetch(name, metrics.OutcomeSuccess, msSince(start))
	c.log.Debug(ctx, "source fetched",
		logger.String("source", name),
		logger.Int("bytes", len(body)),
		logger.Duration("took", time.Since(start)),
	)
	return body, nil
}

func (c *Client) fail(name, stage string, err error) error {
	metrics.RecordErrorByComponent("source_"+name, stage)
	return fmt.Errorf("%w: %s %s: %w", ErrFetchFailed, name, stage, err)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
