// Package gather runs the per-source signal gatherers. Each gatherer
// consumes external feeds through a narrow capability surface and produces
// signals for the current decision cycle; a failure in one sub-source is
// logged and never aborts the rest of the gather.
package gather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/signal"
	"signal-engine/internal/ticker"
)

// Fetcher performs an HTTP GET with headers and returns body and status
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error)
}

// Sleeper is the suspension primitive used for inter-request pacing and
// retry backoff. It returns early when the context is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

// Gatherer produces the signals one feed contributes to a cycle
type Gatherer interface {
	Name() string
	Gather(ctx context.Context) []signal.Signal
}

// Deps bundles the capabilities shared by all gatherers
type Deps struct {
	Fetcher   Fetcher
	Sleeper   Sleeper
	Logger    *logging.Logger
	Scorer    *sentiment.Scorer
	Validator *ticker.Validator
	Lookup    ticker.AssetLookup
	Broker    broker.Client
	Strategy  config.StrategyConfig
	Gather    config.GatherConfig
}

// sourceWeight returns the configured weight for a sub-source, 1.0 when
// unset.
func (d *Deps) sourceWeight(key string) float64 {
	if w, ok := d.Gather.SourceWeights[key]; ok {
		return w
	}
	return 1.0
}

// pace applies the configured inter-request delay. Used between upstream
// calls to avoid tripping rate limits, not for correctness.
func (d *Deps) pace(ctx context.Context) {
	if d.Gather.RequestPacing > 0 {
		d.Sleeper.Sleep(ctx, d.Gather.RequestPacing)
	}
}

// HTTPFetcher is the production Fetcher
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with a bounded request timeout
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: 15 * time.Second},
		userAgent: "signal-engine/1.0",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// ClockSleeper sleeps on the wall clock, honoring context cancellation
type ClockSleeper struct{}

func (ClockSleeper) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
