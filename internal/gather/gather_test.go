package gather

import (
	"context"
	"sync"
	"time"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/ticker"
)

type fetchResult struct {
	body   string
	status int
	err    error
}

// scriptedFetcher serves canned responses per URL. When a URL has a queue of
// responses they are consumed in order, with the last one repeating.
type scriptedFetcher struct {
	mu      sync.Mutex
	results map[string][]fetchResult
	calls   []string
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{results: make(map[string][]fetchResult)}
}

func (f *scriptedFetcher) add(url string, res fetchResult) {
	f.results[url] = append(f.results[url], res)
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string, _ map[string]string) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	queue, ok := f.results[url]
	if !ok || len(queue) == 0 {
		return nil, 404, nil
	}
	res := queue[0]
	if len(queue) > 1 {
		f.results[url] = queue[1:]
	}
	return []byte(res.body), res.status, res.err
}

func (f *scriptedFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

// recordingSleeper returns immediately and records requested durations
type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
}

// allowLookup reports every symbol tradable
type allowLookup struct{}

func (allowLookup) IsTradable(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// stubBroker serves a fixed snapshot map; other calls are unused in gather
// tests.
type stubBroker struct {
	snapshots map[string]broker.Snapshot
	err       error
}

func (b *stubBroker) GetAccount(_ context.Context) (*broker.Account, error) {
	return &broker.Account{}, nil
}

func (b *stubBroker) GetPositions(_ context.Context) ([]broker.Position, error) {
	return nil, nil
}

func (b *stubBroker) IsTradable(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (b *stubBroker) GetCryptoSnapshots(_ context.Context, _ []string) (map[string]broker.Snapshot, error) {
	return b.snapshots, b.err
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: "error"})
}

func newTestDeps(fetcher Fetcher, strategy config.StrategyConfig, gatherCfg config.GatherConfig) *Deps {
	logger := testLogger()
	return &Deps{
		Fetcher:   fetcher,
		Sleeper:   &recordingSleeper{},
		Logger:    logger,
		Scorer:    sentiment.NewScorer(sentiment.DefaultScorerConfig()),
		Validator: ticker.NewValidator(fetcher, "http://directory.test/tickers.json", logger),
		Lookup:    allowLookup{},
		Strategy:  strategy,
		Gather:    gatherCfg,
	}
}
