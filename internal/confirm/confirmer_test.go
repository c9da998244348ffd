package confirm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"signal-engine/config"
	"signal-engine/internal/logging"
	"signal-engine/internal/statestore"
)

// fakeFetcher returns the same canned response for every call and counts
// the requests it sees.
type fakeFetcher struct {
	mu    sync.Mutex
	body  string
	calls int
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ map[string]string) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, url)
	return []byte(f.body), 200, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() config.ConfirmationConfig {
	return config.ConfirmationConfig{
		BearerToken:     "test-token",
		DailyReadBudget: 200,
		MinSentiment:    0.3,
		CacheTTL:        300 * time.Second,
		SearchURL:       "http://twitter.test/2/tweets/search/recent",
	}
}

func searchJSON(texts ...string) string {
	tweets := make([]string, 0, len(texts))
	for i, text := range texts {
		tweets = append(tweets, fmt.Sprintf(
			`{"text":%q,"author_id":"u%d","created_at":%q,"public_metrics":{"retweet_count":10,"like_count":100}}`,
			text, i, time.Now().UTC().Format(time.RFC3339)))
	}
	return fmt.Sprintf(
		`{"data":[%s],"includes":{"users":[{"id":"u0","username":"trader0","public_metrics":{"followers_count":100000}},{"id":"u1","username":"trader1","public_metrics":{"followers_count":500}}]}}`,
		strings.Join(tweets, ","))
}

func newTestConfirmer(cfg config.ConfirmationConfig, fetcher Fetcher) *Confirmer {
	logger := logging.New(&logging.Config{Level: "error"})
	return NewConfirmer(cfg, fetcher, statestore.NewMemoryStore(), logger)
}

func TestConfirmDisabledWithoutToken(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = ""
	fetcher := &fakeFetcher{body: searchJSON("buy calls")}
	c := newTestConfirmer(cfg, fetcher)

	result, err := c.Confirm(context.Background(), "GME", 0.8)
	if err != nil || result != nil {
		t.Fatalf("disabled confirmer should no-op, got (%v, %v)", result, err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("disabled confirmer should not touch the network, got %d calls", fetcher.callCount())
	}
}

func TestConfirmSkipsWeakSentiment(t *testing.T) {
	fetcher := &fakeFetcher{body: searchJSON("buy calls")}
	c := newTestConfirmer(testConfig(), fetcher)

	result, err := c.Confirm(context.Background(), "GME", 0.1)
	if err != nil || result != nil {
		t.Fatalf("weak sentiment should be skipped, got (%v, %v)", result, err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("skipped symbol should not spend a read, got %d calls", fetcher.callCount())
	}
	if got := c.BudgetRemaining(context.Background()); got != 200 {
		t.Errorf("budget should be untouched, got %d remaining", got)
	}
}

func TestConfirmScoresAndAgreesOnSign(t *testing.T) {
	fetcher := &fakeFetcher{body: searchJSON("buy calls to the moon", "looking strong, bullish")}
	c := newTestConfirmer(testConfig(), fetcher)

	result, err := c.Confirm(context.Background(), "gme", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Symbol != "GME" {
		t.Errorf("symbol should be upper-cased, got %s", result.Symbol)
	}
	if result.TweetCount != 2 {
		t.Errorf("expected 2 tweets, got %d", result.TweetCount)
	}
	if result.Sentiment <= 0 {
		t.Errorf("bullish tweets should score positive, got %f", result.Sentiment)
	}
	if !result.ConfirmsExisting {
		t.Error("positive confirmation should agree with positive gathered sentiment")
	}
	if len(result.Highlights) != 2 {
		t.Errorf("expected both tweets as highlights, got %d", len(result.Highlights))
	}
}

func TestConfirmDisagreesOnOppositeSign(t *testing.T) {
	fetcher := &fakeFetcher{body: searchJSON("sell everything, crash incoming", "puts puts puts, dump it")}
	c := newTestConfirmer(testConfig(), fetcher)

	result, err := c.Confirm(context.Background(), "GME", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sentiment >= 0 {
		t.Fatalf("bearish tweets should score negative, got %f", result.Sentiment)
	}
	if result.ConfirmsExisting {
		t.Error("negative confirmation should not confirm positive gathered sentiment")
	}
}

func TestConfirmUsesCacheWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{body: searchJSON("buy calls")}
	c := newTestConfirmer(testConfig(), fetcher)
	ctx := context.Background()

	first, err := c.Confirm(ctx, "GME", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Error("first result should not be served from cache")
	}

	second, err := c.Confirm(ctx, "GME", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Error("second result within TTL should be served from cache")
	}
	if fetcher.callCount() != 1 {
		t.Errorf("cached result should not refetch, got %d calls", fetcher.callCount())
	}
	if got := c.BudgetRemaining(ctx); got != 199 {
		t.Errorf("cached result should not spend budget, got %d remaining", got)
	}
}

func TestConfirmBudgetExhaustion(t *testing.T) {
	cfg := testConfig()
	cfg.DailyReadBudget = 2
	fetcher := &fakeFetcher{body: searchJSON("buy calls")}
	c := newTestConfirmer(cfg, fetcher)
	ctx := context.Background()

	for i, sym := range []string{"AAA", "BBB"} {
		if _, err := c.Confirm(ctx, sym, 0.8); err != nil {
			t.Fatalf("read %d should succeed: %v", i+1, err)
		}
	}

	if _, err := c.Confirm(ctx, "CCC", 0.8); err != ErrBudgetExhausted {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("exhausted budget must not reach the network, got %d calls", fetcher.callCount())
	}
}

func TestConfirmBudgetRollsOverAfterWindow(t *testing.T) {
	cfg := testConfig()
	cfg.DailyReadBudget = 1
	fetcher := &fakeFetcher{body: searchJSON("buy calls")}
	logger := logging.New(&logging.Config{Level: "error"})
	store := statestore.NewMemoryStore()
	c := NewConfirmer(cfg, fetcher, store, logger)
	ctx := context.Background()

	// Simulate a window that was exhausted more than 24h ago.
	exhausted := budgetState{Count: 1, WindowStart: time.Now().Add(-25 * time.Hour)}
	if err := store.Set(ctx, budgetStateKey, exhausted); err != nil {
		t.Fatalf("failed to seed budget state: %v", err)
	}

	if _, err := c.Confirm(ctx, "GME", 0.8); err != nil {
		t.Fatalf("expired window should reset the budget: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("expected one fetch after rollover, got %d", fetcher.callCount())
	}
}

func TestTweetWeight(t *testing.T) {
	tests := []struct {
		followers, likes, retweets int
		want                       float64
	}{
		{0, 0, 0, 0},
		{99999, 0, 0, 1.0}, // log10(100000)/5 = 1.0
		{99999, 300, 0, 1.3},
		{99999, 0, 150, 1.3},
		{99999, 1000, 1000, 1.3}, // engagement capped
	}

	for _, tt := range tests {
		got := TweetWeight(tt.followers, tt.likes, tt.retweets)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TweetWeight(%d, %d, %d) = %f, want %f",
				tt.followers, tt.likes, tt.retweets, got, tt.want)
		}
	}
}
