package gather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"signal-engine/config"
)

func trendingTestConfig() config.GatherConfig {
	return config.GatherConfig{
		TrendingURL:        "http://trending.test/trending.json",
		StreamURLTemplate:  "http://trending.test/streams/%s.json",
		MaxTrendingSymbols: 5,
	}
}

func streamJSON(now time.Time, basics ...string) string {
	messages := ""
	for i, basic := range basics {
		if i > 0 {
			messages += ","
		}
		messages += fmt.Sprintf(`{"body":"msg","created_at":%q,"entities":{"sentiment":{"basic":%q}}}`,
			now.UTC().Format("2006-01-02T15:04:05Z"), basic)
	}
	return fmt.Sprintf(`{"messages":[%s]}`, messages)
}

func TestTrendingGatherScoresTaggedMessages(t *testing.T) {
	now := time.Now()
	fetcher := newScriptedFetcher()
	fetcher.add("http://trending.test/trending.json", fetchResult{
		body:   `{"symbols":[{"symbol":"TSLA","title":"Tesla"}]}`,
		status: 200,
	})
	fetcher.add("http://trending.test/streams/TSLA.json", fetchResult{
		body:   streamJSON(now, "Bullish", "Bullish", "Bearish"),
		status: 200,
	})

	deps := newTestDeps(fetcher, config.StrategyConfig{}, trendingTestConfig())
	g := NewTrendingGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.Symbol != "TSLA" {
		t.Errorf("expected symbol TSLA, got %s", sig.Symbol)
	}
	if sig.Bullish != 2 || sig.Bearish != 1 {
		t.Errorf("expected 2 bullish 1 bearish, got %d/%d", sig.Bullish, sig.Bearish)
	}
	if sig.Sentiment <= 0 {
		t.Errorf("majority-bullish stream should score positive, got %f", sig.Sentiment)
	}
	if sig.Volume != 3 {
		t.Errorf("expected volume 3, got %d", sig.Volume)
	}
}

func TestTrendingGatherRetriesBlockedFetch(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.add("http://trending.test/trending.json", fetchResult{status: 403})

	deps := newTestDeps(fetcher, config.StrategyConfig{}, trendingTestConfig())
	sleeper := deps.Sleeper.(*recordingSleeper)
	g := NewTrendingGatherer(deps)

	signals := g.Gather(context.Background())
	if signals != nil {
		t.Fatalf("expected no signals after exhausted retries, got %d", len(signals))
	}
	if got := fetcher.callCount("http://trending.test/trending.json"); got != 4 {
		t.Errorf("expected initial fetch plus 3 retries, got %d calls", got)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(sleeper.sleeps) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d", len(want), len(sleeper.sleeps))
	}
	for i, d := range want {
		if sleeper.sleeps[i] != d {
			t.Errorf("backoff %d: expected %s, got %s", i, d, sleeper.sleeps[i])
		}
	}
}

func TestTrendingGatherRecoversAfterRetry(t *testing.T) {
	now := time.Now()
	fetcher := newScriptedFetcher()
	fetcher.add("http://trending.test/trending.json", fetchResult{status: 403})
	fetcher.add("http://trending.test/trending.json", fetchResult{
		body:   `{"symbols":[{"symbol":"NVDA","title":"NVIDIA"}]}`,
		status: 200,
	})
	fetcher.add("http://trending.test/streams/NVDA.json", fetchResult{
		body:   streamJSON(now, "Bullish"),
		status: 200,
	})

	deps := newTestDeps(fetcher, config.StrategyConfig{}, trendingTestConfig())
	g := NewTrendingGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 1 || signals[0].Symbol != "NVDA" {
		t.Fatalf("expected recovery on second attempt, got %v", signals)
	}
}

func TestTrendingGatherOtherErrorGivesUp(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.add("http://trending.test/trending.json", fetchResult{status: 500})

	deps := newTestDeps(fetcher, config.StrategyConfig{}, trendingTestConfig())
	g := NewTrendingGatherer(deps)

	if signals := g.Gather(context.Background()); signals != nil {
		t.Fatalf("expected no signals on server error, got %d", len(signals))
	}
	if got := fetcher.callCount("http://trending.test/trending.json"); got != 1 {
		t.Errorf("non-403 errors should not retry, got %d calls", got)
	}
}

func TestTrendingGatherCapsSymbolCount(t *testing.T) {
	now := time.Now()
	fetcher := newScriptedFetcher()
	fetcher.add("http://trending.test/trending.json", fetchResult{
		body:   `{"symbols":[{"symbol":"AAA"},{"symbol":"BBB"},{"symbol":"CCC"}]}`,
		status: 200,
	})
	for _, sym := range []string{"AAA", "BBB", "CCC"} {
		fetcher.add("http://trending.test/streams/"+sym+".json", fetchResult{
			body:   streamJSON(now, "Bullish"),
			status: 200,
		})
	}

	cfg := trendingTestConfig()
	cfg.MaxTrendingSymbols = 2
	deps := newTestDeps(fetcher, config.StrategyConfig{}, cfg)
	g := NewTrendingGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 2 {
		t.Fatalf("expected symbol cap of 2, got %d signals", len(signals))
	}
	if got := fetcher.callCount("http://trending.test/streams/CCC.json"); got != 0 {
		t.Errorf("capped symbol should not be fetched, got %d calls", got)
	}
}
