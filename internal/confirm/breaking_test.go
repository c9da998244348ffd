package confirm

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func breakingJSON(now time.Time, ages ...time.Duration) string {
	tweets := ""
	for i, age := range ages {
		if i > 0 {
			tweets += ","
		}
		tweets += fmt.Sprintf(`{"text":"headline %d","author_id":"n1","created_at":%q}`,
			i, now.Add(-age).UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf(
		`{"data":[%s],"includes":{"users":[{"id":"n1","username":"newswire"}]}}`, tweets)
}

func TestBreakingNewsAgeFiltering(t *testing.T) {
	now := time.Now()
	fetcher := &fakeFetcher{body: breakingJSON(now, 5*time.Minute, 20*time.Minute, 45*time.Minute)}

	cfg := testConfig()
	cfg.BreakingAccounts = []string{"newswire"}
	c := newTestConfirmer(cfg, fetcher)

	headlines, err := c.BreakingNews(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("expected stale headline dropped, got %d headlines", len(headlines))
	}
	if !headlines[0].Breaking {
		t.Error("5-minute-old headline should be breaking")
	}
	if headlines[1].Breaking {
		t.Error("20-minute-old headline should not be breaking")
	}
	if headlines[0].Account != "newswire" {
		t.Errorf("expected account resolved to newswire, got %s", headlines[0].Account)
	}
}

func TestBreakingNewsNoAccountsConfigured(t *testing.T) {
	fetcher := &fakeFetcher{body: breakingJSON(time.Now())}
	c := newTestConfirmer(testConfig(), fetcher)

	headlines, err := c.BreakingNews(context.Background())
	if err != nil || headlines != nil {
		t.Fatalf("no configured accounts should no-op, got (%v, %v)", headlines, err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("no-op sweep should not fetch, got %d calls", fetcher.callCount())
	}
}

func TestBreakingNewsSpendsBudget(t *testing.T) {
	cfg := testConfig()
	cfg.BreakingAccounts = []string{"newswire"}
	cfg.DailyReadBudget = 1
	fetcher := &fakeFetcher{body: breakingJSON(time.Now(), 5*time.Minute)}
	c := newTestConfirmer(cfg, fetcher)
	ctx := context.Background()

	if _, err := c.BreakingNews(ctx); err != nil {
		t.Fatalf("first sweep should succeed: %v", err)
	}
	if _, err := c.BreakingNews(ctx); err != ErrBudgetExhausted {
		t.Fatalf("expected ErrBudgetExhausted on second sweep, got %v", err)
	}
}
