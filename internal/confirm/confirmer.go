// Package confirm provides the Twitter confirmation layer: a budgeted
// secondary read that cross-checks sentiment already gathered from the
// primary sources, plus a breaking-news sweep over a fixed account list.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"signal-engine/config"
	"signal-engine/internal/logging"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/statestore"
)

// ErrBudgetExhausted is returned when the daily read window is spent
var ErrBudgetExhausted = errors.New("confirmation read budget exhausted")

// Fetcher performs an HTTP GET with headers and returns body and status
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error)
}

// Confirmation is the outcome of cross-checking one symbol
type Confirmation struct {
	Symbol           string    `json:"symbol"`
	Sentiment        float64   `json:"sentiment"`
	TweetCount       int       `json:"tweet_count"`
	ConfirmsExisting bool      `json:"confirms_existing"`
	Highlights       []string  `json:"highlights"`
	CheckedAt        time.Time `json:"checked_at"`
	Cached           bool      `json:"-"`
}

type cacheEntry struct {
	result  Confirmation
	expires time.Time
}

// Confirmer cross-checks gathered sentiment against recent tweets. It is a
// no-op when no bearer token is configured, and every upstream read is
// charged against a shared daily budget.
type Confirmer struct {
	cfg     config.ConfirmationConfig
	fetcher Fetcher
	budget  *readBudget
	logger  *logging.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// twitterSearchResponse matches the recent-search payload shape
type twitterSearchResponse struct {
	Data []struct {
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			LikeCount    int `json:"like_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
}

// NewConfirmer creates the confirmation layer
func NewConfirmer(cfg config.ConfirmationConfig, fetcher Fetcher, store statestore.Store, logger *logging.Logger) *Confirmer {
	return &Confirmer{
		cfg:     cfg,
		fetcher: fetcher,
		budget:  newReadBudget(store, cfg.DailyReadBudget, logger),
		logger:  logger.WithComponent("confirm"),
		cache:   make(map[string]cacheEntry),
	}
}

// Enabled reports whether confirmation is configured at all
func (c *Confirmer) Enabled() bool {
	return c.cfg.BearerToken != ""
}

// BudgetRemaining reports how many reads are left in the current window
func (c *Confirmer) BudgetRemaining(ctx context.Context) int {
	return c.budget.remaining(ctx)
}

// Confirm cross-checks one symbol's gathered sentiment against recent
// tweets. Returns (nil, nil) when confirmation is disabled or the gathered
// sentiment is too weak to be worth a budgeted read. A cached result within
// its TTL is returned without touching the network or the budget.
func (c *Confirmer) Confirm(ctx context.Context, symbol string, existingSentiment float64) (*Confirmation, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if math.Abs(existingSentiment) < c.cfg.MinSentiment {
		c.logger.Debug("sentiment below confirmation floor, skipping",
			"symbol", symbol, "sentiment", existingSentiment)
		return nil, nil
	}

	sym := strings.ToUpper(symbol)
	if cached, ok := c.cachedResult(sym); ok {
		return cached, nil
	}

	if !c.budget.reserve(ctx) {
		return nil, ErrBudgetExhausted
	}

	result, err := c.search(ctx, sym, existingSentiment)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[sym] = cacheEntry{result: *result, expires: time.Now().Add(c.cfg.CacheTTL)}
	c.mu.Unlock()

	return result, nil
}

func (c *Confirmer) cachedResult(sym string) (*Confirmation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[sym]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	result := entry.result
	result.Cached = true
	return &result, true
}

func (c *Confirmer) search(ctx context.Context, sym string, existingSentiment float64) (*Confirmation, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("$%s -is:retweet lang:en", sym))
	query.Set("max_results", "50")
	query.Set("tweet.fields", "public_metrics,created_at,author_id")
	query.Set("expansions", "author_id")
	query.Set("user.fields", "public_metrics,username")

	body, status, err := c.fetcher.Fetch(ctx, c.cfg.SearchURL+"?"+query.Encode(), map[string]string{
		"Authorization": "Bearer " + c.cfg.BearerToken,
	})
	if err != nil {
		return nil, fmt.Errorf("confirmation search failed: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("confirmation search returned status %d", status)
	}

	var resp twitterSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("confirmation payload malformed: %w", err)
	}

	followers := make(map[string]int, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		followers[u.ID] = u.PublicMetrics.FollowersCount
	}

	type scoredTweet struct {
		text   string
		weight float64
	}
	var scored []scoredTweet
	var sumWeighted, sumWeight float64

	for _, tweet := range resp.Data {
		raw := sentiment.KeywordSentiment(tweet.Text)
		weight := TweetWeight(followers[tweet.AuthorID],
			tweet.PublicMetrics.LikeCount, tweet.PublicMetrics.RetweetCount)

		sumWeighted += raw * weight
		sumWeight += weight
		scored = append(scored, scoredTweet{text: tweet.Text, weight: weight})
	}

	result := &Confirmation{
		Symbol:     sym,
		TweetCount: len(resp.Data),
		CheckedAt:  time.Now(),
	}
	if sumWeight > 0 {
		result.Sentiment = sumWeighted / sumWeight
	}
	result.ConfirmsExisting = sameSign(result.Sentiment, existingSentiment)

	sort.Slice(scored, func(i, j int) bool { return scored[i].weight > scored[j].weight })
	for i := 0; i < len(scored) && i < 3; i++ {
		result.Highlights = append(result.Highlights, scored[i].text)
	}

	c.logger.Info("symbol confirmation fetched",
		"symbol", sym, "tweets", result.TweetCount,
		"sentiment", result.Sentiment, "confirms", result.ConfirmsExisting)
	return result, nil
}

// TweetWeight scores one tweet's influence from author reach and
// engagement. Reach contributes up to 1.5x on a log scale, engagement up to
// 1.3x, with retweets counted double.
func TweetWeight(followers, likes, retweets int) float64 {
	reach := math.Log10(float64(followers)+1) / 5
	if reach > 1.5 {
		reach = 1.5
	}
	engagement := 1 + float64(likes+2*retweets)/1000
	if engagement > 1.3 {
		engagement = 1.3
	}
	return reach * engagement
}

func sameSign(a, b float64) bool {
	if a == 0 || b == 0 {
		return false
	}
	return (a > 0) == (b > 0)
}
