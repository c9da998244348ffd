package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"signal-engine/internal/logging"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/signal"
)

// TrendingGatherer reads the trending-symbols stream and scores the coarse
// per-message sentiment tags for each trending symbol.
type TrendingGatherer struct {
	deps   *Deps
	logger *logging.Logger
}

type trendingResponse struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Title  string `json:"title"`
	} `json:"symbols"`
}

type streamResponse struct {
	Messages []struct {
		Body      string `json:"body"`
		CreatedAt string `json:"created_at"`
		Entities  struct {
			Sentiment struct {
				Basic string `json:"basic"` // "Bullish" | "Bearish"
			} `json:"sentiment"`
		} `json:"entities"`
	} `json:"messages"`
}

// NewTrendingGatherer creates the trending gatherer
func NewTrendingGatherer(deps *Deps) *TrendingGatherer {
	return &TrendingGatherer{
		deps:   deps,
		logger: deps.Logger.WithComponent("gather-trending"),
	}
}

func (g *TrendingGatherer) Name() string { return "trending" }

// Gather fetches the trending list (with 403 retry and backoff), then the
// per-symbol message stream for each trending symbol. Any failure degrades
// to fewer signals, never an aborted cycle.
func (g *TrendingGatherer) Gather(ctx context.Context) []signal.Signal {
	body, ok := g.fetchTrendingWithRetry(ctx)
	if !ok {
		return nil
	}

	var trending trendingResponse
	if err := json.Unmarshal(body, &trending); err != nil {
		g.logger.Warn("trending payload malformed", "error", err)
		return nil
	}

	now := time.Now()
	var signals []signal.Signal
	count := 0
	for _, entry := range trending.Symbols {
		if count >= g.deps.Gather.MaxTrendingSymbols {
			break
		}
		sym := signal.NormalizeSymbol(entry.Symbol)
		if sym == "" {
			continue
		}
		count++
		g.deps.pace(ctx)

		if sig := g.gatherSymbol(ctx, sym, now); sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}

// fetchTrendingWithRetry retries a transiently blocked (HTTP 403) trending
// fetch up to 3 times with exponential backoff. Any other non-OK response
// or exhausted retries degrades to an empty result set.
func (g *TrendingGatherer) fetchTrendingWithRetry(ctx context.Context) ([]byte, bool) {
	for attempt := 0; attempt <= 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			g.deps.Sleeper.Sleep(ctx, backoff)
		}

		body, status, err := g.deps.Fetcher.Fetch(ctx, g.deps.Gather.TrendingURL, nil)
		if err != nil {
			g.logger.Warn("trending fetch failed", "attempt", attempt, "error", err)
			return nil, false
		}
		switch status {
		case 200:
			return body, true
		case 403:
			g.logger.Warn("trending fetch blocked, retrying", "attempt", attempt)
			continue
		default:
			g.logger.Warn("trending fetch non-OK, giving up", "status", status)
			return nil, false
		}
	}
	g.logger.Warn("trending fetch retries exhausted")
	return nil, false
}

func (g *TrendingGatherer) gatherSymbol(ctx context.Context, sym string, now time.Time) *signal.Signal {
	url := fmt.Sprintf(g.deps.Gather.StreamURLTemplate, sym)

	body, status, err := g.deps.Fetcher.Fetch(ctx, url, nil)
	if err != nil {
		g.logger.Warn("symbol stream fetch failed, skipping", "symbol", sym, "error", err)
		return nil
	}
	if status != 200 {
		g.logger.Warn("symbol stream non-OK, skipping", "symbol", sym, "status", status)
		return nil
	}

	var stream streamResponse
	if err := json.Unmarshal(body, &stream); err != nil {
		g.logger.Warn("symbol stream malformed, skipping", "symbol", sym, "error", err)
		return nil
	}
	if len(stream.Messages) == 0 {
		return nil
	}

	weight := g.deps.sourceWeight("trending")
	var sumRaw, sumWeighted, sumQuality float64
	var bullish, bearish int
	freshest := time.Time{}

	for _, msg := range stream.Messages {
		var raw float64
		switch msg.Entities.Sentiment.Basic {
		case "Bullish":
			raw = 1.0
			bullish++
		case "Bearish":
			raw = -1.0
			bearish++
		default:
			raw = sentiment.KeywordSentiment(msg.Body)
		}

		msgTime := now
		if t, err := time.Parse("2006-01-02T15:04:05Z", msg.CreatedAt); err == nil {
			msgTime = t
		}
		if msgTime.After(freshest) {
			freshest = msgTime
		}

		quality := g.deps.Scorer.TimeDecay(msgTime, now) * weight
		sumRaw += raw
		sumWeighted += raw * quality
		sumQuality += quality
	}

	if !g.deps.Validator.Validate(ctx, sym, g.deps.Lookup) {
		g.logger.Debug("symbol failed validation, dropping", "symbol", sym)
		return nil
	}

	n := float64(len(stream.Messages))
	avgRaw := sumRaw / n
	weighted := avgRaw * 0.5
	if sumQuality > 0 {
		weighted = sumWeighted / n
	}

	return &signal.Signal{
		Symbol:       sym,
		Source:       signal.SourceTrending,
		SourceDetail: "trending-stream",
		Sentiment:    weighted,
		RawSentiment: avgRaw,
		Volume:       len(stream.Messages),
		Freshness:    g.deps.Scorer.TimeDecay(freshest, now),
		SourceWeight: weight,
		Reason:       fmt.Sprintf("trending with %d messages (%d bullish, %d bearish)", len(stream.Messages), bullish, bearish),
		Timestamp:    now,
		Bullish:      bullish,
		Bearish:      bearish,
	}
}
