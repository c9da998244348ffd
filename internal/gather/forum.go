package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"signal-engine/internal/logging"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/signal"
	"signal-engine/internal/ticker"
)

// ForumGatherer scans social-forum hot listings for ticker mentions and
// aggregates per-ticker sentiment across subreddits.
type ForumGatherer struct {
	deps   *Deps
	logger *logging.Logger
}

// forumListing matches the forum JSON listing shape
type forumListing struct {
	Data struct {
		Children []struct {
			Data forumPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type forumPost struct {
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	Flair       string  `json:"link_flair_text"`
}

// tickerAggregate accumulates one ticker's mentions across a gather pass
type tickerAggregate struct {
	mentions    int
	sumRaw      float64
	sumWeighted float64
	sumQuality  float64
	upvotes     int
	comments    int
	freshest    time.Time
	subSources  map[string]struct{}
}

// NewForumGatherer creates the forum gatherer
func NewForumGatherer(deps *Deps) *ForumGatherer {
	return &ForumGatherer{
		deps:   deps,
		logger: deps.Logger.WithComponent("gather-forum"),
	}
}

func (g *ForumGatherer) Name() string { return "forum" }

// Gather fetches each configured subreddit's hot listing, extracts tickers
// and raw sentiment per post, and promotes aggregates that clear the
// minimum-mention floor and ticker validation.
func (g *ForumGatherer) Gather(ctx context.Context) []signal.Signal {
	now := time.Now()
	aggregates := make(map[string]*tickerAggregate)

	for i, sub := range g.deps.Gather.Subreddits {
		if i > 0 {
			g.deps.pace(ctx)
		}

		url := fmt.Sprintf("%s/r/%s/hot.json?limit=50&raw_json=1", strings.TrimRight(g.deps.Gather.ForumBaseURL, "/"), sub)
		body, status, err := g.deps.Fetcher.Fetch(ctx, url, nil)
		if err != nil {
			g.logger.Warn("subreddit fetch failed, continuing", "subreddit", sub, "error", err)
			continue
		}
		if status != 200 {
			g.logger.Warn("subreddit fetch non-OK, continuing", "subreddit", sub, "status", status)
			continue
		}

		var listing forumListing
		if err := json.Unmarshal(body, &listing); err != nil {
			g.logger.Warn("subreddit payload malformed, continuing", "subreddit", sub, "error", err)
			continue
		}

		weight := g.deps.sourceWeight("forum:" + sub)
		for _, child := range listing.Data.Children {
			g.accumulate(aggregates, child.Data, sub, weight, now)
		}
	}

	return g.promote(ctx, aggregates, now)
}

func (g *ForumGatherer) accumulate(aggregates map[string]*tickerAggregate, post forumPost, sub string, weight float64, now time.Time) {
	text := post.Title + " " + post.SelfText
	tickers := ticker.Extract(text, g.deps.Strategy.TickerBlacklist)
	if len(tickers) == 0 {
		return
	}

	raw := sentiment.KeywordSentiment(text)
	postTime := time.Unix(int64(post.CreatedUTC), 0)
	quality := g.deps.Scorer.TimeDecay(postTime, now) *
		g.deps.Scorer.EngagementMultiplier(post.Ups, post.NumComments) *
		g.deps.Scorer.FlairMultiplier(post.Flair) *
		weight

	for sym := range tickers {
		agg, ok := aggregates[sym]
		if !ok {
			agg = &tickerAggregate{subSources: make(map[string]struct{})}
			aggregates[sym] = agg
		}
		agg.mentions++
		agg.sumRaw += raw
		agg.sumWeighted += raw * quality
		agg.sumQuality += quality
		agg.upvotes += post.Ups
		agg.comments += post.NumComments
		if postTime.After(agg.freshest) {
			agg.freshest = postTime
		}
		agg.subSources[sub] = struct{}{}
	}
}

func (g *ForumGatherer) promote(ctx context.Context, aggregates map[string]*tickerAggregate, now time.Time) []signal.Signal {
	var signals []signal.Signal
	for sym, agg := range aggregates {
		if agg.mentions < g.deps.Gather.MinMentions {
			continue
		}
		if !g.deps.Validator.Validate(ctx, sym, g.deps.Lookup) {
			g.logger.Debug("symbol failed validation, dropping", "symbol", sym)
			continue
		}

		avgRaw := agg.sumRaw / float64(agg.mentions)

		// Weighted sentiment divides by mention count, not summed quality;
		// sub-1.0 average quality deliberately understates the signal.
		weighted := avgRaw * 0.5
		if agg.sumQuality > 0 {
			weighted = agg.sumWeighted / float64(agg.mentions)
		}

		subs := make([]string, 0, len(agg.subSources))
		for s := range agg.subSources {
			subs = append(subs, s)
		}
		sort.Strings(subs)

		signals = append(signals, signal.Signal{
			Symbol:       sym,
			Source:       signal.SourceForum,
			SourceDetail: strings.Join(subs, ","),
			Sentiment:    weighted,
			RawSentiment: avgRaw,
			Volume:       agg.mentions,
			Freshness:    g.deps.Scorer.TimeDecay(agg.freshest, now),
			SourceWeight: g.deps.sourceWeight("forum"),
			Reason:       fmt.Sprintf("%d mentions across %s", agg.mentions, strings.Join(subs, ", ")),
			Timestamp:    now,
			Upvotes:      agg.upvotes,
			Comments:     agg.comments,
		})
	}
	return signals
}
