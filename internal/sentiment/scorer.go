// Package sentiment provides the pure scoring functions used to weight raw
// post polarity: time decay, engagement, flair, and keyword polarity.
package sentiment

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Threshold maps a minimum count to the multiplier applied when the count
// is reached. Tables are evaluated against the highest threshold not
// exceeding the observed count.
type Threshold struct {
	Min        int
	Multiplier float64
}

// ScorerConfig holds the tunable scoring tables
type ScorerConfig struct {
	HalfLifeMinutes   float64
	UpvoteThresholds  []Threshold
	CommentThresholds []Threshold
	UpvoteDefault     float64
	CommentDefault    float64
	FlairMultipliers  map[string]float64
}

// DefaultScorerConfig returns the default scoring tables
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		HalfLifeMinutes: 360,
		UpvoteThresholds: []Threshold{
			{Min: 1000, Multiplier: 1.5},
			{Min: 500, Multiplier: 1.3},
			{Min: 100, Multiplier: 1.1},
			{Min: 25, Multiplier: 1.0},
		},
		CommentThresholds: []Threshold{
			{Min: 500, Multiplier: 1.4},
			{Min: 100, Multiplier: 1.2},
			{Min: 25, Multiplier: 1.0},
		},
		UpvoteDefault:  0.8,
		CommentDefault: 0.9,
		FlairMultipliers: map[string]float64{
			"DD":         1.5,
			"News":       1.3,
			"Discussion": 1.1,
			"YOLO":       0.9,
			"Gain":       0.9,
			"Loss":       0.9,
			"Meme":       0.5,
			"Shitpost":   0.4,
		},
	}
}

// Scorer computes post quality multipliers from the configured tables
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a scorer; a zero-valued config falls back to defaults
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.HalfLifeMinutes <= 0 {
		cfg = DefaultScorerConfig()
	}
	// Evaluate descending so the highest matching threshold wins.
	sort.Slice(cfg.UpvoteThresholds, func(i, j int) bool {
		return cfg.UpvoteThresholds[i].Min > cfg.UpvoteThresholds[j].Min
	})
	sort.Slice(cfg.CommentThresholds, func(i, j int) bool {
		return cfg.CommentThresholds[i].Min > cfg.CommentThresholds[j].Min
	})
	return &Scorer{cfg: cfg}
}

// TimeDecay returns the exponential half-life decay for a post of the given
// age, clamped to [0.2, 1.0]. A post is never worth less than 20% of full
// weight, and a future or zero-age timestamp is worth exactly full weight.
func TimeDecay(ageMinutes, halfLifeMinutes float64) float64 {
	if ageMinutes <= 0 || halfLifeMinutes <= 0 {
		return 1.0
	}
	decay := math.Pow(0.5, ageMinutes/halfLifeMinutes)
	if decay < 0.2 {
		return 0.2
	}
	if decay > 1.0 {
		return 1.0
	}
	return decay
}

// TimeDecay applies the configured half-life to a post timestamp
func (s *Scorer) TimeDecay(postTime, now time.Time) float64 {
	return TimeDecay(now.Sub(postTime).Minutes(), s.cfg.HalfLifeMinutes)
}

// EngagementMultiplier looks up the highest upvote and comment thresholds
// not exceeding the observed counts and returns the mean of the two
// multipliers.
func (s *Scorer) EngagementMultiplier(upvotes, comments int) float64 {
	up := lookupThreshold(s.cfg.UpvoteThresholds, upvotes, s.cfg.UpvoteDefault)
	com := lookupThreshold(s.cfg.CommentThresholds, comments, s.cfg.CommentDefault)
	return (up + com) / 2
}

func lookupThreshold(table []Threshold, count int, def float64) float64 {
	for _, t := range table {
		if count >= t.Min {
			return t.Multiplier
		}
	}
	return def
}

// FlairMultiplier returns the configured multiplier for a post flair.
// Unknown or absent flair is neutral.
func (s *Scorer) FlairMultiplier(flair string) float64 {
	if m, ok := s.cfg.FlairMultipliers[flair]; ok {
		return m
	}
	return 1.0
}

// KeywordSentiment counts case-insensitive occurrences of the bullish and
// bearish keyword tables and returns (bull-bear)/(bull+bear) in [-1,1].
// Text with no keyword hits returns exactly 0: no signal, not a tie.
func KeywordSentiment(text string) float64 {
	lower := strings.ToLower(text)

	bull := 0
	for _, w := range bullishWords {
		bull += strings.Count(lower, w)
	}
	bear := 0
	for _, w := range bearishWords {
		bear += strings.Count(lower, w)
	}

	if bull+bear == 0 {
		return 0
	}
	return float64(bull-bear) / float64(bull+bear)
}
