// Package signal defines the per-cycle opinion records produced by the
// source gatherers and consumed by the research and selection stages.
package signal

import (
	"strings"
	"time"
)

// Source identifies which feed produced a signal
type Source string

const (
	SourceForum    Source = "forum"
	SourceTrending Source = "trending"
	SourceFiling   Source = "filing"
	SourceMomentum Source = "momentum"
)

// Signal is one source's opinion about one instrument for the current
// cycle. It is immutable once produced; downstream consumers aggregate
// signals but never mutate them.
type Signal struct {
	Symbol       string    `json:"symbol"`
	Source       Source    `json:"source"`
	SourceDetail string    `json:"source_detail"`
	Sentiment    float64   `json:"sentiment"`     // quality-weighted, design range ~[-1,1]
	RawSentiment float64   `json:"raw_sentiment"` // unweighted polarity in [-1,1]
	Volume       int       `json:"volume"`        // corroborating mentions
	Freshness    float64   `json:"freshness"`     // [0,1]
	SourceWeight float64   `json:"source_weight"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`

	// Source-specific extensions
	Upvotes  int     `json:"upvotes,omitempty"`
	Comments int     `json:"comments,omitempty"`
	Bullish  int     `json:"bullish,omitempty"`
	Bearish  int     `json:"bearish,omitempty"`
	Momentum float64 `json:"momentum,omitempty"`
	Price    float64 `json:"price,omitempty"`
	IsCrypto bool    `json:"is_crypto,omitempty"`
}

// NormalizeSymbol upper-cases a ticker. Crypto symbols keep their
// BASE/QUOTE form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// BySymbol groups signals by their normalized symbol
func BySymbol(signals []Signal) map[string][]Signal {
	grouped := make(map[string][]Signal)
	for _, s := range signals {
		grouped[s.Symbol] = append(grouped[s.Symbol], s)
	}
	return grouped
}

// TotalVolume sums the mention volume across a symbol's signals
func TotalVolume(signals []Signal) int {
	total := 0
	for _, s := range signals {
		total += s.Volume
	}
	return total
}
