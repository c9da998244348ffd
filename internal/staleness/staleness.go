// Package staleness scores held positions for exit-worthiness. The score is
// additive across three bounded components (hold time, price action, social
// volume decay) and clamped to 0-100; crossing the stale line recommends an
// exit but execution stays with the exit selector.
package staleness

import (
	"fmt"
	"strings"
	"time"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
)

const (
	timeCap   = 40.0
	priceCap  = 30.0
	volumeCap = 30.0

	staleThreshold = 70.0
	flatPenalty    = 15.0
)

// Entry is the per-position context captured when a position was opened.
// Without it a position cannot be scored and is treated as fresh.
type Entry struct {
	Symbol       string    `json:"symbol"`
	EntryTime    time.Time `json:"entry_time"`
	EntryPrice   float64   `json:"entry_price"`
	SocialVolume int       `json:"social_volume"` // mention volume at entry
}

// Result is the staleness verdict for one position
type Result struct {
	IsStale bool    `json:"is_stale"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// Engine evaluates positions against the configured hold windows
type Engine struct {
	cfg    config.StrategyConfig
	logger *logging.Logger
}

// NewEngine creates a staleness engine
func NewEngine(cfg config.StrategyConfig, logger *logging.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.WithComponent("staleness"),
	}
}

// Evaluate scores one position. A nil entry scores zero: positions opened
// before entry tracking existed are never force-aged out.
func (e *Engine) Evaluate(pos broker.Position, entry *Entry, currentSocialVolume int, now time.Time) Result {
	if !e.cfg.StalenessEnabled {
		return Result{Reason: "staleness disabled"}
	}
	if entry == nil || entry.EntryTime.IsZero() {
		return Result{Reason: "no entry record"}
	}

	held := now.Sub(entry.EntryTime)
	heldDays := held.Hours() / 24
	if held.Hours() < e.cfg.StaleMinHoldHours {
		return Result{Reason: fmt.Sprintf("held %.1fh, under minimum hold", held.Hours())}
	}

	pnlPct := broker.CostBasisPLPct(pos)

	timeScore := e.timeComponent(heldDays)
	priceScore := e.priceComponent(pnlPct, heldDays)
	volumeScore := e.volumeComponent(entry.SocialVolume, currentSocialVolume)

	score := timeScore + priceScore + volumeScore
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	var parts []string
	if timeScore > 0 {
		parts = append(parts, fmt.Sprintf("held %.1fd (+%.0f)", heldDays, timeScore))
	}
	if priceScore > 0 {
		parts = append(parts, fmt.Sprintf("pnl %.1f%% (+%.0f)", pnlPct, priceScore))
	}
	if volumeScore > 0 {
		parts = append(parts, fmt.Sprintf("social volume faded (+%.0f)", volumeScore))
	}
	if len(parts) == 0 {
		parts = append(parts, "position healthy")
	}

	stale := score >= staleThreshold
	if heldDays > e.cfg.StaleMaxHoldDays && pnlPct < e.cfg.StaleMidMinGainPct {
		// Over the maximum hold window without the required gain is stale
		// outright, whatever the component sum says.
		stale = true
		parts = append(parts, "over max hold without gain")
	}

	result := Result{
		IsStale: stale,
		Score:   score,
		Reason:  strings.Join(parts, ", "),
	}
	if stale {
		e.logger.Info("position is stale",
			"symbol", pos.Symbol, "score", score, "reason", result.Reason)
	}
	return result
}

// timeComponent ramps linearly from 0 at the mid hold window to the full
// cap at the max hold window.
func (e *Engine) timeComponent(heldDays float64) float64 {
	mid, max := e.cfg.StaleMidHoldDays, e.cfg.StaleMaxHoldDays
	if max <= mid || heldDays <= mid {
		return 0
	}
	score := timeCap * (heldDays - mid) / (max - mid)
	if score > timeCap {
		return timeCap
	}
	return score
}

// priceComponent penalizes losses proportionally, and flat positions that
// have been given a fair window to move.
func (e *Engine) priceComponent(pnlPct, heldDays float64) float64 {
	if pnlPct < 0 {
		score := -pnlPct * 3
		if score > priceCap {
			return priceCap
		}
		return score
	}
	if pnlPct < e.cfg.StaleMidMinGainPct && heldDays >= e.cfg.StaleMidHoldDays {
		return flatPenalty
	}
	return 0
}

// volumeComponent penalizes positions whose social mention volume collapsed
// relative to entry. No entry volume means the source signal was not
// social, so there is nothing to decay.
func (e *Engine) volumeComponent(entryVolume, currentVolume int) float64 {
	if entryVolume <= 0 {
		return 0
	}
	ratio := float64(currentVolume) / float64(entryVolume)
	switch {
	case ratio <= e.cfg.StaleSocialVolumeDecay:
		return volumeCap
	case ratio <= 0.5:
		return volumeCap / 2
	default:
		return 0
	}
}
