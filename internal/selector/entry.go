// Package selector turns analyst verdicts and position state into concrete
// entry and exit recommendations. It decides and sizes; order placement is
// someone else's job.
package selector

import (
	"sort"
	"strings"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
	"signal-engine/internal/research"
)

// maxNewEntriesPerCycle bounds how much fresh exposure one cycle can add
const maxNewEntriesPerCycle = 3

// positionSizePctCeiling caps the configured per-entry percent of cash
const positionSizePctCeiling = 20.0

// EntryCandidate is one sized, approved entry
type EntryCandidate struct {
	Symbol     string  `json:"symbol"`
	Confidence float64 `json:"confidence"`
	Quality    string  `json:"quality"`
	Notional   float64 `json:"notional"`
	UseOptions bool    `json:"use_options"`
	IsCrypto   bool    `json:"is_crypto"`
	Reasoning  string  `json:"reasoning"`
}

// EntrySelector filters and sizes BUY verdicts against account state
type EntrySelector struct {
	cfg    config.StrategyConfig
	logger *logging.Logger
}

// NewEntrySelector creates an entry selector
func NewEntrySelector(cfg config.StrategyConfig, logger *logging.Logger) *EntrySelector {
	return &EntrySelector{
		cfg:    cfg,
		logger: logger.WithComponent("entry-selector"),
	}
}

// Select picks the entries for this cycle: BUY verdicts above the
// confidence floor, excluding already-held symbols, best-first, capped by
// both the per-cycle entry limit and the remaining position slots. Sizing
// scales the configured cash fraction by confidence; candidates sized under
// the minimum notional are dropped rather than rounded up.
func (s *EntrySelector) Select(analyses []research.Analysis, account *broker.Account, positions []broker.Position) []EntryCandidate {
	held := make(map[string]bool, len(positions))
	for _, pos := range positions {
		held[strings.ToUpper(pos.Symbol)] = true
	}

	var eligible []research.Analysis
	for _, a := range analyses {
		if a.Verdict != research.VerdictBuy {
			continue
		}
		if a.Confidence < s.cfg.MinAnalystConfidence {
			s.logger.Debug("BUY under confidence floor, skipping",
				"symbol", a.Symbol, "confidence", a.Confidence)
			continue
		}
		if held[strings.ToUpper(a.Symbol)] {
			s.logger.Debug("already holding, skipping", "symbol", a.Symbol)
			continue
		}
		eligible = append(eligible, a)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Confidence > eligible[j].Confidence
	})

	slots := maxNewEntriesPerCycle
	if remaining := s.cfg.MaxPositions - len(positions); remaining < slots {
		slots = remaining
	}
	if slots <= 0 {
		return nil
	}

	var selected []EntryCandidate
	for _, a := range eligible {
		if len(selected) >= slots {
			break
		}

		notional := s.sizeEntry(account.Cash, a.Confidence)
		if notional < s.cfg.MinNotional {
			s.logger.Debug("sized under minimum notional, skipping",
				"symbol", a.Symbol, "notional", notional)
			continue
		}

		selected = append(selected, EntryCandidate{
			Symbol:     a.Symbol,
			Confidence: a.Confidence,
			Quality:    a.EntryQuality,
			Notional:   notional,
			UseOptions: s.useOptions(a),
			IsCrypto:   a.IsCrypto,
			Reasoning:  a.Reasoning,
		})
	}

	if len(selected) > 0 {
		s.logger.Info("entries selected", "count", len(selected))
	}
	return selected
}

// sizeEntry scales the configured cash fraction by analyst confidence,
// bounded by the absolute position value cap.
func (s *EntrySelector) sizeEntry(cash, confidence float64) float64 {
	sizePct := s.cfg.PositionSizePct
	if sizePct > positionSizePctCeiling {
		sizePct = positionSizePctCeiling
	}

	notional := cash * sizePct / 100 * confidence
	if notional > s.cfg.MaxPositionValue {
		notional = s.cfg.MaxPositionValue
	}
	return notional
}

// useOptions gates the options route to the highest-conviction equity
// setups.
func (s *EntrySelector) useOptions(a research.Analysis) bool {
	return s.cfg.OptionsEnabled &&
		!a.IsCrypto &&
		a.Confidence >= s.cfg.OptionsMinConfidence &&
		a.EntryQuality == research.QualityStrong
}
