package selector

import (
	"fmt"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
	"signal-engine/internal/staleness"
)

// Exit reasons, in precedence order
const (
	ReasonOptionsTakeProfit = "options_take_profit"
	ReasonOptionsStopLoss   = "options_stop_loss"
	ReasonTakeProfit        = "take_profit"
	ReasonStopLoss          = "stop_loss"
	ReasonStale             = "stale"
)

// ExitDecision recommends closing one position
type ExitDecision struct {
	Symbol string  `json:"symbol"`
	Reason string  `json:"reason"`
	Detail string  `json:"detail"`
	PnLPct float64 `json:"pnl_pct"`
}

// ExitSelector applies the exit rules to held positions
type ExitSelector struct {
	cfg    config.StrategyConfig
	logger *logging.Logger
}

// NewExitSelector creates an exit selector
func NewExitSelector(cfg config.StrategyConfig, logger *logging.Logger) *ExitSelector {
	return &ExitSelector{
		cfg:    cfg,
		logger: logger.WithComponent("exit-selector"),
	}
}

// Evaluate checks one position against the exit rules. Profit and loss
// limits outrank staleness: a position that hit its target exits as a take
// profit even when it also scores stale. Returns nil when the position
// should be held.
func (s *ExitSelector) Evaluate(pos broker.Position, stale staleness.Result) *ExitDecision {
	pnlPct := broker.CostBasisPLPct(pos)

	takeProfit, stopLoss := s.cfg.TakeProfitPct, s.cfg.StopLossPct
	tpReason, slReason := ReasonTakeProfit, ReasonStopLoss
	if pos.IsOption {
		takeProfit, stopLoss = s.cfg.OptionsTakeProfitPct, s.cfg.OptionsStopLossPct
		tpReason, slReason = ReasonOptionsTakeProfit, ReasonOptionsStopLoss
	}

	switch {
	case takeProfit > 0 && pnlPct >= takeProfit:
		return s.decide(pos, tpReason, pnlPct,
			fmt.Sprintf("up %.1f%%, target %.1f%%", pnlPct, takeProfit))
	case stopLoss > 0 && pnlPct <= -stopLoss:
		return s.decide(pos, slReason, pnlPct,
			fmt.Sprintf("down %.1f%%, limit %.1f%%", pnlPct, stopLoss))
	case stale.IsStale:
		return s.decide(pos, ReasonStale, pnlPct, stale.Reason)
	}
	return nil
}

// EvaluateAll runs Evaluate over every position, keyed by symbol
func (s *ExitSelector) EvaluateAll(positions []broker.Position, staleResults map[string]staleness.Result) []ExitDecision {
	var decisions []ExitDecision
	for _, pos := range positions {
		if d := s.Evaluate(pos, staleResults[pos.Symbol]); d != nil {
			decisions = append(decisions, *d)
		}
	}
	return decisions
}

func (s *ExitSelector) decide(pos broker.Position, reason string, pnlPct float64, detail string) *ExitDecision {
	s.logger.Info("exit recommended",
		"symbol", pos.Symbol, "reason", reason, "pnl_pct", pnlPct)
	return &ExitDecision{
		Symbol: pos.Symbol,
		Reason: reason,
		Detail: detail,
		PnLPct: pnlPct,
	}
}
