package gather

import (
	"context"
	"fmt"
	"math"
	"time"

	"signal-engine/internal/logging"
	"signal-engine/internal/signal"
)

// MomentumGatherer derives crypto momentum signals from broker snapshots.
// Crypto symbols bypass ticker validation since they come from a fixed
// configured whitelist, not free text.
type MomentumGatherer struct {
	deps   *Deps
	logger *logging.Logger
}

// NewMomentumGatherer creates the momentum gatherer
func NewMomentumGatherer(deps *Deps) *MomentumGatherer {
	return &MomentumGatherer{
		deps:   deps,
		logger: deps.Logger.WithComponent("gather-momentum"),
	}
}

func (g *MomentumGatherer) Name() string { return "momentum" }

// Gather fetches snapshots for the configured crypto symbols and emits one
// signal per symbol with usable price data. A symbol missing either the
// latest price or the previous close is skipped.
func (g *MomentumGatherer) Gather(ctx context.Context) []signal.Signal {
	if len(g.deps.Strategy.CryptoSymbols) == 0 {
		return nil
	}

	snapshots, err := g.deps.Broker.GetCryptoSnapshots(ctx, g.deps.Strategy.CryptoSymbols)
	if err != nil {
		g.logger.Warn("crypto snapshots fetch failed", "error", err)
		return nil
	}

	now := time.Now()
	weight := g.deps.sourceWeight("momentum")
	threshold := g.deps.Strategy.CryptoMomentumThreshold

	var signals []signal.Signal
	for _, sym := range g.deps.Strategy.CryptoSymbols {
		snap, ok := snapshots[sym]
		if !ok {
			g.logger.Debug("no snapshot for symbol, skipping", "symbol", sym)
			continue
		}
		if snap.Price == 0 || snap.PrevDailyClose == 0 {
			g.logger.Debug("incomplete snapshot, skipping", "symbol", sym)
			continue
		}

		momentum := (snap.Price - snap.PrevDailyClose) / snap.PrevDailyClose * 100

		// Strong upward moves map to proportional sentiment; everything
		// else carries a token positive score so the symbol stays visible.
		score := 0.1
		if momentum >= threshold {
			score = math.Min(math.Abs(momentum)/5.0, 1.0)
		}

		signals = append(signals, signal.Signal{
			Symbol:       sym,
			Source:       signal.SourceMomentum,
			SourceDetail: "crypto-snapshot",
			Sentiment:    score * weight,
			RawSentiment: score,
			Volume:       1,
			Freshness:    1.0,
			SourceWeight: weight,
			Reason:       fmt.Sprintf("24h momentum %.2f%% at %.2f", momentum, snap.Price),
			Timestamp:    now,
			Momentum:     momentum,
			Price:        snap.Price,
			IsCrypto:     true,
		})
	}
	return signals
}
