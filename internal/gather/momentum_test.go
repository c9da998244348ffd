package gather

import (
	"context"
	"errors"
	"math"
	"testing"

	"signal-engine/config"
	"signal-engine/internal/broker"
)

func momentumDeps(snapshots map[string]broker.Snapshot, err error, strategy config.StrategyConfig) *Deps {
	deps := newTestDeps(newScriptedFetcher(), strategy, config.GatherConfig{})
	deps.Broker = &stubBroker{snapshots: snapshots, err: err}
	return deps
}

func TestMomentumGatherScoresStrongMove(t *testing.T) {
	strategy := config.StrategyConfig{
		CryptoSymbols:           []string{"BTC/USD"},
		CryptoMomentumThreshold: 3.0,
	}
	deps := momentumDeps(map[string]broker.Snapshot{
		"BTC/USD": {Price: 105000, PrevDailyClose: 100000},
	}, nil, strategy)
	g := NewMomentumGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if !sig.IsCrypto {
		t.Error("momentum signals should be marked crypto")
	}
	if math.Abs(sig.Momentum-5.0) > 1e-9 {
		t.Errorf("expected 5%% momentum, got %f", sig.Momentum)
	}
	// 5% move at a 5-point divisor saturates the score.
	if math.Abs(sig.Sentiment-1.0) > 1e-9 {
		t.Errorf("expected saturated sentiment 1.0, got %f", sig.Sentiment)
	}
}

func TestMomentumGatherWeakMoveGetsTokenScore(t *testing.T) {
	strategy := config.StrategyConfig{
		CryptoSymbols:           []string{"ETH/USD"},
		CryptoMomentumThreshold: 3.0,
	}
	deps := momentumDeps(map[string]broker.Snapshot{
		"ETH/USD": {Price: 101, PrevDailyClose: 100},
	}, nil, strategy)
	g := NewMomentumGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if math.Abs(signals[0].Sentiment-0.1) > 1e-9 {
		t.Errorf("sub-threshold move should score 0.1, got %f", signals[0].Sentiment)
	}
}

func TestMomentumGatherSkipsIncompleteSnapshots(t *testing.T) {
	strategy := config.StrategyConfig{
		CryptoSymbols:           []string{"BTC/USD", "ETH/USD", "SOL/USD"},
		CryptoMomentumThreshold: 3.0,
	}
	deps := momentumDeps(map[string]broker.Snapshot{
		"BTC/USD": {Price: 105000, PrevDailyClose: 100000},
		"ETH/USD": {Price: 0, PrevDailyClose: 3000},
		"SOL/USD": {Price: 150, PrevDailyClose: 0},
	}, nil, strategy)
	g := NewMomentumGatherer(deps)

	signals := g.Gather(context.Background())
	if len(signals) != 1 {
		t.Fatalf("expected only the complete snapshot to emit, got %d", len(signals))
	}
	if signals[0].Symbol != "BTC/USD" {
		t.Errorf("expected BTC/USD, got %s", signals[0].Symbol)
	}
}

func TestMomentumGatherBrokerFailureDegrades(t *testing.T) {
	strategy := config.StrategyConfig{
		CryptoSymbols:           []string{"BTC/USD"},
		CryptoMomentumThreshold: 3.0,
	}
	deps := momentumDeps(nil, errors.New("snapshot endpoint down"), strategy)
	g := NewMomentumGatherer(deps)

	if signals := g.Gather(context.Background()); signals != nil {
		t.Fatalf("broker failure should degrade to no signals, got %d", len(signals))
	}
}

func TestMomentumGatherNoSymbolsConfigured(t *testing.T) {
	deps := momentumDeps(nil, nil, config.StrategyConfig{})
	g := NewMomentumGatherer(deps)

	if signals := g.Gather(context.Background()); signals != nil {
		t.Fatalf("no configured symbols should be a no-op, got %d signals", len(signals))
	}
}
