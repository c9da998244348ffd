package selector

import (
	"testing"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/logging"
	"signal-engine/internal/research"
)

func entryConfig() config.StrategyConfig {
	return config.StrategyConfig{
		MinAnalystConfidence: 0.6,
		MaxPositions:         10,
		PositionSizePct:      10,
		MaxPositionValue:     5000,
		MinNotional:          100,
		OptionsEnabled:       true,
		OptionsMinConfidence: 0.85,
	}
}

func newEntrySelector(cfg config.StrategyConfig) *EntrySelector {
	return NewEntrySelector(cfg, logging.New(&logging.Config{Level: "error"}))
}

func buy(symbol string, confidence float64, quality string) research.Analysis {
	return research.Analysis{
		Symbol:       symbol,
		Verdict:      research.VerdictBuy,
		Confidence:   confidence,
		EntryQuality: quality,
	}
}

func TestSelectPicksBestFirstUpToSlots(t *testing.T) {
	cfg := entryConfig()
	cfg.MaxPositions = 2
	s := newEntrySelector(cfg)

	analyses := []research.Analysis{
		buy("AAA", 0.65, research.QualityWeak),
		buy("BBB", 0.95, research.QualityStrong),
		buy("CCC", 0.80, research.QualityModerate),
		buy("DDD", 0.70, research.QualityWeak),
		buy("EEE", 0.62, research.QualityWeak),
	}
	account := &broker.Account{Cash: 100000}

	selected := s.Select(analyses, account, nil)
	if len(selected) != 2 {
		t.Fatalf("expected 2 entries for 2 open slots, got %d", len(selected))
	}
	if selected[0].Symbol != "BBB" || selected[1].Symbol != "CCC" {
		t.Errorf("expected best-first order BBB, CCC; got %s, %s",
			selected[0].Symbol, selected[1].Symbol)
	}
}

func TestSelectFiltersVerdictAndConfidence(t *testing.T) {
	s := newEntrySelector(entryConfig())

	analyses := []research.Analysis{
		{Symbol: "AAA", Verdict: research.VerdictSkip, Confidence: 0.9},
		{Symbol: "BBB", Verdict: research.VerdictWait, Confidence: 0.9},
		buy("CCC", 0.5, research.QualityWeak), // under floor
		buy("DDD", 0.7, research.QualityWeak),
	}

	selected := s.Select(analyses, &broker.Account{Cash: 100000}, nil)
	if len(selected) != 1 || selected[0].Symbol != "DDD" {
		t.Fatalf("expected only DDD to survive, got %v", selected)
	}
}

func TestSelectExcludesHeldSymbols(t *testing.T) {
	s := newEntrySelector(entryConfig())

	analyses := []research.Analysis{buy("GME", 0.9, research.QualityStrong)}
	positions := []broker.Position{{Symbol: "gme"}}

	if selected := s.Select(analyses, &broker.Account{Cash: 100000}, positions); len(selected) != 0 {
		t.Fatalf("held symbol should be excluded case-insensitively, got %v", selected)
	}
}

func TestSelectSizing(t *testing.T) {
	s := newEntrySelector(entryConfig())

	// 100k cash, 10% size, 0.8 confidence: 8000, capped at 5000.
	selected := s.Select([]research.Analysis{buy("AAA", 0.8, research.QualityWeak)},
		&broker.Account{Cash: 100000}, nil)
	if len(selected) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(selected))
	}
	if selected[0].Notional != 5000 {
		t.Errorf("expected notional capped at 5000, got %f", selected[0].Notional)
	}

	// 10k cash, 10% size, 0.7 confidence: 700 uncapped.
	selected = s.Select([]research.Analysis{buy("BBB", 0.7, research.QualityWeak)},
		&broker.Account{Cash: 10000}, nil)
	if selected[0].Notional != 700 {
		t.Errorf("expected notional 700, got %f", selected[0].Notional)
	}
}

func TestSelectSizePctCeiling(t *testing.T) {
	cfg := entryConfig()
	cfg.PositionSizePct = 50 // above the 20% ceiling
	cfg.MaxPositionValue = 100000
	s := newEntrySelector(cfg)

	selected := s.Select([]research.Analysis{buy("AAA", 1.0, research.QualityWeak)},
		&broker.Account{Cash: 10000}, nil)
	if len(selected) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(selected))
	}
	if selected[0].Notional != 2000 {
		t.Errorf("size percent should be capped at 20, got notional %f", selected[0].Notional)
	}
}

func TestSelectDropsSubMinimumNotional(t *testing.T) {
	s := newEntrySelector(entryConfig())

	// 1000 cash, 10% size, 0.7 confidence: 70, under the 100 minimum.
	selected := s.Select([]research.Analysis{buy("AAA", 0.7, research.QualityWeak)},
		&broker.Account{Cash: 1000}, nil)
	if len(selected) != 0 {
		t.Fatalf("sub-minimum notional should be dropped, got %v", selected)
	}
}

func TestSelectOptionsGating(t *testing.T) {
	s := newEntrySelector(entryConfig())
	account := &broker.Account{Cash: 100000}

	tests := []struct {
		name string
		a    research.Analysis
		want bool
	}{
		{"strong high-confidence equity", buy("AAA", 0.9, research.QualityStrong), true},
		{"under options confidence", buy("BBB", 0.8, research.QualityStrong), false},
		{"moderate quality", buy("CCC", 0.9, research.QualityModerate), false},
	}
	for _, tt := range tests {
		selected := s.Select([]research.Analysis{tt.a}, account, nil)
		if len(selected) != 1 {
			t.Fatalf("%s: expected 1 entry, got %d", tt.name, len(selected))
		}
		if selected[0].UseOptions != tt.want {
			t.Errorf("%s: UseOptions = %v, want %v", tt.name, selected[0].UseOptions, tt.want)
		}
	}

	crypto := buy("BTC/USD", 0.95, research.QualityStrong)
	crypto.IsCrypto = true
	selected := s.Select([]research.Analysis{crypto}, account, nil)
	if len(selected) != 1 || selected[0].UseOptions {
		t.Error("crypto entries must never route through options")
	}
}

func TestSelectPerCycleCap(t *testing.T) {
	s := newEntrySelector(entryConfig())

	analyses := []research.Analysis{
		buy("AAA", 0.9, research.QualityWeak),
		buy("BBB", 0.85, research.QualityWeak),
		buy("CCC", 0.8, research.QualityWeak),
		buy("DDD", 0.75, research.QualityWeak),
	}

	selected := s.Select(analyses, &broker.Account{Cash: 100000}, nil)
	if len(selected) != maxNewEntriesPerCycle {
		t.Fatalf("expected per-cycle cap of %d, got %d", maxNewEntriesPerCycle, len(selected))
	}
}
