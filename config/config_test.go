package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence above 1", func(c *Config) { c.Strategy.MinAnalystConfidence = 1.5 }},
		{"zero max positions", func(c *Config) { c.Strategy.MaxPositions = 0 }},
		{"negative stop loss", func(c *Config) { c.Strategy.StopLossPct = -1 }},
		{"mid hold above max hold", func(c *Config) {
			c.Strategy.StaleMidHoldDays = 7
			c.Strategy.StaleMaxHoldDays = 5
		}},
		{"volume decay out of range", func(c *Config) { c.Strategy.StaleSocialVolumeDecay = 1.2 }},
		{"crypto symbol without quote", func(c *Config) { c.Strategy.CryptoSymbols = []string{"BTCUSD"} }},
		{"negative read budget", func(c *Config) { c.Confirmation.DailyReadBudget = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Confirmation.DailyReadBudget != 200 {
		t.Errorf("expected default read budget 200, got %d", cfg.Confirmation.DailyReadBudget)
	}
	if cfg.Confirmation.CacheTTL != 300*time.Second {
		t.Errorf("expected default cache TTL 300s, got %v", cfg.Confirmation.CacheTTL)
	}
	if cfg.Gather.MinMentions != 2 {
		t.Errorf("expected default min mentions 2, got %d", cfg.Gather.MinMentions)
	}
	if cfg.Strategy.MinNotional != 100 {
		t.Errorf("expected default min notional 100, got %v", cfg.Strategy.MinNotional)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAX_POSITIONS", "3")
	t.Setenv("TICKER_BLACKLIST", "CEO, DD ,YOLO")

	cfg := validConfig()
	applyEnvOverrides(cfg)

	if cfg.Strategy.MaxPositions != 3 {
		t.Errorf("expected max positions 3, got %d", cfg.Strategy.MaxPositions)
	}
	want := []string{"CEO", "DD", "YOLO"}
	if len(cfg.Strategy.TickerBlacklist) != len(want) {
		t.Fatalf("expected %d blacklist entries, got %d", len(want), len(cfg.Strategy.TickerBlacklist))
	}
	for i, w := range want {
		if cfg.Strategy.TickerBlacklist[i] != w {
			t.Errorf("blacklist[%d] = %q, want %q", i, cfg.Strategy.TickerBlacklist[i], w)
		}
	}
}
