package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Strategy     StrategyConfig     `json:"strategy"`
	Gather       GatherConfig       `json:"gather"`
	Confirmation ConfirmationConfig `json:"confirmation"`
	Broker       BrokerConfig       `json:"broker"`
	LLM          LLMConfig          `json:"llm"`
	Redis        RedisConfig        `json:"redis"`
	Postgres     PostgresConfig     `json:"postgres"`
	Vault        VaultConfig        `json:"vault"`
	Logging      LoggingConfig      `json:"logging"`
	Engine       EngineConfig       `json:"engine"`
}

// StrategyConfig holds the thresholds driving entry, exit and staleness
// decisions.
type StrategyConfig struct {
	MinAnalystConfidence    float64  `json:"min_analyst_confidence"` // 0-1, floor for BUY verdicts
	MaxPositions            int      `json:"max_positions"`
	PositionSizePct         float64  `json:"position_size_pct"`  // percent of cash per entry, capped at 20
	MaxPositionValue        float64  `json:"max_position_value"` // absolute notional cap
	MinNotional             float64  `json:"min_notional"`       // candidates below this are skipped
	TakeProfitPct           float64  `json:"take_profit_pct"`
	StopLossPct             float64  `json:"stop_loss_pct"`
	OptionsEnabled          bool     `json:"options_enabled"`
	OptionsMinConfidence    float64  `json:"options_min_confidence"`
	OptionsTakeProfitPct    float64  `json:"options_take_profit_pct"`
	OptionsStopLossPct      float64  `json:"options_stop_loss_pct"`
	StalenessEnabled        bool     `json:"staleness_enabled"`
	StaleMinHoldHours       float64  `json:"stale_min_hold_hours"`
	StaleMidHoldDays        float64  `json:"stale_mid_hold_days"`
	StaleMaxHoldDays        float64  `json:"stale_max_hold_days"`
	StaleMidMinGainPct      float64  `json:"stale_mid_min_gain_pct"`
	StaleSocialVolumeDecay  float64  `json:"stale_social_volume_decay"` // ratio floor, e.g. 0.3
	CryptoMomentumThreshold float64  `json:"crypto_momentum_threshold"` // percent move treated as actionable
	TickerBlacklist         []string `json:"ticker_blacklist"`
	CryptoSymbols           []string `json:"crypto_symbols"` // BASE/QUOTE form
}

// GatherConfig holds per-source gathering settings
type GatherConfig struct {
	Subreddits         []string           `json:"subreddits"`
	SourceWeights      map[string]float64 `json:"source_weights"` // per sub-source, defaults to 1.0
	MinMentions        int                `json:"min_mentions"`   // forum-style promotion floor
	RequestPacing      time.Duration      `json:"request_pacing"` // delay between upstream requests
	MaxTrendingSymbols int                `json:"max_trending_symbols"`
	FilingsFeedURL     string             `json:"filings_feed_url"`
	TickerDirectoryURL string             `json:"ticker_directory_url"`
	TrendingURL        string             `json:"trending_url"`
	StreamURLTemplate  string             `json:"stream_url_template"`
	ForumBaseURL       string             `json:"forum_base_url"`
}

// ConfirmationConfig holds the Twitter confirmation layer settings
type ConfirmationConfig struct {
	BearerToken      string        `json:"bearer_token"`
	DailyReadBudget  int           `json:"daily_read_budget"`
	MinSentiment     float64       `json:"min_sentiment"` // abs existing sentiment required to spend budget
	CacheTTL         time.Duration `json:"cache_ttl"`
	SearchURL        string        `json:"search_url"`
	BreakingAccounts []string      `json:"breaking_accounts"`
}

// BrokerConfig holds the brokerage API settings
type BrokerConfig struct {
	BaseURL   string `json:"base_url"`
	DataURL   string `json:"data_url"`
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

// LLMConfig holds the research completion settings
type LLMConfig struct {
	Enabled     bool    `json:"enabled"`
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// RedisConfig holds Redis settings for the durable state store
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// PostgresConfig holds decision-history persistence settings
type PostgresConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

// VaultConfig holds HashiCorp Vault configuration for credential lookup
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Output  string `json:"output"`
	Console bool   `json:"console"`
}

// EngineConfig holds cycle-level settings
type EngineConfig struct {
	CycleInterval time.Duration `json:"cycle_interval"`
	RunOnce       bool          `json:"run_once"`
}

func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	s := &cfg.Strategy
	if s.MinAnalystConfidence == 0 {
		s.MinAnalystConfidence = 0.7
	}
	if s.MaxPositions == 0 {
		s.MaxPositions = 5
	}
	if s.PositionSizePct == 0 {
		s.PositionSizePct = 10
	}
	if s.MaxPositionValue == 0 {
		s.MaxPositionValue = 5000
	}
	if s.MinNotional == 0 {
		s.MinNotional = 100
	}
	if s.TakeProfitPct == 0 {
		s.TakeProfitPct = 15
	}
	if s.StopLossPct == 0 {
		s.StopLossPct = 8
	}
	if s.OptionsMinConfidence == 0 {
		s.OptionsMinConfidence = 0.85
	}
	if s.OptionsTakeProfitPct == 0 {
		s.OptionsTakeProfitPct = 50
	}
	if s.OptionsStopLossPct == 0 {
		s.OptionsStopLossPct = 40
	}
	if s.StaleMinHoldHours == 0 {
		s.StaleMinHoldHours = 4
	}
	if s.StaleMidHoldDays == 0 {
		s.StaleMidHoldDays = 2
	}
	if s.StaleMaxHoldDays == 0 {
		s.StaleMaxHoldDays = 5
	}
	if s.StaleMidMinGainPct == 0 {
		s.StaleMidMinGainPct = 2
	}
	if s.StaleSocialVolumeDecay == 0 {
		s.StaleSocialVolumeDecay = 0.3
	}
	if s.CryptoMomentumThreshold == 0 {
		s.CryptoMomentumThreshold = 3
	}
	if len(s.CryptoSymbols) == 0 {
		s.CryptoSymbols = []string{"BTC/USD", "ETH/USD", "DOGE/USD"}
	}

	g := &cfg.Gather
	if len(g.Subreddits) == 0 {
		g.Subreddits = []string{"wallstreetbets", "stocks", "options"}
	}
	if g.MinMentions == 0 {
		g.MinMentions = 2
	}
	if g.RequestPacing == 0 {
		g.RequestPacing = 500 * time.Millisecond
	}
	if g.MaxTrendingSymbols == 0 {
		g.MaxTrendingSymbols = 10
	}
	if g.ForumBaseURL == "" {
		g.ForumBaseURL = "https://www.reddit.com"
	}
	if g.TrendingURL == "" {
		g.TrendingURL = "https://api.stocktwits.com/api/2/trending/symbols.json"
	}
	if g.StreamURLTemplate == "" {
		g.StreamURLTemplate = "https://api.stocktwits.com/api/2/streams/symbol/%s.json"
	}
	if g.FilingsFeedURL == "" {
		g.FilingsFeedURL = "https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&type=&company=&output=atom"
	}
	if g.TickerDirectoryURL == "" {
		g.TickerDirectoryURL = "https://www.sec.gov/files/company_tickers.json"
	}

	c := &cfg.Confirmation
	if c.DailyReadBudget == 0 {
		c.DailyReadBudget = 200
	}
	if c.MinSentiment == 0 {
		c.MinSentiment = 0.3
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 300 * time.Second
	}
	if c.SearchURL == "" {
		c.SearchURL = "https://api.twitter.com/2/tweets/search/recent"
	}
	if len(c.BreakingAccounts) == 0 {
		c.BreakingAccounts = []string{"DeItaone", "FirstSquawk", "unusual_whales"}
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.anthropic.com/v1/messages"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-3-haiku-20240307"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Engine.CycleInterval == 0 {
		cfg.Engine.CycleInterval = 15 * time.Minute
	}
}

func applyEnvOverrides(cfg *Config) {
	// Strategy thresholds
	cfg.Strategy.MinAnalystConfidence = getEnvFloatOrDefault("MIN_ANALYST_CONFIDENCE", cfg.Strategy.MinAnalystConfidence)
	cfg.Strategy.MaxPositions = getEnvIntOrDefault("MAX_POSITIONS", cfg.Strategy.MaxPositions)
	cfg.Strategy.PositionSizePct = getEnvFloatOrDefault("POSITION_SIZE_PCT", cfg.Strategy.PositionSizePct)
	cfg.Strategy.MaxPositionValue = getEnvFloatOrDefault("MAX_POSITION_VALUE", cfg.Strategy.MaxPositionValue)
	cfg.Strategy.TakeProfitPct = getEnvFloatOrDefault("TAKE_PROFIT_PCT", cfg.Strategy.TakeProfitPct)
	cfg.Strategy.StopLossPct = getEnvFloatOrDefault("STOP_LOSS_PCT", cfg.Strategy.StopLossPct)
	cfg.Strategy.OptionsEnabled = getEnvOrDefault("OPTIONS_ENABLED", boolStr(cfg.Strategy.OptionsEnabled)) == "true"
	cfg.Strategy.StalenessEnabled = getEnvOrDefault("STALENESS_ENABLED", boolStr(cfg.Strategy.StalenessEnabled)) == "true"
	cfg.Strategy.StaleMinHoldHours = getEnvFloatOrDefault("STALE_MIN_HOLD_HOURS", cfg.Strategy.StaleMinHoldHours)
	cfg.Strategy.StaleMidHoldDays = getEnvFloatOrDefault("STALE_MID_HOLD_DAYS", cfg.Strategy.StaleMidHoldDays)
	cfg.Strategy.StaleMaxHoldDays = getEnvFloatOrDefault("STALE_MAX_HOLD_DAYS", cfg.Strategy.StaleMaxHoldDays)
	cfg.Strategy.StaleMidMinGainPct = getEnvFloatOrDefault("STALE_MID_MIN_GAIN_PCT", cfg.Strategy.StaleMidMinGainPct)
	cfg.Strategy.StaleSocialVolumeDecay = getEnvFloatOrDefault("STALE_SOCIAL_VOLUME_DECAY", cfg.Strategy.StaleSocialVolumeDecay)
	cfg.Strategy.CryptoMomentumThreshold = getEnvFloatOrDefault("CRYPTO_MOMENTUM_THRESHOLD", cfg.Strategy.CryptoMomentumThreshold)
	if v := os.Getenv("TICKER_BLACKLIST"); v != "" {
		cfg.Strategy.TickerBlacklist = splitList(v)
	}
	if v := os.Getenv("CRYPTO_SYMBOLS"); v != "" {
		cfg.Strategy.CryptoSymbols = splitList(v)
	}

	// Confirmation
	cfg.Confirmation.BearerToken = getEnvOrDefault("TWITTER_BEARER_TOKEN", cfg.Confirmation.BearerToken)
	cfg.Confirmation.DailyReadBudget = getEnvIntOrDefault("TWITTER_DAILY_READ_BUDGET", cfg.Confirmation.DailyReadBudget)

	// Broker
	cfg.Broker.BaseURL = getEnvOrDefault("BROKER_BASE_URL", cfg.Broker.BaseURL)
	cfg.Broker.DataURL = getEnvOrDefault("BROKER_DATA_URL", cfg.Broker.DataURL)
	cfg.Broker.APIKey = getEnvOrDefault("BROKER_API_KEY", cfg.Broker.APIKey)
	cfg.Broker.SecretKey = getEnvOrDefault("BROKER_SECRET_KEY", cfg.Broker.SecretKey)

	// LLM
	cfg.LLM.Enabled = getEnvOrDefault("LLM_ENABLED", boolStr(cfg.LLM.Enabled)) == "true"
	cfg.LLM.BaseURL = getEnvOrDefault("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnvOrDefault("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnvOrDefault("LLM_MODEL", cfg.LLM.Model)

	// Redis
	cfg.Redis.Enabled = getEnvOrDefault("REDIS_ENABLED", boolStr(cfg.Redis.Enabled)) == "true"
	cfg.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)

	// Postgres
	cfg.Postgres.Enabled = getEnvOrDefault("POSTGRES_ENABLED", boolStr(cfg.Postgres.Enabled)) == "true"
	cfg.Postgres.DSN = getEnvOrDefault("POSTGRES_DSN", cfg.Postgres.DSN)

	// Vault
	cfg.Vault.Enabled = getEnvOrDefault("VAULT_ENABLED", boolStr(cfg.Vault.Enabled)) == "true"
	cfg.Vault.Address = getEnvOrDefault("VAULT_ADDR", cfg.Vault.Address)
	cfg.Vault.Token = getEnvOrDefault("VAULT_TOKEN", cfg.Vault.Token)
	cfg.Vault.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", "secret")
	cfg.Vault.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", "signal-engine/credentials")

	// Logging
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Output = getEnvOrDefault("LOG_OUTPUT", "stdout")
	cfg.Logging.Console = getEnvOrDefault("LOG_CONSOLE", "false") == "true"

	// Engine
	cfg.Engine.RunOnce = getEnvOrDefault("ENGINE_RUN_ONCE", boolStr(cfg.Engine.RunOnce)) == "true"
	cfg.Engine.CycleInterval = getEnvDurationOrDefault("ENGINE_CYCLE_INTERVAL", cfg.Engine.CycleInterval)
}

// Validate checks that every threshold is inside its valid range. A failure
// here is the only error this engine escalates to the caller.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.MinAnalystConfidence < 0 || s.MinAnalystConfidence > 1 {
		return fmt.Errorf("min_analyst_confidence must be in [0,1], got %v", s.MinAnalystConfidence)
	}
	if s.MaxPositions < 1 {
		return fmt.Errorf("max_positions must be >= 1, got %d", s.MaxPositions)
	}
	if s.PositionSizePct <= 0 {
		return fmt.Errorf("position_size_pct must be > 0, got %v", s.PositionSizePct)
	}
	if s.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be > 0, got %v", s.TakeProfitPct)
	}
	if s.StopLossPct <= 0 {
		return fmt.Errorf("stop_loss_pct must be > 0, got %v", s.StopLossPct)
	}
	if s.StaleMinHoldHours < 0 {
		return fmt.Errorf("stale_min_hold_hours must be >= 0, got %v", s.StaleMinHoldHours)
	}
	if s.StaleMidHoldDays <= 0 || s.StaleMaxHoldDays <= s.StaleMidHoldDays {
		return fmt.Errorf("stale hold thresholds must satisfy 0 < mid < max, got mid=%v max=%v",
			s.StaleMidHoldDays, s.StaleMaxHoldDays)
	}
	if s.StaleSocialVolumeDecay <= 0 || s.StaleSocialVolumeDecay >= 1 {
		return fmt.Errorf("stale_social_volume_decay must be in (0,1), got %v", s.StaleSocialVolumeDecay)
	}
	if s.CryptoMomentumThreshold < 0 {
		return fmt.Errorf("crypto_momentum_threshold must be >= 0, got %v", s.CryptoMomentumThreshold)
	}
	for _, sym := range s.CryptoSymbols {
		if !strings.Contains(sym, "/") {
			return fmt.Errorf("crypto symbol %q must be in BASE/QUOTE form", sym)
		}
	}
	if c.Confirmation.DailyReadBudget < 0 {
		return fmt.Errorf("daily_read_budget must be >= 0, got %d", c.Confirmation.DailyReadBudget)
	}
	if c.Confirmation.MinSentiment < 0 || c.Confirmation.MinSentiment > 1 {
		return fmt.Errorf("confirmation min_sentiment must be in [0,1], got %v", c.Confirmation.MinSentiment)
	}
	if c.Gather.MinMentions < 1 {
		return fmt.Errorf("min_mentions must be >= 1, got %d", c.Gather.MinMentions)
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
