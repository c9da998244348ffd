package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/confirm"
	"signal-engine/internal/engine"
	"signal-engine/internal/gather"
	"signal-engine/internal/logging"
	"signal-engine/internal/research"
	"signal-engine/internal/secrets"
	"signal-engine/internal/sentiment"
	"signal-engine/internal/staleness"
	"signal-engine/internal/statestore"
	"signal-engine/internal/store"
	"signal-engine/internal/ticker"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Fatal("failed to load configuration", "error", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Logging.Level,
		Output:  cfg.Logging.Output,
		Console: cfg.Logging.Console,
	})
	logging.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := secrets.NewSource(cfg.Vault, logger)
	if err != nil {
		logger.Fatal("failed to initialize secrets source", "error", err)
	}
	if err := source.Health(ctx); err != nil {
		logger.Warn("vault unhealthy, relying on environment credentials", "error", err)
	}
	resolveCredentials(ctx, cfg, source)

	state := newStateStore(cfg, logger)
	history := newHistory(ctx, cfg, logger)

	brokerClient := broker.NewHTTPClient(cfg.Broker, logger)
	fetcher := gather.NewHTTPFetcher()
	validator := ticker.NewValidator(fetcher, cfg.Gather.TickerDirectoryURL, logger)
	scorer := sentiment.NewScorer(sentiment.DefaultScorerConfig())

	deps := &gather.Deps{
		Fetcher:   fetcher,
		Sleeper:   gather.ClockSleeper{},
		Logger:    logger,
		Scorer:    scorer,
		Validator: validator,
		Lookup:    brokerClient,
		Broker:    brokerClient,
		Strategy:  cfg.Strategy,
		Gather:    cfg.Gather,
	}
	gatherers := []gather.Gatherer{
		gather.NewForumGatherer(deps),
		gather.NewTrendingGatherer(deps),
		gather.NewFilingsGatherer(deps),
		gather.NewMomentumGatherer(deps),
	}

	confirmer := confirm.NewConfirmer(cfg.Confirmation, fetcher, state, logger)
	if !confirmer.Enabled() {
		logger.Info("no bearer token configured, confirmation layer disabled")
	}

	var completer research.Completer = research.DisabledCompleter{}
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		completer = research.NewHTTPCompleter(cfg.LLM)
	} else {
		logger.Warn("research completion disabled, all verdicts will be WAIT")
	}

	eng := engine.New(engine.Options{
		Config:    cfg,
		Logger:    logger,
		Gatherers: gatherers,
		Validator: validator,
		Broker:    brokerClient,
		Confirmer: confirmer,
		Analyzer:  research.NewAnalyzer(completer, logger),
		Staleness: staleness.NewEngine(cfg.Strategy, logger),
		State:     state,
		History:   history,
	})

	logger.Info("signal engine starting",
		"cycle_interval", cfg.Engine.CycleInterval.String(),
		"run_once", cfg.Engine.RunOnce)
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("engine stopped", "error", err)
	}
	logger.Info("signal engine stopped")
}

// resolveCredentials fills credential fields that are still empty from the
// secrets source.
func resolveCredentials(ctx context.Context, cfg *config.Config, source *secrets.Source) {
	if cfg.Confirmation.BearerToken == "" {
		cfg.Confirmation.BearerToken = source.Get(ctx, "twitter_bearer_token", "TWITTER_BEARER_TOKEN")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = source.Get(ctx, "llm_api_key", "LLM_API_KEY")
	}
	if cfg.Broker.APIKey == "" {
		cfg.Broker.APIKey = source.Get(ctx, "broker_api_key", "BROKER_API_KEY")
	}
	if cfg.Broker.SecretKey == "" {
		cfg.Broker.SecretKey = source.Get(ctx, "broker_secret_key", "BROKER_SECRET_KEY")
	}
}

// newStateStore prefers Redis and degrades to the in-memory store
func newStateStore(cfg *config.Config, logger *logging.Logger) statestore.Store {
	if !cfg.Redis.Enabled {
		return statestore.NewMemoryStore()
	}
	redisStore, err := statestore.NewRedisStore(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory state store", "error", err)
		return statestore.NewMemoryStore()
	}
	return redisStore
}

// newHistory connects the decision-history store when enabled. Persistence
// failures disable history rather than the engine.
func newHistory(ctx context.Context, cfg *config.Config, logger *logging.Logger) engine.History {
	if !cfg.Postgres.Enabled {
		return nil
	}
	history, err := store.New(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Warn("postgres unavailable, decision history disabled", "error", err)
		return nil
	}
	return history
}
