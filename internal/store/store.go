// Package store persists decision-cycle artifacts to PostgreSQL: the cycle
// record itself, the signals that fed it, and the entry and exit decisions
// it produced. Persistence is observational; the engine runs fine with the
// store disabled.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"signal-engine/config"
	"signal-engine/internal/logging"
	"signal-engine/internal/selector"
	"signal-engine/internal/signal"
	"signal-engine/internal/staleness"
)

// CycleRecord summarizes one completed decision cycle
type CycleRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	SignalCount    int       `json:"signal_count"`
	SymbolCount    int       `json:"symbol_count"`
	EntryCount     int       `json:"entry_count"`
	ExitCount      int       `json:"exit_count"`
	BudgetRemained int       `json:"budget_remained"`
}

// Store is the PostgreSQL-backed decision history
type Store struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// New connects to PostgreSQL and prepares the schema
func New(ctx context.Context, cfg config.PostgresConfig, logger *logging.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping postgres: %w", err)
	}

	s := &Store{pool: pool, logger: logger.WithComponent("store")}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			signal_count INT NOT NULL DEFAULT 0,
			symbol_count INT NOT NULL DEFAULT 0,
			entry_count INT NOT NULL DEFAULT 0,
			exit_count INT NOT NULL DEFAULT 0,
			budget_remained INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cycle_signals (
			id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
			symbol VARCHAR(20) NOT NULL,
			source VARCHAR(20) NOT NULL,
			source_detail TEXT,
			sentiment DOUBLE PRECISION NOT NULL,
			raw_sentiment DOUBLE PRECISION NOT NULL,
			volume INT NOT NULL,
			freshness DOUBLE PRECISION NOT NULL,
			reason TEXT,
			observed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_signals_cycle ON cycle_signals(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_signals_symbol ON cycle_signals(symbol)`,
		`CREATE TABLE IF NOT EXISTS cycle_entries (
			id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
			symbol VARCHAR(20) NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			quality VARCHAR(10) NOT NULL,
			notional DOUBLE PRECISION NOT NULL,
			use_options BOOLEAN NOT NULL DEFAULT FALSE,
			is_crypto BOOLEAN NOT NULL DEFAULT FALSE,
			reasoning TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_entries_cycle ON cycle_entries(cycle_id)`,
		`CREATE TABLE IF NOT EXISTS cycle_exits (
			id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
			symbol VARCHAR(20) NOT NULL,
			reason VARCHAR(30) NOT NULL,
			detail TEXT,
			pnl_pct DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_exits_cycle ON cycle_exits(cycle_id)`,
		`CREATE TABLE IF NOT EXISTS cycle_staleness (
			id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
			symbol VARCHAR(20) NOT NULL,
			is_stale BOOLEAN NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_staleness_cycle ON cycle_staleness(cycle_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	s.logger.Info("decision history schema ready")
	return nil
}

// SaveCycle inserts the cycle summary record
func (s *Store) SaveCycle(ctx context.Context, record CycleRecord) error {
	query := `
		INSERT INTO cycles (id, started_at, finished_at, signal_count, symbol_count, entry_count, exit_count, budget_remained)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		record.ID, record.StartedAt, record.FinishedAt, record.SignalCount,
		record.SymbolCount, record.EntryCount, record.ExitCount, record.BudgetRemained)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}
	return nil
}

// SaveSignals inserts the signals observed during a cycle
func (s *Store) SaveSignals(ctx context.Context, cycleID string, signals []signal.Signal) error {
	query := `
		INSERT INTO cycle_signals (cycle_id, symbol, source, source_detail, sentiment, raw_sentiment, volume, freshness, reason, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, sig := range signals {
		if _, err := s.pool.Exec(ctx, query,
			cycleID, sig.Symbol, string(sig.Source), sig.SourceDetail,
			sig.Sentiment, sig.RawSentiment, sig.Volume, sig.Freshness,
			sig.Reason, sig.Timestamp); err != nil {
			return fmt.Errorf("failed to save signal for %s: %w", sig.Symbol, err)
		}
	}
	return nil
}

// SaveEntries inserts the entry candidates a cycle selected
func (s *Store) SaveEntries(ctx context.Context, cycleID string, entries []selector.EntryCandidate) error {
	query := `
		INSERT INTO cycle_entries (cycle_id, symbol, confidence, quality, notional, use_options, is_crypto, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, e := range entries {
		if _, err := s.pool.Exec(ctx, query,
			cycleID, e.Symbol, e.Confidence, e.Quality, e.Notional,
			e.UseOptions, e.IsCrypto, e.Reasoning); err != nil {
			return fmt.Errorf("failed to save entry for %s: %w", e.Symbol, err)
		}
	}
	return nil
}

// SaveExits inserts the exit decisions a cycle produced
func (s *Store) SaveExits(ctx context.Context, cycleID string, exits []selector.ExitDecision) error {
	query := `
		INSERT INTO cycle_exits (cycle_id, symbol, reason, detail, pnl_pct)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, e := range exits {
		if _, err := s.pool.Exec(ctx, query,
			cycleID, e.Symbol, e.Reason, e.Detail, e.PnLPct); err != nil {
			return fmt.Errorf("failed to save exit for %s: %w", e.Symbol, err)
		}
	}
	return nil
}

// SaveStaleness inserts the per-position staleness snapshot
func (s *Store) SaveStaleness(ctx context.Context, cycleID string, results map[string]staleness.Result) error {
	query := `
		INSERT INTO cycle_staleness (cycle_id, symbol, is_stale, score, reason)
		VALUES ($1, $2, $3, $4, $5)
	`
	for symbol, res := range results {
		if _, err := s.pool.Exec(ctx, query,
			cycleID, symbol, res.IsStale, res.Score, res.Reason); err != nil {
			return fmt.Errorf("failed to save staleness for %s: %w", symbol, err)
		}
	}
	return nil
}
