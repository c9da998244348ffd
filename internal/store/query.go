package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-engine/internal/selector"
	"signal-engine/internal/signal"
)

// ErrCycleNotFound is returned when a requested cycle does not exist
var ErrCycleNotFound = errors.New("cycle not found")

// LatestCycleID returns the most recently finished cycle's id
func (s *Store) LatestCycleID(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM cycles ORDER BY finished_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrCycleNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest cycle: %w", err)
	}
	return id, nil
}

// GetCycle loads one cycle summary
func (s *Store) GetCycle(ctx context.Context, cycleID string) (*CycleRecord, error) {
	record := &CycleRecord{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, signal_count, symbol_count, entry_count, exit_count, budget_remained
		FROM cycles WHERE id = $1
	`, cycleID).Scan(
		&record.ID, &record.StartedAt, &record.FinishedAt, &record.SignalCount,
		&record.SymbolCount, &record.EntryCount, &record.ExitCount, &record.BudgetRemained)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCycleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cycle: %w", err)
	}
	return record, nil
}

// GetSignals loads the signals recorded for one cycle
func (s *Store) GetSignals(ctx context.Context, cycleID string) ([]signal.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, source, source_detail, sentiment, raw_sentiment, volume, freshness, reason, observed_at
		FROM cycle_signals WHERE cycle_id = $1 ORDER BY symbol, source
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signals: %w", err)
	}
	defer rows.Close()

	var signals []signal.Signal
	for rows.Next() {
		var sig signal.Signal
		var source string
		if err := rows.Scan(&sig.Symbol, &source, &sig.SourceDetail,
			&sig.Sentiment, &sig.RawSentiment, &sig.Volume, &sig.Freshness,
			&sig.Reason, &sig.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.Source = signal.Source(source)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// GetEntries loads the entry candidates recorded for one cycle
func (s *Store) GetEntries(ctx context.Context, cycleID string) ([]selector.EntryCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, confidence, quality, notional, use_options, is_crypto, reasoning
		FROM cycle_entries WHERE cycle_id = $1 ORDER BY confidence DESC
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	var entries []selector.EntryCandidate
	for rows.Next() {
		var e selector.EntryCandidate
		if err := rows.Scan(&e.Symbol, &e.Confidence, &e.Quality, &e.Notional,
			&e.UseOptions, &e.IsCrypto, &e.Reasoning); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetExits loads the exit decisions recorded for one cycle
func (s *Store) GetExits(ctx context.Context, cycleID string) ([]selector.ExitDecision, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, reason, detail, pnl_pct
		FROM cycle_exits WHERE cycle_id = $1 ORDER BY symbol
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exits: %w", err)
	}
	defer rows.Close()

	var exits []selector.ExitDecision
	for rows.Next() {
		var e selector.ExitDecision
		if err := rows.Scan(&e.Symbol, &e.Reason, &e.Detail, &e.PnLPct); err != nil {
			return nil, fmt.Errorf("failed to scan exit: %w", err)
		}
		exits = append(exits, e)
	}
	return exits, rows.Err()
}
