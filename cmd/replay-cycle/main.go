// Command replay-cycle loads a persisted decision cycle and prints what the
// engine saw and decided. With no arguments it replays the latest cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"signal-engine/config"
	"signal-engine/internal/logging"
	"signal-engine/internal/store"
)

func main() {
	cycleID := flag.String("cycle", "", "cycle id to replay (default: latest)")
	showSignals := flag.Bool("signals", false, "print every recorded signal")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Postgres.Enabled {
		fmt.Fprintln(os.Stderr, "decision history is disabled (POSTGRES_ENABLED=false)")
		os.Exit(1)
	}

	logger := logging.New(&logging.Config{Level: "error"})
	ctx := context.Background()

	history, err := store.New(ctx, cfg.Postgres, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to decision history: %v\n", err)
		os.Exit(1)
	}
	defer history.Close()

	id := *cycleID
	if id == "" {
		id, err = history.LatestCycleID(ctx)
		if errors.Is(err, store.ErrCycleNotFound) {
			fmt.Fprintln(os.Stderr, "no cycles recorded yet")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to find latest cycle: %v\n", err)
			os.Exit(1)
		}
	}

	if err := replay(ctx, history, id, *showSignals); err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}
}

func replay(ctx context.Context, history *store.Store, cycleID string, showSignals bool) error {
	record, err := history.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}

	fmt.Printf("cycle %s\n", record.ID)
	fmt.Printf("  started:  %s\n", record.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  finished: %s (%s)\n", record.FinishedAt.Format("2006-01-02 15:04:05 MST"),
		record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond))
	fmt.Printf("  signals=%d symbols=%d entries=%d exits=%d budget_remaining=%d\n\n",
		record.SignalCount, record.SymbolCount, record.EntryCount,
		record.ExitCount, record.BudgetRemained)

	if showSignals {
		signals, err := history.GetSignals(ctx, cycleID)
		if err != nil {
			return err
		}
		fmt.Printf("signals (%d):\n", len(signals))
		for _, sig := range signals {
			fmt.Printf("  %-8s %-10s sentiment=%+.3f volume=%-4d freshness=%.2f %s\n",
				sig.Symbol, sig.Source, sig.Sentiment, sig.Volume, sig.Freshness, sig.Reason)
		}
		fmt.Println()
	}

	entries, err := history.GetEntries(ctx, cycleID)
	if err != nil {
		return err
	}
	fmt.Printf("entries (%d):\n", len(entries))
	for _, e := range entries {
		route := "shares"
		if e.UseOptions {
			route = "options"
		}
		fmt.Printf("  %-8s confidence=%.2f quality=%-8s notional=%.2f via %s\n",
			e.Symbol, e.Confidence, e.Quality, e.Notional, route)
		if e.Reasoning != "" {
			fmt.Printf("           %s\n", e.Reasoning)
		}
	}

	exits, err := history.GetExits(ctx, cycleID)
	if err != nil {
		return err
	}
	fmt.Printf("\nexits (%d):\n", len(exits))
	for _, e := range exits {
		fmt.Printf("  %-8s %-20s pnl=%+.2f%% %s\n", e.Symbol, e.Reason, e.PnLPct, e.Detail)
	}
	return nil
}
