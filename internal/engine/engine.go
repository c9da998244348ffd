// Package engine orchestrates one decision cycle: refresh the ticker
// universe, run the gatherers, confirm and research the aggregated symbols,
// score held positions for staleness, and select entries and exits. Every
// external failure inside a cycle degrades to fewer signals or skipped
// symbols; only a cancelled context stops the engine.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"signal-engine/config"
	"signal-engine/internal/broker"
	"signal-engine/internal/confirm"
	"signal-engine/internal/gather"
	"signal-engine/internal/logging"
	"signal-engine/internal/research"
	"signal-engine/internal/selector"
	"signal-engine/internal/signal"
	"signal-engine/internal/staleness"
	"signal-engine/internal/statestore"
	"signal-engine/internal/store"
	"signal-engine/internal/ticker"
)

const entryRecordPrefix = "position_entry:"

// History records cycle artifacts for later inspection. A nil History
// disables persistence without touching the decision path.
type History interface {
	SaveCycle(ctx context.Context, record store.CycleRecord) error
	SaveSignals(ctx context.Context, cycleID string, signals []signal.Signal) error
	SaveEntries(ctx context.Context, cycleID string, entries []selector.EntryCandidate) error
	SaveExits(ctx context.Context, cycleID string, exits []selector.ExitDecision) error
	SaveStaleness(ctx context.Context, cycleID string, results map[string]staleness.Result) error
}

// CycleResult is everything one cycle decided
type CycleResult struct {
	CycleID   string                      `json:"cycle_id"`
	StartedAt time.Time                   `json:"started_at"`
	Signals   []signal.Signal             `json:"signals"`
	Analyses  []research.Analysis         `json:"analyses"`
	Entries   []selector.EntryCandidate   `json:"entries"`
	Exits     []selector.ExitDecision     `json:"exits"`
	Staleness map[string]staleness.Result `json:"staleness"`
	Headlines []confirm.Headline          `json:"headlines"`
}

// Engine wires the decision pipeline together
type Engine struct {
	cfg       *config.Config
	logger    *logging.Logger
	gatherers []gather.Gatherer
	validator *ticker.Validator
	broker    broker.Client
	confirmer *confirm.Confirmer
	analyzer  *research.Analyzer
	staleness *staleness.Engine
	entries   *selector.EntrySelector
	exits     *selector.ExitSelector
	state     statestore.Store
	history   History
}

// Options bundles the engine's collaborators
type Options struct {
	Config    *config.Config
	Logger    *logging.Logger
	Gatherers []gather.Gatherer
	Validator *ticker.Validator
	Broker    broker.Client
	Confirmer *confirm.Confirmer
	Analyzer  *research.Analyzer
	Staleness *staleness.Engine
	State     statestore.Store
	History   History
}

// New creates an engine
func New(opts Options) *Engine {
	return &Engine{
		cfg:       opts.Config,
		logger:    opts.Logger.WithComponent("engine"),
		gatherers: opts.Gatherers,
		validator: opts.Validator,
		broker:    opts.Broker,
		confirmer: opts.Confirmer,
		analyzer:  opts.Analyzer,
		staleness: opts.Staleness,
		entries:   selector.NewEntrySelector(opts.Config.Strategy, opts.Logger),
		exits:     selector.NewExitSelector(opts.Config.Strategy, opts.Logger),
		state:     opts.State,
		history:   opts.History,
	}
}

// Run executes cycles on the configured interval until the context is
// cancelled. The first cycle starts immediately.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.Engine.CycleInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := e.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			e.logger.Error("cycle failed", "error", err)
		}
		if e.cfg.Engine.RunOnce {
			return nil
		}
		timer.Reset(interval)
	}
}

// RunCycle executes one full decision cycle
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
		Staleness: make(map[string]staleness.Result),
	}
	logger := e.logger.WithField("cycle_id", result.CycleID)
	logger.Info("cycle started")

	e.validator.RefreshAuthoritativeIfStale(ctx)

	for _, g := range e.gatherers {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		signals := g.Gather(ctx)
		logger.Info("gatherer finished", "source", g.Name(), "signals", len(signals))
		result.Signals = append(result.Signals, signals...)
	}

	account, positions := e.fetchBrokerState(ctx, logger)
	bySymbol := signal.BySymbol(result.Signals)

	result.Headlines = e.sweepBreakingNews(ctx, logger)
	result.Analyses = e.researchSymbols(ctx, logger, bySymbol)
	e.scorePositions(ctx, logger, positions, bySymbol, result)

	result.Exits = e.exits.EvaluateAll(positions, result.Staleness)
	if account != nil {
		result.Entries = e.entries.Select(result.Analyses, account, positions)
	} else {
		logger.Warn("no account state, skipping entry selection")
	}

	e.recordEntries(ctx, logger, result, bySymbol)
	e.persist(ctx, logger, result, bySymbol)

	logger.Info("cycle finished",
		"signals", len(result.Signals), "symbols", len(bySymbol),
		"entries", len(result.Entries), "exits", len(result.Exits),
		"elapsed", time.Since(result.StartedAt).String())
	return result, nil
}

func (e *Engine) fetchBrokerState(ctx context.Context, logger *logging.Logger) (*broker.Account, []broker.Position) {
	account, err := e.broker.GetAccount(ctx)
	if err != nil {
		logger.Warn("failed to fetch account, entries disabled this cycle", "error", err)
		account = nil
	}
	positions, err := e.broker.GetPositions(ctx)
	if err != nil {
		logger.Warn("failed to fetch positions, exits disabled this cycle", "error", err)
		positions = nil
	}
	return account, positions
}

// researchSymbols confirms and analyzes each symbol that produced signals.
// A failed confirmation or analysis skips that symbol only.
func (e *Engine) researchSymbols(ctx context.Context, logger *logging.Logger, bySymbol map[string][]signal.Signal) []research.Analysis {
	var analyses []research.Analysis
	budgetSpent := false

	for symbol, signals := range bySymbol {
		if ctx.Err() != nil {
			return analyses
		}

		var confirmation *confirm.Confirmation
		if !budgetSpent {
			var err error
			confirmation, err = e.confirmer.Confirm(ctx, symbol, aggregateSentiment(signals))
			if errors.Is(err, confirm.ErrBudgetExhausted) {
				logger.Warn("confirmation budget exhausted, continuing unconfirmed")
				budgetSpent = true
			} else if err != nil {
				logger.Warn("confirmation failed, continuing unconfirmed",
					"symbol", symbol, "error", err)
			}
		}

		analysis, err := e.analyzer.Analyze(ctx, symbol, signals, confirmation)
		if err != nil {
			logger.Warn("analysis failed, skipping symbol", "symbol", symbol, "error", err)
			continue
		}
		analyses = append(analyses, *analysis)
	}
	return analyses
}

func (e *Engine) sweepBreakingNews(ctx context.Context, logger *logging.Logger) []confirm.Headline {
	headlines, err := e.confirmer.BreakingNews(ctx)
	if err != nil {
		logger.Warn("breaking news sweep failed", "error", err)
		return nil
	}
	for _, h := range headlines {
		if h.Breaking {
			logger.Info("breaking headline", "account", h.Account, "text", h.Text)
		}
	}
	return headlines
}

// scorePositions evaluates staleness for each held position using the entry
// record captured when the position was selected.
func (e *Engine) scorePositions(ctx context.Context, logger *logging.Logger, positions []broker.Position, bySymbol map[string][]signal.Signal, result *CycleResult) {
	now := time.Now()
	for _, pos := range positions {
		var entry staleness.Entry
		found, err := e.state.Get(ctx, entryRecordPrefix+pos.Symbol, &entry)
		if err != nil {
			logger.Warn("failed to load entry record", "symbol", pos.Symbol, "error", err)
		}

		var entryPtr *staleness.Entry
		if found {
			entryPtr = &entry
		}
		currentVolume := signal.TotalVolume(bySymbol[pos.Symbol])
		result.Staleness[pos.Symbol] = e.staleness.Evaluate(pos, entryPtr, currentVolume, now)
	}
}

// recordEntries snapshots entry context for newly selected positions so
// future cycles can score them for staleness.
func (e *Engine) recordEntries(ctx context.Context, logger *logging.Logger, result *CycleResult, bySymbol map[string][]signal.Signal) {
	for _, candidate := range result.Entries {
		entry := staleness.Entry{
			Symbol:       candidate.Symbol,
			EntryTime:    time.Now(),
			SocialVolume: signal.TotalVolume(bySymbol[candidate.Symbol]),
		}
		if err := e.state.Set(ctx, entryRecordPrefix+candidate.Symbol, entry); err != nil {
			logger.Warn("failed to record entry context", "symbol", candidate.Symbol, "error", err)
		}
	}
}

func (e *Engine) persist(ctx context.Context, logger *logging.Logger, result *CycleResult, bySymbol map[string][]signal.Signal) {
	if e.history == nil {
		return
	}

	record := store.CycleRecord{
		ID:             result.CycleID,
		StartedAt:      result.StartedAt,
		FinishedAt:     time.Now(),
		SignalCount:    len(result.Signals),
		SymbolCount:    len(bySymbol),
		EntryCount:     len(result.Entries),
		ExitCount:      len(result.Exits),
		BudgetRemained: e.confirmer.BudgetRemaining(ctx),
	}
	if err := e.history.SaveCycle(ctx, record); err != nil {
		logger.Warn("failed to persist cycle record", "error", err)
		return
	}
	if err := e.history.SaveSignals(ctx, result.CycleID, result.Signals); err != nil {
		logger.Warn("failed to persist signals", "error", err)
	}
	if err := e.history.SaveEntries(ctx, result.CycleID, result.Entries); err != nil {
		logger.Warn("failed to persist entries", "error", err)
	}
	if err := e.history.SaveExits(ctx, result.CycleID, result.Exits); err != nil {
		logger.Warn("failed to persist exits", "error", err)
	}
	if err := e.history.SaveStaleness(ctx, result.CycleID, result.Staleness); err != nil {
		logger.Warn("failed to persist staleness snapshot", "error", err)
	}
}

// aggregateSentiment is the volume-weighted mean sentiment across one
// symbol's signals, used as the existing-signal strength fed to the
// confirmation layer.
func aggregateSentiment(signals []signal.Signal) float64 {
	var sum float64
	var volume int
	for _, sig := range signals {
		sum += sig.Sentiment * float64(sig.Volume)
		volume += sig.Volume
	}
	if volume == 0 {
		return 0
	}
	return sum / float64(volume)
}
