package confirm

import (
	"context"
	"sync"
	"time"

	"signal-engine/internal/logging"
	"signal-engine/internal/statestore"
)

const budgetStateKey = "twitter:read_budget"

// budgetState is persisted so a restart does not reset the daily window
type budgetState struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// readBudget enforces the daily read cap for the confirmation API. Reserve
// is check-then-increment under one lock, so concurrent confirmations can
// never overspend the window.
type readBudget struct {
	mu     sync.Mutex
	store  statestore.Store
	limit  int
	window time.Duration
	logger *logging.Logger
}

func newReadBudget(store statestore.Store, limit int, logger *logging.Logger) *readBudget {
	return &readBudget{
		store:  store,
		limit:  limit,
		window: 24 * time.Hour,
		logger: logger.WithComponent("confirm-budget"),
	}
}

// reserve claims one read from the current window. The window rolls over
// once its start is a full period in the past.
func (b *readBudget) reserve(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.load(ctx)
	now := time.Now()

	if now.Sub(state.WindowStart) >= b.window {
		state = budgetState{WindowStart: now}
	}
	if state.Count >= b.limit {
		return false
	}

	state.Count++
	if err := b.store.Set(ctx, budgetStateKey, state); err != nil {
		b.logger.Warn("failed to persist read budget", "error", err)
	}
	return true
}

// remaining reports how many reads are left in the current window
func (b *readBudget) remaining(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.load(ctx)
	if time.Since(state.WindowStart) >= b.window {
		return b.limit
	}
	left := b.limit - state.Count
	if left < 0 {
		return 0
	}
	return left
}

func (b *readBudget) load(ctx context.Context) budgetState {
	var state budgetState
	found, err := b.store.Get(ctx, budgetStateKey, &state)
	if err != nil {
		b.logger.Warn("failed to load read budget, starting fresh window", "error", err)
	}
	if !found || state.WindowStart.IsZero() {
		return budgetState{WindowStart: time.Now()}
	}
	return state
}
