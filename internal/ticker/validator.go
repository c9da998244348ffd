package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"signal-engine/internal/logging"
)

// Fetcher performs an HTTP GET and returns body and status code
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error)
}

// AssetLookup is the external tradability check, supplied by the broker
type AssetLookup interface {
	IsTradable(ctx context.Context, symbol string) (bool, error)
}

// directoryEntry matches the company-name-to-ticker JSON directory format
type directoryEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Validator decides whether an extracted token is a real, tradable
// instrument. It keeps two tiers: an authoritative ticker set refreshed at
// most once per 24h window, and a lazily populated per-symbol validation
// cache. A symbol in the authoritative set never triggers the external
// tradability probe, and a cached negative is sticky for the process
// lifetime.
type Validator struct {
	mu            sync.RWMutex
	authoritative map[string]string // ticker -> company title
	lastRefresh   time.Time
	validated     map[string]bool

	refreshInterval time.Duration
	directoryURL    string
	fetcher         Fetcher
	sf              singleflight.Group
	logger          *logging.Logger
}

// NewValidator creates a validator with an empty cache
func NewValidator(fetcher Fetcher, directoryURL string, logger *logging.Logger) *Validator {
	return &Validator{
		authoritative:   make(map[string]string),
		validated:       make(map[string]bool),
		refreshInterval: 24 * time.Hour,
		directoryURL:    directoryURL,
		fetcher:         fetcher,
		logger:          logger.WithComponent("ticker-validator"),
	}
}

// RefreshAuthoritativeIfStale refreshes the authoritative ticker set if the
// last refresh is older than the 24h window. On any failure the previous
// set is retained untouched; a transient outage never empties a working
// cache.
func (v *Validator) RefreshAuthoritativeIfStale(ctx context.Context) {
	v.mu.RLock()
	fresh := time.Since(v.lastRefresh) < v.refreshInterval && len(v.authoritative) > 0
	v.mu.RUnlock()
	if fresh {
		return
	}

	body, status, err := v.fetcher.Fetch(ctx, v.directoryURL, map[string]string{
		"User-Agent": "signal-engine/1.0",
	})
	if err != nil {
		v.logger.Warn("authoritative list refresh failed, keeping previous set", "error", err)
		return
	}
	if status != 200 {
		v.logger.Warn("authoritative list refresh returned non-OK, keeping previous set", "status", status)
		return
	}

	var directory map[string]directoryEntry
	if err := json.Unmarshal(body, &directory); err != nil {
		v.logger.Warn("authoritative list payload malformed, keeping previous set", "error", err)
		return
	}
	if len(directory) == 0 {
		v.logger.Warn("authoritative list payload empty, keeping previous set")
		return
	}

	replacement := make(map[string]string, len(directory))
	for _, entry := range directory {
		if entry.Ticker == "" {
			continue
		}
		replacement[strings.ToUpper(entry.Ticker)] = entry.Title
	}

	v.mu.Lock()
	v.authoritative = replacement
	v.lastRefresh = time.Now()
	v.mu.Unlock()

	v.logger.Info("authoritative ticker list refreshed", "symbols", len(replacement))
}

// IsKnownAuthoritative reports whether a symbol is in the current
// authoritative set. Case-insensitive, no I/O.
func (v *Validator) IsKnownAuthoritative(symbol string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.authoritative[strings.ToUpper(symbol)]
	return ok
}

// CachedValidation returns a previously cached tradability result. The
// second return is false when the symbol has never been queried, which is
// distinct from a cached negative.
func (v *Validator) CachedValidation(symbol string) (bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	result, ok := v.validated[strings.ToUpper(symbol)]
	return result, ok
}

// SetCachedValidation stores a tradability result for a symbol
func (v *Validator) SetCachedValidation(symbol string, tradable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.validated[strings.ToUpper(symbol)] = tradable
}

// ValidateExternally returns the cached tradability result when present,
// otherwise performs the external check and caches the outcome, negatives
// included. Any I/O failure caches and returns false (fail-closed).
// Concurrent callers asking about the same unseen symbol share one probe.
func (v *Validator) ValidateExternally(ctx context.Context, symbol string, lookup AssetLookup) bool {
	sym := strings.ToUpper(symbol)

	if cached, ok := v.CachedValidation(sym); ok {
		return cached
	}

	result, _, _ := v.sf.Do(sym, func() (interface{}, error) {
		// Re-check under singleflight: a concurrent caller may have
		// populated the cache while this call waited.
		if cached, ok := v.CachedValidation(sym); ok {
			return cached, nil
		}

		tradable, err := lookup.IsTradable(ctx, sym)
		if err != nil {
			v.logger.Debug("external tradability check failed, caching negative", "symbol", sym, "error", err)
			tradable = false
		}
		v.SetCachedValidation(sym, tradable)
		return tradable, nil
	})

	tradable, _ := result.(bool)
	return tradable
}

// Validate reports whether a symbol is a real, tradable instrument.
// Authoritative-list membership short-circuits the external probe.
func (v *Validator) Validate(ctx context.Context, symbol string, lookup AssetLookup) bool {
	if v.IsKnownAuthoritative(symbol) {
		return true
	}
	return v.ValidateExternally(ctx, symbol, lookup)
}

// ResolveCompany resolves a free-text company name to a ticker by prefix
// and substring matching against the authoritative list. Returns false when
// nothing matches.
func (v *Validator) ResolveCompany(name string) (string, bool) {
	needle := normalizeCompany(name)
	if needle == "" {
		return "", false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var substringMatch string
	for tkr, title := range v.authoritative {
		candidate := normalizeCompany(title)
		if candidate == needle {
			return tkr, true
		}
		if strings.HasPrefix(candidate, needle) || strings.HasPrefix(needle, candidate) {
			return tkr, true
		}
		if substringMatch == "" && (strings.Contains(candidate, needle) || strings.Contains(needle, candidate)) {
			substringMatch = tkr
		}
	}
	if substringMatch != "" {
		return substringMatch, true
	}
	return "", false
}

// normalizeCompany lower-cases a company name and strips common corporate
// suffixes so "Apple Inc." matches "APPLE INC".
func normalizeCompany(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.TrimSuffix(lower, ".")
	for _, suffix := range []string{" incorporated", " inc", " corporation", " corp", " company", " co", " ltd", " plc", " llc", " holdings", " group"} {
		lower = strings.TrimSuffix(lower, suffix)
	}
	return strings.TrimSpace(lower)
}

// AuthoritativeSize returns the number of symbols in the authoritative set
func (v *Validator) AuthoritativeSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.authoritative)
}

// String implements fmt.Stringer for debug logging
func (v *Validator) String() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return fmt.Sprintf("Validator{authoritative=%d validated=%d lastRefresh=%s}",
		len(v.authoritative), len(v.validated), v.lastRefresh.Format(time.RFC3339))
}
