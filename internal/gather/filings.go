package gather

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"signal-engine/internal/logging"
	"signal-engine/internal/signal"
)

// FilingsGatherer reads the regulatory-filing ATOM feed and scores filings
// by form type and age. Company names are resolved to tickers against the
// authoritative list, with a process-lifetime resolution cache.
type FilingsGatherer struct {
	deps   *Deps
	logger *logging.Logger

	mu           sync.Mutex
	resolveCache map[string]string // normalized company name -> ticker; resolveMiss marks a cached negative
}

// resolveMiss is the cached-negative sentinel: the name was looked up and
// nothing matched, so it is never looked up again.
const resolveMiss = "\x00"

// filingTitlePattern parses "8-K - Apple Inc. (0000320193) (Filer)"
var filingTitlePattern = regexp.MustCompile(`^([A-Z0-9/\-]+(?:\s[A-Z0-9/\-]+)?)\s+-\s+(.+?)\s+\(\d`)

// formSentiment scores filing form types by their typical price impact
// direction. Forms not listed are ignored.
var formSentiment = map[string]float64{
	"8-K":    0.2,
	"8-K/A":  0.1,
	"4":      0.3,
	"SC 13D": 0.5,
	"SC 13G": 0.4,
	"13F-HR": 0.2,
	"10-Q":   0.1,
	"10-K":   0.1,
	"S-1":    0.15,
	"S-3":    -0.2,
	"424B5":  -0.3,
}

type filingEntry struct {
	id      string
	title   string
	updated time.Time
}

// NewFilingsGatherer creates the filings gatherer
func NewFilingsGatherer(deps *Deps) *FilingsGatherer {
	return &FilingsGatherer{
		deps:         deps,
		logger:       deps.Logger.WithComponent("gather-filings"),
		resolveCache: make(map[string]string),
	}
}

func (g *FilingsGatherer) Name() string { return "filing" }

// Gather fetches the filings feed, parses each entry, and aggregates
// per-ticker signals. A malformed entry is skipped, never fatal.
func (g *FilingsGatherer) Gather(ctx context.Context) []signal.Signal {
	body, status, err := g.deps.Fetcher.Fetch(ctx, g.deps.Gather.FilingsFeedURL, map[string]string{
		"Accept": "application/atom+xml",
	})
	if err != nil {
		g.logger.Warn("filings feed fetch failed", "error", err)
		return nil
	}
	if status != 200 {
		g.logger.Warn("filings feed non-OK", "status", status)
		return nil
	}

	entries := parseAtomEntries(body)
	now := time.Now()
	weight := g.deps.sourceWeight("filing")

	type filingAggregate struct {
		count       int
		sumRaw      float64
		sumWeighted float64
		forms       map[string]struct{}
		freshest    time.Time
		bestFresh   float64
	}
	aggregates := make(map[string]*filingAggregate)

	for _, entry := range entries {
		form, company, ok := parseFilingTitle(entry.title)
		if !ok {
			continue
		}
		raw, scored := formSentiment[form]
		if !scored {
			continue
		}

		sym, resolved := g.resolveCompany(company)
		if !resolved {
			g.logger.Debug("company unresolved, skipping filing", "company", company)
			continue
		}

		fresh := filingFreshness(now.Sub(entry.updated))

		agg, ok := aggregates[sym]
		if !ok {
			agg = &filingAggregate{forms: make(map[string]struct{})}
			aggregates[sym] = agg
		}
		agg.count++
		agg.sumRaw += raw
		agg.sumWeighted += raw * fresh * weight
		agg.forms[form] = struct{}{}
		if entry.updated.After(agg.freshest) {
			agg.freshest = entry.updated
			agg.bestFresh = fresh
		}
	}

	var signals []signal.Signal
	for sym, agg := range aggregates {
		if !g.deps.Validator.Validate(ctx, sym, g.deps.Lookup) {
			g.logger.Debug("symbol failed validation, dropping", "symbol", sym)
			continue
		}

		forms := make([]string, 0, len(agg.forms))
		for f := range agg.forms {
			forms = append(forms, f)
		}

		signals = append(signals, signal.Signal{
			Symbol:       sym,
			Source:       signal.SourceFiling,
			SourceDetail: strings.Join(forms, ","),
			Sentiment:    agg.sumWeighted / float64(agg.count),
			RawSentiment: agg.sumRaw / float64(agg.count),
			Volume:       agg.count,
			Freshness:    agg.bestFresh,
			SourceWeight: weight,
			Reason:       fmt.Sprintf("%d filing(s): %s", agg.count, strings.Join(forms, ", ")),
			Timestamp:    now,
		})
	}
	return signals
}

// resolveCompany maps a company name to a ticker, consulting the cache
// first. Unresolvable names are cached with a negative sentinel so they are
// not re-resolved every cycle.
func (g *FilingsGatherer) resolveCompany(company string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(company))

	g.mu.Lock()
	cached, ok := g.resolveCache[key]
	g.mu.Unlock()
	if ok {
		if cached == resolveMiss {
			return "", false
		}
		return cached, true
	}

	sym, resolved := g.deps.Validator.ResolveCompany(company)

	g.mu.Lock()
	if resolved {
		g.resolveCache[key] = sym
	} else {
		g.resolveCache[key] = resolveMiss
	}
	g.mu.Unlock()

	return sym, resolved
}

// parseFilingTitle splits a feed title into form type and company name
func parseFilingTitle(title string) (form, company string, ok bool) {
	m := filingTitlePattern.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// filingFreshness buckets a filing's age into a freshness weight
func filingFreshness(age time.Duration) float64 {
	switch {
	case age <= time.Hour:
		return 1.0
	case age <= 4*time.Hour:
		return 0.8
	case age <= 12*time.Hour:
		return 0.6
	case age <= 24*time.Hour:
		return 0.45
	default:
		return 0.3
	}
}

// parseAtomEntries extracts id, title and updated from each feed entry
// using streaming XML tokens; self-closing and nested tags inside entries
// are tolerated.
func parseAtomEntries(body []byte) []filingEntry {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false

	var entries []filingEntry
	var current *filingEntry
	var field string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "entry":
				current = &filingEntry{}
			case "id", "title", "updated":
				if current != nil {
					field = t.Name.Local
				}
			}
		case xml.CharData:
			if current == nil || field == "" {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch field {
			case "id":
				current.id += text
			case "title":
				current.title += text
			case "updated":
				if ts, err := time.Parse(time.RFC3339, text); err == nil {
					current.updated = ts
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "id", "title", "updated":
				field = ""
			case "entry":
				if current != nil && current.title != "" {
					entries = append(entries, *current)
				}
				current = nil
			}
		}
	}
	return entries
}
