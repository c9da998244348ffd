// Package ticker extracts candidate ticker symbols from free text and
// decides whether a candidate is a real, tradable instrument.
package ticker

import (
	"regexp"
	"strings"
)

var (
	// Explicit cashtag: $ followed by 1-5 letters.
	cashtagPattern = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)

	// Bare uppercase token immediately followed by a trading-context
	// keyword. Context keywords keep bare extraction from flagging every
	// uppercase word in a post.
	contextPattern = regexp.MustCompile(`\b([A-Z]{2,5})\s+(?i:calls?|puts?|moon|moons|moonin|mooning|buy|sell|shares?|stock|yolo|leaps?|squeeze|rocket|dip|gang|bull|bear|earnings)\b`)
)

// Extract pulls ticker-like tokens out of free text. Candidates outside
// [2,5] letters, in the static blacklist, or in the caller's custom
// blacklist are rejected. Returns a deduplicated, unordered set.
func Extract(text string, customBlacklist []string) map[string]bool {
	custom := make(map[string]struct{}, len(customBlacklist))
	for _, w := range customBlacklist {
		custom[strings.ToUpper(w)] = struct{}{}
	}

	found := make(map[string]bool)
	add := func(candidate string) {
		sym := strings.ToUpper(candidate)
		if len(sym) < 2 || len(sym) > 5 {
			return
		}
		if _, blocked := defaultBlacklist[sym]; blocked {
			return
		}
		if _, blocked := custom[sym]; blocked {
			return
		}
		found[sym] = true
	}

	for _, m := range cashtagPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range contextPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return found
}
