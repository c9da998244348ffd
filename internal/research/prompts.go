package research

import (
	"fmt"
	"strings"

	"signal-engine/internal/confirm"
	"signal-engine/internal/signal"
)

const analystSystemPrompt = `You are a disciplined trading analyst. You receive aggregated social,
filing and momentum signals for one symbol and decide whether the setup is
worth an entry right now.

Respond with a single JSON object and nothing else:
{
  "verdict": "BUY" | "SKIP" | "WAIT",
  "confidence": 0.0-1.0,
  "entry_quality": "strong" | "moderate" | "weak",
  "reasoning": "one or two sentences"
}

Rules:
- BUY only when multiple independent sources agree and freshness is high.
- WAIT when the thesis is plausible but timing or confirmation is missing.
- SKIP manipulated-looking, stale, or single-source hype.
- Confidence reflects how much you would stake on the verdict, not on the
  direction alone.`

// buildUserPrompt renders the per-symbol evidence block fed to the analyst
func buildUserPrompt(symbol string, signals []signal.Signal, confirmation *confirm.Confirmation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\n\nSignals:\n", strings.ToUpper(symbol))
	for _, sig := range signals {
		fmt.Fprintf(&b, "- source=%s detail=%s sentiment=%.3f raw=%.3f volume=%d freshness=%.2f reason=%q\n",
			sig.Source, sig.SourceDetail, sig.Sentiment, sig.RawSentiment,
			sig.Volume, sig.Freshness, sig.Reason)
		if sig.Source == signal.SourceMomentum {
			fmt.Fprintf(&b, "  momentum=%.2f%% price=%.2f\n", sig.Momentum, sig.Price)
		}
	}

	if confirmation != nil {
		fmt.Fprintf(&b, "\nSocial confirmation (%d tweets, weighted sentiment %.3f, agrees=%v):\n",
			confirmation.TweetCount, confirmation.Sentiment, confirmation.ConfirmsExisting)
		for _, h := range confirmation.Highlights {
			fmt.Fprintf(&b, "- %q\n", h)
		}
	} else {
		b.WriteString("\nNo social confirmation was available for this symbol.\n")
	}

	b.WriteString("\nReturn your verdict JSON now.")
	return b.String()
}
