// Package research turns aggregated signals into trade verdicts through an
// external language-model completion. The model call itself sits behind the
// Completer interface; this package owns prompt construction and response
// parsing only.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"signal-engine/internal/confirm"
	"signal-engine/internal/logging"
	"signal-engine/internal/signal"
)

// Verdict values produced by the analyst
const (
	VerdictBuy  = "BUY"
	VerdictSkip = "SKIP"
	VerdictWait = "WAIT"
)

// Entry quality tiers, strongest first
const (
	QualityStrong   = "strong"
	QualityModerate = "moderate"
	QualityWeak     = "weak"
)

// TokenUsage reports the cost of one completion
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Completer is the external language-model boundary
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, TokenUsage, error)
}

// Analysis is the parsed analyst verdict for one symbol
type Analysis struct {
	Symbol       string     `json:"symbol"`
	Verdict      string     `json:"verdict"`
	Confidence   float64    `json:"confidence"`
	EntryQuality string     `json:"entry_quality"`
	Reasoning    string     `json:"reasoning"`
	IsCrypto     bool       `json:"is_crypto"`
	Usage        TokenUsage `json:"usage"`
	AnalyzedAt   time.Time  `json:"analyzed_at"`
}

// Analyzer drives one research pass per candidate symbol
type Analyzer struct {
	completer Completer
	logger    *logging.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(completer Completer, logger *logging.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		logger:    logger.WithComponent("research"),
	}
}

// Analyze asks the analyst for a verdict on one symbol given its gathered
// signals and optional confirmation.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, signals []signal.Signal, confirmation *confirm.Confirmation) (*Analysis, error) {
	userPrompt := buildUserPrompt(symbol, signals, confirmation)

	raw, usage, err := a.completer.Complete(ctx, analystSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed for %s: %w", symbol, err)
	}

	analysis, err := ParseVerdict(raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable verdict for %s: %w", symbol, err)
	}

	analysis.Symbol = strings.ToUpper(symbol)
	analysis.Usage = usage
	analysis.AnalyzedAt = time.Now()
	for _, sig := range signals {
		if sig.IsCrypto {
			analysis.IsCrypto = true
			break
		}
	}

	a.logger.Info("analysis complete",
		"symbol", analysis.Symbol, "verdict", analysis.Verdict,
		"confidence", analysis.Confidence, "quality", analysis.EntryQuality)
	return analysis, nil
}

// ParseVerdict extracts the JSON verdict from a completion, tolerating
// markdown code fences around the payload.
func ParseVerdict(raw string) (*Analysis, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Fall back to the outermost braces when the model wraps the JSON in
	// prose.
	if !strings.HasPrefix(cleaned, "{") {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("no JSON object in completion")
		}
		cleaned = cleaned[start : end+1]
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("invalid verdict JSON: %w", err)
	}

	analysis.Verdict = strings.ToUpper(strings.TrimSpace(analysis.Verdict))
	switch analysis.Verdict {
	case VerdictBuy, VerdictSkip, VerdictWait:
	default:
		return nil, fmt.Errorf("unknown verdict %q", analysis.Verdict)
	}
	if analysis.Confidence < 0 || analysis.Confidence > 1 {
		return nil, fmt.Errorf("confidence %f out of range", analysis.Confidence)
	}

	analysis.EntryQuality = strings.ToLower(strings.TrimSpace(analysis.EntryQuality))
	switch analysis.EntryQuality {
	case QualityStrong, QualityModerate, QualityWeak:
	case "":
		analysis.EntryQuality = QualityWeak
	default:
		analysis.EntryQuality = QualityWeak
	}

	return &analysis, nil
}
