package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"signal-engine/config"
)

// message is one chat turn
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type completionResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// HTTPCompleter calls a messages-style completion API
type HTTPCompleter struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

// NewHTTPCompleter creates the production Completer
func NewHTTPCompleter(cfg config.LLMConfig) *HTTPCompleter {
	return &HTTPCompleter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, TokenUsage, error) {
	reqBody := completionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		System:      systemPrompt,
		Messages:    []message{{Role: "user", Content: userPrompt}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("failed to read completion response: %w", err)
	}

	var completion completionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", TokenUsage{}, fmt.Errorf("invalid completion response: %w", err)
	}
	if completion.Error != nil {
		return "", TokenUsage{}, fmt.Errorf("completion API error: %s", completion.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", TokenUsage{}, fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}
	if len(completion.Content) == 0 {
		return "", TokenUsage{}, fmt.Errorf("completion returned no content")
	}

	usage := TokenUsage{
		PromptTokens:     completion.Usage.InputTokens,
		CompletionTokens: completion.Usage.OutputTokens,
	}
	return completion.Content[0].Text, usage, nil
}

// DisabledCompleter answers every request with a WAIT verdict. Wired when
// research is turned off so the engine still runs end to end without ever
// recommending an entry.
type DisabledCompleter struct{}

func (DisabledCompleter) Complete(_ context.Context, _, _ string) (string, TokenUsage, error) {
	return `{"verdict":"WAIT","confidence":0,"entry_quality":"weak","reasoning":"research disabled"}`, TokenUsage{}, nil
}
