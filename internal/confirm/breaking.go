package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Headline is one news tweet from the curated breaking-news account list
type Headline struct {
	Account  string        `json:"account"`
	Text     string        `json:"text"`
	Age      time.Duration `json:"age"`
	Breaking bool          `json:"breaking"` // under the breaking-news age line
}

const (
	breakingAge = 10 * time.Minute
	discardAge  = 30 * time.Minute
)

// BreakingNews sweeps the configured news accounts for recent headlines.
// Headlines older than the discard line are dropped; younger ones are
// flagged breaking when they fall inside the breaking window. One call
// spends one budgeted read.
func (c *Confirmer) BreakingNews(ctx context.Context) ([]Headline, error) {
	if !c.Enabled() || len(c.cfg.BreakingAccounts) == 0 {
		return nil, nil
	}
	if !c.budget.reserve(ctx) {
		return nil, ErrBudgetExhausted
	}

	clauses := make([]string, 0, len(c.cfg.BreakingAccounts))
	for _, acct := range c.cfg.BreakingAccounts {
		clauses = append(clauses, "from:"+acct)
	}

	query := url.Values{}
	query.Set("query", strings.Join(clauses, " OR "))
	query.Set("max_results", "25")
	query.Set("tweet.fields", "created_at,author_id")
	query.Set("expansions", "author_id")
	query.Set("user.fields", "username")

	body, status, err := c.fetcher.Fetch(ctx, c.cfg.SearchURL+"?"+query.Encode(), map[string]string{
		"Authorization": "Bearer " + c.cfg.BearerToken,
	})
	if err != nil {
		return nil, fmt.Errorf("breaking news fetch failed: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("breaking news fetch returned status %d", status)
	}

	var resp twitterSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("breaking news payload malformed: %w", err)
	}

	usernames := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		usernames[u.ID] = u.Username
	}

	now := time.Now()
	var headlines []Headline
	for _, tweet := range resp.Data {
		created, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			continue
		}
		age := now.Sub(created)
		if age > discardAge {
			continue
		}
		headlines = append(headlines, Headline{
			Account:  usernames[tweet.AuthorID],
			Text:     tweet.Text,
			Age:      age,
			Breaking: age < breakingAge,
		})
	}

	c.logger.Info("breaking news swept", "headlines", len(headlines))
	return headlines, nil
}
