package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signal-engine/config"
	"signal-engine/internal/logging"
)

// HTTPClient talks to an Alpaca-compatible brokerage REST API
type HTTPClient struct {
	baseURL    string
	dataURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPClient creates a brokerage client from configuration
func NewHTTPClient(cfg config.BrokerConfig, logger *logging.Logger) *HTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://paper-api.alpaca.markets"
	}
	dataURL := cfg.DataURL
	if dataURL == "" {
		dataURL = "https://data.alpaca.markets"
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		dataURL:   strings.TrimRight(dataURL, "/"),
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.WithComponent("broker"),
	}
}

func (c *HTTPClient) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// accountResponse carries numeric fields as strings, as the API returns them
type accountResponse struct {
	Cash        string `json:"cash"`
	Equity      string `json:"equity"`
	BuyingPower string `json:"buying_power"`
}

func (c *HTTPClient) GetAccount(ctx context.Context) (*Account, error) {
	body, status, err := c.get(ctx, c.baseURL+"/v2/account")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("account request returned %d", status)
	}

	var raw accountResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}

	return &Account{
		Cash:        parseFloat(raw.Cash),
		Equity:      parseFloat(raw.Equity),
		BuyingPower: parseFloat(raw.BuyingPower),
	}, nil
}

type positionResponse struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPL  string `json:"unrealized_pl"`
	AssetClass    string `json:"asset_class"`
}

func (c *HTTPClient) GetPositions(ctx context.Context) ([]Position, error) {
	body, status, err := c.get(ctx, c.baseURL+"/v2/positions")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("positions request returned %d", status)
	}

	var raw []positionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse positions: %w", err)
	}

	positions := make([]Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, Position{
			Symbol:        p.Symbol,
			Qty:           parseFloat(p.Qty),
			AvgEntryPrice: parseFloat(p.AvgEntryPrice),
			CurrentPrice:  parseFloat(p.CurrentPrice),
			MarketValue:   parseFloat(p.MarketValue),
			UnrealizedPL:  parseFloat(p.UnrealizedPL),
			IsOption:      p.AssetClass == "us_option",
		})
	}
	return positions, nil
}

type assetResponse struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
	Status   string `json:"status"`
}

func (c *HTTPClient) IsTradable(ctx context.Context, symbol string) (bool, error) {
	body, status, err := c.get(ctx, c.baseURL+"/v2/assets/"+url.PathEscape(symbol))
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("asset request returned %d", status)
	}

	var asset assetResponse
	if err := json.Unmarshal(body, &asset); err != nil {
		return false, fmt.Errorf("failed to parse asset: %w", err)
	}
	return asset.Tradable && asset.Status == "active", nil
}

type cryptoSnapshotResponse struct {
	Snapshots map[string]struct {
		LatestTrade struct {
			Price float64 `json:"p"`
		} `json:"latestTrade"`
		PrevDailyBar struct {
			Close float64 `json:"c"`
		} `json:"prevDailyBar"`
	} `json:"snapshots"`
}

func (c *HTTPClient) GetCryptoSnapshots(ctx context.Context, symbols []string) (map[string]Snapshot, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	body, status, err := c.get(ctx, c.dataURL+"/v1beta3/crypto/us/snapshots?"+query.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("crypto snapshots request returned %d", status)
	}

	var raw cryptoSnapshotResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse crypto snapshots: %w", err)
	}

	snapshots := make(map[string]Snapshot, len(raw.Snapshots))
	for sym, s := range raw.Snapshots {
		snapshots[sym] = Snapshot{
			Price:          s.LatestTrade.Price,
			PrevDailyClose: s.PrevDailyBar.Close,
		}
	}
	return snapshots, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
