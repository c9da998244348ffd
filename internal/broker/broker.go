// Package broker exposes the brokerage capability consumed by the decision
// engine: account balances, position snapshots, asset tradability, and
// crypto price snapshots. Order execution lives outside this engine.
package broker

import "context"

// Account holds the balances relevant to position sizing
type Account struct {
	Cash        float64 `json:"cash"`
	Equity      float64 `json:"equity"`
	BuyingPower float64 `json:"buying_power"`
}

// Position is a snapshot of one held position
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           float64 `json:"qty"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	IsOption      bool    `json:"is_option"`
}

// Snapshot is a crypto price snapshot: latest trade plus previous daily close
type Snapshot struct {
	Price          float64 `json:"price"`
	PrevDailyClose float64 `json:"prev_daily_close"`
}

// Client is the brokerage capability surface
type Client interface {
	GetAccount(ctx context.Context) (*Account, error)
	GetPositions(ctx context.Context) ([]Position, error)
	IsTradable(ctx context.Context, symbol string) (bool, error)
	GetCryptoSnapshots(ctx context.Context, symbols []string) (map[string]Snapshot, error)
}

// CostBasisPLPct computes P&L percent relative to cost basis, derived from
// market value and unrealized P&L rather than a separately stored basis.
func CostBasisPLPct(p Position) float64 {
	basis := p.MarketValue - p.UnrealizedPL
	if basis == 0 {
		return 0
	}
	return p.UnrealizedPL / basis * 100
}
