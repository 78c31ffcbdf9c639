package types

import (
	"math"
	"time"
)

// Side is the direction of a trade. The integer value doubles as the sign
// multiplier in P&L math: Buy=+1, Sell=-1.
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Sign returns the P&L direction multiplier for the side.
func (s Side) Sign() float64 { return float64(s) }

// Opposite returns the other side.
func (s Side) Opposite() Side { return -s }

type TradeStatus string

const (
	StatusPending   TradeStatus = "PENDING"
	StatusFilled    TradeStatus = "FILLED"
	StatusCancelled TradeStatus = "CANCELLED"
	StatusRejected  TradeStatus = "REJECTED"
)

type OrderType string

const (
	OrderLimit  OrderType = "LIMIT"
	OrderMarket OrderType = "MARKET"
	OrderStop   OrderType = "STOP"
)

// MarketSnapshot is one immutable observation of the simulated market.
// A new value supersedes the previous one each tick; nothing mutates it.
type MarketSnapshot struct {
	Price           float64 `json:"price"`
	VolatilityIndex float64 `json:"volatility_index"` // clamped to [0.8, 2.5]
	ATR             float64 `json:"atr"`
	Trend           float64 `json:"trend"` // clamped to [-1, 1]
	LatencyMs       float64 `json:"latency_ms"`
	SlippagePct     float64 `json:"slippage_pct"`
	Timestamp       time.Time `json:"timestamp"`
}

// Valid reports whether the snapshot can be used for P&L recomputation.
func (m MarketSnapshot) Valid() bool {
	return m.Price > 0 && !math.IsNaN(m.Price) && !math.IsInf(m.Price, 0)
}

// BookLevel is a single price/amount rung in the synthetic order book.
type BookLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// OrderBook is the display-only 5-level ladder derived around the tick price.
type OrderBook struct {
	Bids []BookLevel `json:"bids"` // sorted high to low
	Asks []BookLevel `json:"asks"` // sorted low to high
}

// Trade is a blotter record. PnL is the only mutable field; it is
// recomputed against each committed MarketSnapshot while the trade remains
// in the blotter.
type Trade struct {
	ID            string         `json:"id"`
	Symbol        string         `json:"symbol"`
	Side          Side           `json:"side"`
	Amount        float64        `json:"amount"`
	EntryPrice    float64        `json:"entry_price"`
	CreatedAt     time.Time      `json:"created_at"`
	Status        TradeStatus    `json:"status"`
	ConfidencePct float64        `json:"confidence_pct"` // [0, 100]
	Leverage      int            `json:"leverage"`       // [1, 200]
	PnL           float64        `json:"pnl"`
	EntrySnapshot MarketSnapshot `json:"entry_snapshot"`
}

type OrderReq struct {
	Symbol string
	Side   Side
	Type   OrderType
	Amount float64
	Price  float64 // ignored for MARKET orders
	Venue  string
}

type OrderResp struct {
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	FilledPrice  float64 `json:"filled_price"`
	FilledAmount float64 `json:"filled_amount"`
}
