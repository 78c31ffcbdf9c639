package interfaces

import (
	"context"

	"exec-engine/internal/risk"
	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

// Controller is the engine boundary consumed by the scheduler loop and the
// command API.
type Controller interface {
	// Lifecycle.
	Engage(ctx context.Context)
	Halt(ctx context.Context)
	Running() bool

	// Tick fan-out. OnMarketTick commits a snapshot and refreshes blotter
	// P&L; OnTradeTick may synthesize one trade while running.
	OnMarketTick(ctx context.Context, snap types.MarketSnapshot, book types.OrderBook) error
	OnTradeTick(ctx context.Context) (*types.Trade, error)

	// Manual path. The gateway is consulted before the blotter is touched.
	SubmitManualOrder(ctx context.Context, req types.OrderReq) (*types.Trade, error)

	// Configuration commands. Out-of-range updates are rejected and the
	// prior valid config is retained.
	SetRiskConfig(ctx context.Context, cfg types.RiskConfig) error
	SetPositionConfig(ctx context.Context, cfg types.PositionConfig) error
	SetProfile(ctx context.Context, p strategy.Profile) error

	// Read-only views for presentation.
	CurrentSnapshot() (types.MarketSnapshot, types.OrderBook)
	OpenTrades() []types.Trade
	ManualTrades() []types.Trade
	RiskSummary() risk.Summary

	// Blotter commands.
	SortBlotterBy(key string)
	ExportCSV() ([]byte, error)
}
