package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"exec-engine/internal/blotter"
	"exec-engine/internal/interfaces"
	"exec-engine/internal/logger"
	"exec-engine/internal/risk"
	"exec-engine/internal/sizing"
	"exec-engine/internal/store"
	"exec-engine/internal/strategy"
	"exec-engine/internal/tradelog"
	"exec-engine/internal/types"
)

// Engine states.
const (
	StateHalted  = "HALTED"
	StateRunning = "RUNNING"
)

// Confidence range synthesized for auto-generated trades.
const (
	autoConfidenceMin = 60.0
	autoConfidenceMax = 98.0
)

// controller orchestrates the engine: it commits market snapshots, fans
// them out to the blotters, synthesizes trades while running, and routes
// manual orders through the gateway.
//
// A single mutex serializes every state mutation, so tick callbacks and
// external commands can arrive from any goroutine. The gateway network
// call is the one suspension point and runs with the mutex released so
// it never blocks the tick timers.
type controller struct {
	mu sync.Mutex

	symbol    string
	venue     string
	entryProb float64
	rng       *rand.Rand

	running bool

	profile strategy.Profile
	riskCfg types.RiskConfig
	posCfg  types.PositionConfig

	winRate     float64
	profitRatio float64

	snap     types.MarketSnapshot
	book     types.OrderBook
	haveSnap bool

	exec       *blotter.Blotter // execution blotter: every trade, capped tight
	manualFeed *blotter.Blotter // manual fills only, longer history

	gateway interfaces.OrderGateway
}

func newController(cfg *store.Config, gw interfaces.OrderGateway, rng *rand.Rand) *controller {
	return &controller{
		symbol:      cfg.Symbol,
		venue:       cfg.Venue,
		entryProb:   cfg.Engine.EntryProbability,
		rng:         rng,
		profile:     strategy.Profile(cfg.Profile),
		riskCfg:     cfg.Risk,
		posCfg:      cfg.Position,
		winRate:     cfg.Advisory.WinRate,
		profitRatio: cfg.Advisory.ProfitRatio,
		exec:        blotter.New(cfg.Blotter.AutoCap),
		manualFeed:  blotter.New(cfg.Blotter.ManualCap),
		gateway:     gw,
	}
}

func (c *controller) Engage(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	logger.Info(ctx, "Engine engaged", "state", StateRunning, "symbol", c.symbol)
}

// Halt stops future trade generation immediately. In-flight manual
// submissions complete, and recorded trades stay in the blotter.
func (c *controller) Halt(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	logger.Info(ctx, "Engine halted", "state", StateHalted, "symbol", c.symbol)
}

func (c *controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// OnMarketTick commits the snapshot and refreshes P&L across both feeds.
// A malformed snapshot is not committed: the previous snapshot and all
// P&L values stand, and the error is reported upstream. Tick errors never
// stop the scheduler.
func (c *controller) OnMarketTick(ctx context.Context, snap types.MarketSnapshot, book types.OrderBook) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !snap.Valid() {
		logger.Warn(ctx, "Skipping malformed market tick",
			"event", "INVALID_SNAPSHOT",
			"price", snap.Price,
		)
		return fmt.Errorf("market tick rejected: %w", types.ErrInvalidSnapshot)
	}

	c.snap = snap
	c.book = book
	c.haveSnap = true

	if err := c.exec.Tick(snap); err != nil {
		return err
	}
	return c.manualFeed.Tick(snap)
}

// OnTradeTick draws the Bernoulli entry gate and, on success, synthesizes
// one trade from the most recently committed snapshot. Returns the recorded
// trade, or nil when no trade was generated this tick. The internal blotter
// always accepts, so there is no failure path while running.
func (c *controller) OnTradeTick(ctx context.Context) (*types.Trade, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || !c.haveSnap {
		return nil, nil
	}
	if c.rng.Float64() >= c.entryProb {
		return nil, nil
	}

	confidence := autoConfidenceMin + c.rng.Float64()*(autoConfidenceMax-autoConfidenceMin)
	side := c.pickSide(confidence)

	margin := sizing.Size(confidence, c.posCfg, c.riskCfg, c.profile, c.snap)
	notional := sizing.Notional(margin, c.riskCfg.Leverage)
	amount := sizing.Amount(notional, c.snap.Price)
	if amount <= 0 {
		return nil, nil
	}

	tr := types.Trade{
		ID:            uuid.NewString(),
		Symbol:        c.symbol,
		Side:          side,
		Amount:        amount,
		EntryPrice:    c.snap.Price,
		CreatedAt:     time.Now(),
		Status:        types.StatusFilled,
		ConfidencePct: confidence,
		Leverage:      c.riskCfg.Leverage,
		EntrySnapshot: c.snap,
	}
	c.exec.Record(tr)

	logger.Trade(ctx, tr.Symbol, tr.Side.String(), tr.Amount, tr.EntryPrice, tr.ID,
		"confidence", confidence,
		"margin", margin,
		"notional", notional,
		"leverage", tr.Leverage,
	)
	_ = tradelog.Append(tradelog.Entry{
		TradeID:    tr.ID,
		Symbol:     tr.Symbol,
		Side:       tr.Side.String(),
		Amount:     tr.Amount,
		Price:      tr.EntryPrice,
		Leverage:   tr.Leverage,
		Confidence: confidence,
		Source:     "AUTO",
	})

	return &tr, nil
}

// pickSide models noisy-but-skilled execution: with probability
// confidence/100 the trade aligns with the current trend sign, otherwise it
// takes the opposite side.
func (c *controller) pickSide(confidence float64) types.Side {
	aligned := types.Buy
	if c.snap.Trend < 0 {
		aligned = types.Sell
	}
	if c.rng.Float64()*100 < confidence {
		return aligned
	}
	return aligned.Opposite()
}

// SubmitManualOrder routes an order through the external gateway. The
// blotter is only touched after the gateway acknowledges: a rejection
// surfaces as an error and leaves all local state unchanged. Manual orders
// carry fixed 100% confidence but flow through the same margin/leverage
// accounting as generated trades.
func (c *controller) SubmitManualOrder(ctx context.Context, req types.OrderReq) (*types.Trade, error) {
	c.mu.Lock()
	if !c.haveSnap && req.Price <= 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("no market price available: %w", types.ErrInvalidSnapshot)
	}

	price := req.Price
	if price <= 0 {
		price = c.snap.Price
	}
	if req.Symbol == "" {
		req.Symbol = c.symbol
	}
	if req.Venue == "" {
		req.Venue = c.venue
	}
	leverage := c.riskCfg.Leverage
	amount := req.Amount
	if amount <= 0 {
		margin := sizing.Size(100, c.posCfg, c.riskCfg, c.profile, c.snap)
		amount = sizing.Amount(sizing.Notional(margin, leverage), price)
	}
	req.Amount = amount
	if req.Price <= 0 && req.Type != types.OrderMarket {
		req.Price = price
	}
	snap := c.snap
	c.mu.Unlock()

	// Network boundary: no lock held, tick timers keep firing.
	resp, err := c.gateway.SubmitOrder(ctx, req)
	if err != nil {
		logger.Risk(ctx, req.Symbol, "MANUAL_ORDER_REJECTED",
			"side", req.Side.String(),
			"amount", req.Amount,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", types.ErrGatewayRejected, err)
	}

	fillPrice := resp.FilledPrice
	if fillPrice <= 0 {
		fillPrice = price
	}
	fillAmount := resp.FilledAmount
	if fillAmount <= 0 {
		fillAmount = amount
	}

	tr := types.Trade{
		ID:            resp.OrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Amount:        fillAmount,
		EntryPrice:    fillPrice,
		CreatedAt:     time.Now(),
		Status:        types.StatusFilled,
		ConfidencePct: 100,
		Leverage:      leverage,
		EntrySnapshot: snap,
	}

	c.mu.Lock()
	c.exec.Record(tr)
	c.manualFeed.Record(tr)
	c.mu.Unlock()

	logger.Trade(ctx, tr.Symbol, tr.Side.String(), tr.Amount, tr.EntryPrice, tr.ID,
		"source", "MANUAL",
		"gateway_status", resp.Status,
	)
	_ = tradelog.Append(tradelog.Entry{
		TradeID:    tr.ID,
		Symbol:     tr.Symbol,
		Side:       tr.Side.String(),
		Amount:     tr.Amount,
		Price:      tr.EntryPrice,
		Leverage:   tr.Leverage,
		Confidence: 100,
		Source:     "MANUAL",
	})

	return &tr, nil
}

// SetRiskConfig replaces the risk config after range validation. Invalid
// updates are rejected and the prior valid config stays in effect.
func (c *controller) SetRiskConfig(ctx context.Context, cfg types.RiskConfig) error {
	if err := cfg.Validate(); err != nil {
		logger.Warn(ctx, "Risk config update rejected", "error", err)
		return err
	}
	c.mu.Lock()
	c.riskCfg = cfg
	c.mu.Unlock()
	logger.Info(ctx, "Risk config updated",
		"leverage", cfg.Leverage,
		"dynamic_mode", string(cfg.DynamicMode),
	)
	return nil
}

func (c *controller) SetPositionConfig(ctx context.Context, cfg types.PositionConfig) error {
	if err := cfg.Validate(); err != nil {
		logger.Warn(ctx, "Position config update rejected", "error", err)
		return err
	}
	c.mu.Lock()
	c.posCfg = cfg
	c.mu.Unlock()
	logger.Info(ctx, "Position config updated",
		"model", string(cfg.Model),
		"base_size", cfg.BaseSize,
		"max_size", cfg.MaxSize,
	)
	return nil
}

func (c *controller) SetProfile(ctx context.Context, p strategy.Profile) error {
	if !p.Valid() {
		return fmt.Errorf("%w: unknown profile %q", types.ErrConfigOutOfRange, p)
	}
	c.mu.Lock()
	c.profile = p
	c.mu.Unlock()
	logger.Info(ctx, "Strategy profile updated", "profile", string(p))
	return nil
}

func (c *controller) CurrentSnapshot() (types.MarketSnapshot, types.OrderBook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.book
}

func (c *controller) OpenTrades() []types.Trade {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exec.Visible()
}

func (c *controller) ManualTrades() []types.Trade {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualFeed.Visible()
}

func (c *controller) RiskSummary() risk.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return risk.BuildSummary(c.riskCfg, c.profile, c.snap, c.winRate, c.profitRatio)
}

func (c *controller) SortBlotterBy(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exec.SortBy(key)
}

func (c *controller) ExportCSV() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exec.ExportCSV()
}
