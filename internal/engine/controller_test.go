package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"testing"
	"time"

	"exec-engine/internal/logger"
	"exec-engine/internal/sizing"
	"exec-engine/internal/store"
	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

type stubGateway struct {
	resp  types.OrderResp
	err   error
	calls int
	last  types.OrderReq
}

func (s *stubGateway) SubmitOrder(_ context.Context, req types.OrderReq) (types.OrderResp, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return types.OrderResp{}, s.err
	}
	return s.resp, nil
}

func testConfig() *store.Config {
	cfg := &store.Config{Mode: "DRY_RUN", Symbol: "BTCUSDT", Venue: "BINANCE", Profile: string(strategy.Standard)}
	cfg.Engine.MarketTickMs = 2000
	cfg.Engine.TradeTickMs = 3000
	cfg.Engine.EntryProbability = 0.3
	cfg.Blotter.AutoCap = 15
	cfg.Blotter.ManualCap = 100
	cfg.Risk = types.RiskConfig{
		StopLossBasePct:   2.0,
		TakeProfitBasePct: 4.0,
		Leverage:          10,
		DynamicMode:       types.ModeFixed,
	}
	cfg.Position = types.PositionConfig{
		BaseSize:               1000,
		MaxSize:                50000,
		Model:                  types.SizingAIConfidence,
		AITrustFactor:          1.0,
		AggressivenessExponent: 2.0,
	}
	cfg.Advisory.WinRate = 0.55
	cfg.Advisory.ProfitRatio = 1.5
	return cfg
}

func testController(t *testing.T, cfg *store.Config, gw *stubGateway) *controller {
	t.Helper()
	t.Setenv("ENGINE_LOG_DIR", t.TempDir())
	if gw == nil {
		gw = &stubGateway{}
	}
	return newController(cfg, gw, rand.New(rand.NewSource(42)))
}

func validSnapshot() types.MarketSnapshot {
	return types.MarketSnapshot{
		Price:           64000,
		VolatilityIndex: 1.0,
		ATR:             145.50,
		Trend:           0.4,
		LatencyMs:       50,
		SlippagePct:     0.02,
		Timestamp:       time.Now(),
	}
}

func TestEngageHaltLifecycle(t *testing.T) {
	ctx := context.Background()
	c := testController(t, testConfig(), nil)

	if c.Running() {
		t.Fatal("controller must start halted")
	}
	c.Engage(ctx)
	if !c.Running() {
		t.Fatal("engage did not transition to running")
	}
	c.Engage(ctx) // idempotent
	if !c.Running() {
		t.Fatal("re-engage flipped state")
	}
	c.Halt(ctx)
	if c.Running() {
		t.Fatal("halt did not stop the engine")
	}
}

func TestHaltedEngineGeneratesNoTrades(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Engine.EntryProbability = 1.0
	c := testController(t, cfg, nil)

	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		tr, err := c.OnTradeTick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if tr != nil {
			t.Fatal("halted engine generated a trade")
		}
	}
	if len(c.OpenTrades()) != 0 {
		t.Fatalf("blotter not empty: %d trades", len(c.OpenTrades()))
	}
}

func TestTradeTickRequiresSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Engine.EntryProbability = 1.0
	c := testController(t, cfg, nil)
	c.Engage(ctx)

	tr, err := c.OnTradeTick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tr != nil {
		t.Fatal("trade generated before any market tick")
	}
}

func TestEntryGateProbabilityExtremes(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Engine.EntryProbability = 0
	never := testController(t, cfg, nil)
	if err := never.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	never.Engage(ctx)
	for i := 0; i < 50; i++ {
		if tr, _ := never.OnTradeTick(ctx); tr != nil {
			t.Fatal("probability 0 must never enter")
		}
	}

	cfg = testConfig()
	cfg.Engine.EntryProbability = 1.0
	always := testController(t, cfg, nil)
	if err := always.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	always.Engage(ctx)
	for i := 0; i < 10; i++ {
		tr, err := always.OnTradeTick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if tr == nil {
			t.Fatal("probability 1 must enter every tick")
		}
	}
}

func TestGeneratedTradeShape(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Engine.EntryProbability = 1.0
	c := testController(t, cfg, nil)
	snap := validSnapshot()
	if err := c.OnMarketTick(ctx, snap, types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	c.Engage(ctx)

	for i := 0; i < 25; i++ {
		tr, err := c.OnTradeTick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if tr == nil {
			t.Fatal("expected a trade each tick")
		}
		if tr.ConfidencePct < 60 || tr.ConfidencePct >= 98 {
			t.Errorf("confidence %.2f outside [60, 98)", tr.ConfidencePct)
		}
		if tr.Status != types.StatusFilled {
			t.Errorf("status %s, want FILLED", tr.Status)
		}
		if tr.ID == "" || tr.Symbol != "BTCUSDT" {
			t.Errorf("identity fields wrong: id=%q symbol=%q", tr.ID, tr.Symbol)
		}
		if tr.Leverage != 10 {
			t.Errorf("leverage %d, want 10", tr.Leverage)
		}
		if tr.EntryPrice != snap.Price {
			t.Errorf("entry price %.2f, want %.2f", tr.EntryPrice, snap.Price)
		}

		margin := sizing.Size(tr.ConfidencePct, cfg.Position, cfg.Risk, strategy.Standard, snap)
		wantAmount := margin * float64(tr.Leverage) / snap.Price
		if math.Abs(tr.Amount-wantAmount) > 1e-9 {
			t.Errorf("amount %.8f, want margin*leverage/price = %.8f", tr.Amount, wantAmount)
		}
	}
}

func TestBernoulliRateRoughlyMatchesProbability(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	c := testController(t, cfg, nil)
	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	c.Engage(ctx)

	const ticks = 400
	entered := 0
	for i := 0; i < ticks; i++ {
		tr, err := c.OnTradeTick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if tr != nil {
			entered++
		}
	}
	// p=0.3 over 400 draws; bounds are ~7 sigma wide.
	if entered < 60 || entered > 185 {
		t.Errorf("entered %d of %d ticks at p=0.3", entered, ticks)
	}
}

func TestInvalidMarketTickKeepsPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	c := testController(t, testConfig(), nil)
	snap := validSnapshot()
	if err := c.OnMarketTick(ctx, snap, types.OrderBook{}); err != nil {
		t.Fatal(err)
	}

	err := c.OnMarketTick(ctx, types.MarketSnapshot{Price: math.NaN()}, types.OrderBook{})
	if !errors.Is(err, types.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	got, _ := c.CurrentSnapshot()
	if got.Price != snap.Price {
		t.Errorf("snapshot replaced by invalid tick: %.2f", got.Price)
	}
}

func TestManualOrderRecordsOnGatewayFill(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{resp: types.OrderResp{OrderID: "GW-1", Status: "FILLED", FilledPrice: 64010, FilledAmount: 0.5}}
	c := testController(t, testConfig(), gw)
	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}

	tr, err := c.SubmitManualOrder(ctx, types.OrderReq{Side: types.Buy, Type: types.OrderMarket, Amount: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway called %d times", gw.calls)
	}
	if tr.ID != "GW-1" || tr.EntryPrice != 64010 || tr.Amount != 0.5 {
		t.Errorf("fill not reflected: %+v", tr)
	}
	if tr.ConfidencePct != 100 {
		t.Errorf("manual confidence %.0f, want 100", tr.ConfidencePct)
	}
	if len(c.OpenTrades()) != 1 || len(c.ManualTrades()) != 1 {
		t.Errorf("trade not recorded in both feeds: exec=%d manual=%d",
			len(c.OpenTrades()), len(c.ManualTrades()))
	}
	if gw.last.Symbol != "BTCUSDT" || gw.last.Venue != "BINANCE" {
		t.Errorf("request defaults not applied: %+v", gw.last)
	}
}

func TestManualOrderRejectionLeavesBlotterUntouched(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{err: errors.New("insufficient margin")}
	c := testController(t, testConfig(), gw)
	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}

	_, err := c.SubmitManualOrder(ctx, types.OrderReq{Side: types.Sell, Type: types.OrderMarket, Amount: 1})
	if !errors.Is(err, types.ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected, got %v", err)
	}
	if len(c.OpenTrades()) != 0 || len(c.ManualTrades()) != 0 {
		t.Error("rejected order mutated a blotter")
	}
}

func TestManualOrderSizesFromConfigWhenAmountOmitted(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{resp: types.OrderResp{OrderID: "GW-2", Status: "FILLED"}}
	cfg := testConfig()
	c := testController(t, cfg, gw)
	snap := validSnapshot()
	if err := c.OnMarketTick(ctx, snap, types.OrderBook{}); err != nil {
		t.Fatal(err)
	}

	tr, err := c.SubmitManualOrder(ctx, types.OrderReq{Side: types.Buy, Type: types.OrderMarket})
	if err != nil {
		t.Fatal(err)
	}
	margin := sizing.Size(100, cfg.Position, cfg.Risk, strategy.Standard, snap)
	want := margin * float64(cfg.Risk.Leverage) / snap.Price
	if math.Abs(tr.Amount-want) > 1e-9 {
		t.Errorf("auto-sized amount %.8f, want %.8f", tr.Amount, want)
	}
}

func TestManualOrderWorksWhileHalted(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{resp: types.OrderResp{OrderID: "GW-3", Status: "FILLED"}}
	c := testController(t, testConfig(), gw)
	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	// Engine never engaged: manual routing is independent of the auto loop.
	if _, err := c.SubmitManualOrder(ctx, types.OrderReq{Side: types.Buy, Type: types.OrderMarket, Amount: 0.1}); err != nil {
		t.Fatal(err)
	}
	if len(c.ManualTrades()) != 1 {
		t.Error("manual trade not recorded while halted")
	}
}

func TestConfigUpdatesRejectedKeepPrior(t *testing.T) {
	ctx := context.Background()
	c := testController(t, testConfig(), nil)

	bad := types.RiskConfig{Leverage: 500, DynamicMode: types.ModeFixed}
	if err := c.SetRiskConfig(ctx, bad); !errors.Is(err, types.ErrConfigOutOfRange) {
		t.Fatalf("expected ErrConfigOutOfRange, got %v", err)
	}
	if got := c.RiskSummary().Leverage; got != 10 {
		t.Errorf("leverage mutated by rejected update: %d", got)
	}

	badPos := types.PositionConfig{BaseSize: 1000, MaxSize: 10, Model: types.SizingFixed, AggressivenessExponent: 2}
	if err := c.SetPositionConfig(ctx, badPos); !errors.Is(err, types.ErrConfigOutOfRange) {
		t.Fatalf("expected ErrConfigOutOfRange, got %v", err)
	}

	if err := c.SetProfile(ctx, strategy.Profile("DEGEN")); !errors.Is(err, types.ErrConfigOutOfRange) {
		t.Fatalf("expected ErrConfigOutOfRange for unknown profile, got %v", err)
	}
	if got := c.RiskSummary().Profile; got != strategy.Standard {
		t.Errorf("profile mutated by rejected update: %s", got)
	}
}

func TestConfigUpdatesAccepted(t *testing.T) {
	ctx := context.Background()
	c := testController(t, testConfig(), nil)

	good := types.RiskConfig{Leverage: 125, DynamicMode: types.ModeVolatility, StopLossBasePct: 1, TakeProfitBasePct: 2}
	if err := c.SetRiskConfig(ctx, good); err != nil {
		t.Fatal(err)
	}
	s := c.RiskSummary()
	if s.Leverage != 125 || s.Level != "CRITICAL" {
		t.Errorf("summary after update: leverage=%d level=%s", s.Leverage, s.Level)
	}

	if err := c.SetProfile(ctx, strategy.WhaleGPT); err != nil {
		t.Fatal(err)
	}
	if got := c.RiskSummary().Profile; got != strategy.WhaleGPT {
		t.Errorf("profile %s, want WHALE_GPT", got)
	}
}

func TestExecBlotterCapAppliesToGeneratedTrades(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Engine.EntryProbability = 1.0
	c := testController(t, cfg, nil)
	if err := c.OnMarketTick(ctx, validSnapshot(), types.OrderBook{}); err != nil {
		t.Fatal(err)
	}
	c.Engage(ctx)

	for i := 0; i < 40; i++ {
		if _, err := c.OnTradeTick(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(c.OpenTrades()); got != 15 {
		t.Errorf("exec blotter holds %d trades, want cap 15", got)
	}
}
