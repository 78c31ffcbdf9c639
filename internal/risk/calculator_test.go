package risk

import (
	"math"
	"testing"

	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

func TestLiquidationPriceFixtures(t *testing.T) {
	cases := []struct {
		entry    float64
		leverage int
		side     types.Side
		want     float64
	}{
		{100, 10, types.Buy, 90},
		{100, 100, types.Buy, 99},
		{100, 10, types.Sell, 110},
		{100, 100, types.Sell, 101},
		{100, 1, types.Buy, 0},
	}
	for _, c := range cases {
		got := LiquidationPrice(c.entry, c.leverage, c.side)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("liquidation(entry=%.0f, lev=%d, %s): got %.4f, want %.4f",
				c.entry, c.leverage, c.side, got, c.want)
		}
	}
}

func TestEffectiveStopsATRScenario(t *testing.T) {
	cfg := types.RiskConfig{
		StopLossBasePct:   1.0,
		TakeProfitBasePct: 2.0,
		Leverage:          10,
		DynamicMode:       types.ModeATR,
		ATRMultiplier:     2,
	}
	snap := types.MarketSnapshot{Price: 64230.50, ATR: 150, VolatilityIndex: 1.0}

	stops := EffectiveStops(cfg, strategy.Standard, snap)
	// slDistance = 300 → 300/64230.50*100 ≈ 0.467%, target doubles it.
	if math.Abs(stops.StopLossPct-0.46707) > 0.001 {
		t.Errorf("ATR stop: got %.5f%%, want ≈0.467%%", stops.StopLossPct)
	}
	if math.Abs(stops.TakeProfitPct-2*stops.StopLossPct) > 1e-9 {
		t.Errorf("ATR target must be twice the stop distance, got %.5f vs %.5f",
			stops.TakeProfitPct, stops.StopLossPct)
	}
}

func TestEffectiveStopsVolatilityMode(t *testing.T) {
	cfg := types.RiskConfig{
		StopLossBasePct:   2.0,
		TakeProfitBasePct: 4.0,
		Leverage:          10,
		DynamicMode:       types.ModeVolatility,
	}
	snap := types.MarketSnapshot{Price: 50000, VolatilityIndex: 1.8}

	stops := EffectiveStops(cfg, strategy.Standard, snap)
	if math.Abs(stops.StopLossPct-3.6) > 1e-9 || math.Abs(stops.TakeProfitPct-7.2) > 1e-9 {
		t.Errorf("volatility mode: got sl=%.4f tp=%.4f, want 3.6/7.2", stops.StopLossPct, stops.TakeProfitPct)
	}
}

func TestProfileStopScaling(t *testing.T) {
	cfg := types.RiskConfig{
		StopLossBasePct:   2.0,
		TakeProfitBasePct: 4.0,
		Leverage:          10,
		DynamicMode:       types.ModeFixed,
	}
	snap := types.MarketSnapshot{Price: 50000, VolatilityIndex: 1.0}

	cases := []struct {
		profile      strategy.Profile
		wantSL, wantTP float64
	}{
		{strategy.Standard, 2.0, 4.0},
		{strategy.ScalperAI, 1.2, 3.2},
		{strategy.WhaleGPT, 3.0, 8.0},
	}
	for _, c := range cases {
		stops := EffectiveStops(cfg, c.profile, snap)
		if math.Abs(stops.StopLossPct-c.wantSL) > 1e-9 || math.Abs(stops.TakeProfitPct-c.wantTP) > 1e-9 {
			t.Errorf("%s: got sl=%.2f tp=%.2f, want sl=%.2f tp=%.2f",
				c.profile, stops.StopLossPct, stops.TakeProfitPct, c.wantSL, c.wantTP)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		leverage         int
		wantLevel        Level
		wantApproaching  bool
		wantAlarm        bool
	}{
		{1, LevelNormal, false, false},
		{50, LevelNormal, false, false},
		{51, LevelCritical, true, false}, // distance 1.96%, inside the 2% band
		{100, LevelCritical, true, false},
		{101, LevelCritical, true, true},
		{200, LevelCritical, true, true},
	}
	for _, c := range cases {
		level, approaching, alarm := Classify(c.leverage)
		if level != c.wantLevel || approaching != c.wantApproaching || alarm != c.wantAlarm {
			t.Errorf("classify(%d): got (%s, %v, %v), want (%s, %v, %v)",
				c.leverage, level, approaching, alarm, c.wantLevel, c.wantApproaching, c.wantAlarm)
		}
	}
}

func TestKelly(t *testing.T) {
	if got := Kelly(0.55, 1.5); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("kelly(0.55, 1.5): got %.4f, want 0.25", got)
	}
	if got := Kelly(0.5, 1.0); math.Abs(got) > 1e-9 {
		t.Errorf("kelly(0.5, 1.0): got %.4f, want 0", got)
	}
	if got := Kelly(0.5, 0); got != 0 {
		t.Errorf("kelly with zero ratio must be 0, got %.4f", got)
	}
}

func TestBuildSummaryAdvisoryOnly(t *testing.T) {
	cfg := types.RiskConfig{
		StopLossBasePct:       2.0,
		TakeProfitBasePct:     4.0,
		Leverage:              125,
		DynamicMode:           types.ModeFixed,
		PortfolioHeatLimitPct: 30,
	}
	snap := types.MarketSnapshot{Price: 64000, VolatilityIndex: 1.0}

	s := BuildSummary(cfg, strategy.WhaleGPT, snap, 0.6, 2.0)
	if s.Level != LevelCritical || !s.LiquidationAlarm {
		t.Errorf("125x must be critical with alarm, got %s alarm=%v", s.Level, s.LiquidationAlarm)
	}
	if math.Abs(s.LiquidationDistancePct-0.8) > 1e-9 {
		t.Errorf("distance: got %.4f, want 0.8", s.LiquidationDistancePct)
	}
	if math.Abs(s.KellyFraction-0.4) > 1e-9 {
		t.Errorf("kelly: got %.4f, want 0.4", s.KellyFraction)
	}
	if s.PortfolioHeatLimitPct != 30 {
		t.Errorf("heat limit not carried through: %.2f", s.PortfolioHeatLimitPct)
	}
}
