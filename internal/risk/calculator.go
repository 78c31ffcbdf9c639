package risk

import (
	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

// Stops is the effective stop/target pair for the current tick, expressed as
// percentages of price, with the trailing/breakeven flags the controller
// needs for stop maintenance.
type Stops struct {
	StopLossPct             float64 `json:"stop_loss_pct"`
	TakeProfitPct           float64 `json:"take_profit_pct"`
	TrailingEnabled         bool    `json:"trailing_enabled"`
	TrailingCallbackPct     float64 `json:"trailing_callback_pct"`
	AutoBreakevenEnabled    bool    `json:"auto_breakeven_enabled"`
	AutoBreakevenTriggerPct float64 `json:"auto_breakeven_trigger_pct"`
}

// EffectiveStops derives the stop/target percentages for this tick.
//
// Profile modifiers scale the configured bases first (ScalperAI tightens,
// WhaleGPT widens). The dynamic mode then decides what drives the final
// numbers: FIXED uses the modified bases unchanged, VOLATILITY scales both
// by the volatility index, ATR ignores the bases and converts ATR-derived
// distances (target at twice the stop distance) into percentages of price.
func EffectiveStops(cfg types.RiskConfig, profile strategy.Profile, snap types.MarketSnapshot) Stops {
	m := profile.Modifiers()
	sl := cfg.StopLossBasePct * m.StopLossScale
	tp := cfg.TakeProfitBasePct * m.TakeProfitScale

	switch cfg.DynamicMode {
	case types.ModeVolatility:
		sl *= snap.VolatilityIndex
		tp *= snap.VolatilityIndex
	case types.ModeATR:
		if snap.Price > 0 {
			slDistance := snap.ATR * cfg.ATRMultiplier
			tpDistance := slDistance * 2
			sl = slDistance / snap.Price * 100
			tp = tpDistance / snap.Price * 100
		}
	}

	return Stops{
		StopLossPct:             sl,
		TakeProfitPct:           tp,
		TrailingEnabled:         cfg.TrailingStopEnabled,
		TrailingCallbackPct:     cfg.TrailingCallbackPct,
		AutoBreakevenEnabled:    cfg.AutoBreakevenEnabled,
		AutoBreakevenTriggerPct: cfg.AutoBreakevenTriggerPct,
	}
}

// LiquidationPrice is the isolated-margin approximation: the price at which
// the leveraged margin is fully consumed. Longs liquidate below entry,
// shorts mirror above it.
func LiquidationPrice(entry float64, leverage int, side types.Side) float64 {
	if leverage < 1 {
		leverage = 1
	}
	step := entry / float64(leverage)
	if side == types.Buy {
		return entry - step
	}
	return entry + step
}

// LiquidationDistancePct is the move, in percent of entry, that reaches the
// liquidation price.
func LiquidationDistancePct(leverage int) float64 {
	if leverage < 1 {
		leverage = 1
	}
	return 100 / float64(leverage)
}

// Level is an advisory risk classification. It is never enforced; there is
// no forced deleveraging in this engine.
type Level string

const (
	LevelNormal   Level = "NORMAL"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Classify grades the configured leverage. Approaching fires inside a 2%
// liquidation distance, the hard alarm inside 1%.
func Classify(leverage int) (level Level, approaching, alarm bool) {
	dist := LiquidationDistancePct(leverage)
	approaching = dist < 2.0
	alarm = dist < 1.0

	level = LevelNormal
	if leverage > 50 {
		level = LevelHigh
	}
	if leverage > 100 || approaching {
		level = LevelCritical
	}
	return level, approaching, alarm
}

// Kelly is the advisory bet-sizing fraction. Inputs are supplied externally;
// the result never feeds back into position sizing.
func Kelly(winRate, profitRatio float64) float64 {
	if profitRatio <= 0 {
		return 0
	}
	return winRate - (1-winRate)/profitRatio
}

// Summary is the read model handed to presentation each tick.
type Summary struct {
	Profile                strategy.Profile `json:"profile"`
	Leverage               int              `json:"leverage"`
	Stops                  Stops            `json:"stops"`
	LiquidationDistancePct float64          `json:"liquidation_distance_pct"`
	ApproachingLiquidation bool             `json:"approaching_liquidation"`
	LiquidationAlarm       bool             `json:"liquidation_alarm"`
	Level                  Level            `json:"level"`
	KellyFraction          float64          `json:"kelly_fraction"`
	PortfolioHeatLimitPct  float64          `json:"portfolio_heat_limit_pct"`
}

// BuildSummary assembles the advisory view for the given config and tick.
func BuildSummary(cfg types.RiskConfig, profile strategy.Profile, snap types.MarketSnapshot, winRate, profitRatio float64) Summary {
	level, approaching, alarm := Classify(cfg.Leverage)
	return Summary{
		Profile:                profile,
		Leverage:               cfg.Leverage,
		Stops:                  EffectiveStops(cfg, profile, snap),
		LiquidationDistancePct: LiquidationDistancePct(cfg.Leverage),
		ApproachingLiquidation: approaching,
		LiquidationAlarm:       alarm,
		Level:                  level,
		KellyFraction:          Kelly(winRate, profitRatio),
		PortfolioHeatLimitPct:  cfg.PortfolioHeatLimitPct,
	}
}
