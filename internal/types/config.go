package types

import "fmt"

type DynamicMode string

const (
	ModeFixed      DynamicMode = "FIXED"
	ModeVolatility DynamicMode = "VOLATILITY"
	ModeATR        DynamicMode = "ATR"
)

type SizingModel string

const (
	SizingFixed        SizingModel = "FIXED"
	SizingAIConfidence SizingModel = "AI_CONFIDENCE"
)

// RiskConfig is the trader-owned risk configuration. It is mutated only
// through explicit updates; out-of-range updates are rejected and the prior
// valid config is kept.
type RiskConfig struct {
	StopLossBasePct           float64     `yaml:"stop_loss_base_pct" json:"stop_loss_base_pct"`
	TakeProfitBasePct         float64     `yaml:"take_profit_base_pct" json:"take_profit_base_pct"`
	MaxDrawdownPct            float64     `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	Leverage                  int         `yaml:"leverage" json:"leverage"` // [1, 200]
	DynamicMode               DynamicMode `yaml:"dynamic_mode" json:"dynamic_mode"`
	ATRMultiplier             float64     `yaml:"atr_multiplier" json:"atr_multiplier"` // >= 0
	TrailingStopEnabled       bool        `yaml:"trailing_stop_enabled" json:"trailing_stop_enabled"`
	TrailingCallbackPct       float64     `yaml:"trailing_callback_pct" json:"trailing_callback_pct"`
	SlippageTolerancePct      float64     `yaml:"slippage_tolerance_pct" json:"slippage_tolerance_pct"`
	VolatilityDampenerEnabled bool        `yaml:"volatility_dampener_enabled" json:"volatility_dampener_enabled"`
	AutoBreakevenEnabled      bool        `yaml:"auto_breakeven_enabled" json:"auto_breakeven_enabled"`
	AutoBreakevenTriggerPct   float64     `yaml:"auto_breakeven_trigger_pct" json:"auto_breakeven_trigger_pct"`
	PortfolioHeatLimitPct     float64     `yaml:"portfolio_heat_limit_pct" json:"portfolio_heat_limit_pct"`
}

func (c RiskConfig) Validate() error {
	if c.Leverage < 1 || c.Leverage > 200 {
		return fmt.Errorf("%w: leverage %d outside [1, 200]", ErrConfigOutOfRange, c.Leverage)
	}
	if c.DynamicMode != ModeFixed && c.DynamicMode != ModeVolatility && c.DynamicMode != ModeATR {
		return fmt.Errorf("%w: dynamic_mode %q", ErrConfigOutOfRange, c.DynamicMode)
	}
	if c.ATRMultiplier < 0 {
		return fmt.Errorf("%w: atr_multiplier %.2f is negative", ErrConfigOutOfRange, c.ATRMultiplier)
	}
	if c.StopLossBasePct < 0 || c.TakeProfitBasePct < 0 {
		return fmt.Errorf("%w: stop/target base percentages must be non-negative", ErrConfigOutOfRange)
	}
	return nil
}

// PositionConfig controls margin sizing. Same ownership and lifecycle as
// RiskConfig.
type PositionConfig struct {
	BaseSize               float64     `yaml:"base_size" json:"base_size"`
	MaxSize                float64     `yaml:"max_size" json:"max_size"`
	Model                  SizingModel `yaml:"model" json:"model"`
	AITrustFactor          float64     `yaml:"ai_trust_factor" json:"ai_trust_factor"`
	AggressivenessExponent float64     `yaml:"aggressiveness_exponent" json:"aggressiveness_exponent"` // >= 1
}

func (c PositionConfig) Validate() error {
	if c.Model != SizingFixed && c.Model != SizingAIConfidence {
		return fmt.Errorf("%w: sizing model %q", ErrConfigOutOfRange, c.Model)
	}
	if c.BaseSize < 0 || c.MaxSize < c.BaseSize {
		return fmt.Errorf("%w: base_size %.2f / max_size %.2f", ErrConfigOutOfRange, c.BaseSize, c.MaxSize)
	}
	if c.AggressivenessExponent < 1 {
		return fmt.Errorf("%w: aggressiveness_exponent %.2f below 1.0", ErrConfigOutOfRange, c.AggressivenessExponent)
	}
	return nil
}
