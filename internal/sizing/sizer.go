package sizing

import (
	"math"

	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

// Size converts a trade-confidence score into a margin size. Pure function:
// all inputs are passed in, nothing is mutated.
//
// For the AI-confidence model the curve is
//
//	t     = max(0, (confidence - threshold) / (100 - threshold))
//	size  = base + (max - base) * t^exponent
//
// then scaled by the trust factor and the profile's size multiplier. Below
// the threshold t is zero, so size floors at base*trust*multiplier rather
// than zero; that floor is deliberate.
func Size(confidencePct float64, pos types.PositionConfig, risk types.RiskConfig, profile strategy.Profile, snap types.MarketSnapshot) float64 {
	if pos.Model == types.SizingFixed {
		return pos.BaseSize
	}

	m := profile.Modifiers()

	exponent := pos.AggressivenessExponent + m.ExponentDelta
	if exponent < m.ExponentFloor {
		exponent = m.ExponentFloor
	}
	if exponent < 1.0 {
		// t < 1 with an exponent below 1 would inflate the curve.
		exponent = 1.0
	}

	t := (confidencePct - m.ConfidenceThreshold) / (100 - m.ConfidenceThreshold)
	if t < 0 {
		t = 0
	}
	curve := math.Pow(t, exponent)

	size := pos.BaseSize + (pos.MaxSize-pos.BaseSize)*curve
	size *= pos.AITrustFactor * m.SizeMultiplier

	if risk.VolatilityDampenerEnabled && snap.VolatilityIndex > 1.5 {
		size *= 1 / snap.VolatilityIndex
	}

	if ceil := pos.MaxSize * m.SizeMultiplier; size > ceil {
		size = ceil
	}
	return size
}

// Notional returns the margin scaled by leverage.
func Notional(margin float64, leverage int) float64 {
	return margin * float64(leverage)
}

// Amount converts a notional value at the given price into asset quantity.
func Amount(notional, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return notional / price
}
