package sizing

import (
	"math"
	"testing"

	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

func baseConfig() (types.PositionConfig, types.RiskConfig) {
	pos := types.PositionConfig{
		BaseSize:               1000,
		MaxSize:                50000,
		Model:                  types.SizingAIConfidence,
		AITrustFactor:          1.0,
		AggressivenessExponent: 3,
	}
	risk := types.RiskConfig{Leverage: 10, DynamicMode: types.ModeFixed}
	return pos, risk
}

func calmMarket() types.MarketSnapshot {
	return types.MarketSnapshot{Price: 64000, VolatilityIndex: 1.0, ATR: 145.5}
}

func TestFixedModelReturnsBaseSize(t *testing.T) {
	pos, risk := baseConfig()
	pos.Model = types.SizingFixed

	if got := Size(95, pos, risk, strategy.Standard, calmMarket()); got != pos.BaseSize {
		t.Fatalf("fixed model: got %.2f, want base size %.2f", got, pos.BaseSize)
	}
}

func TestConfidenceCurveStandardProfile(t *testing.T) {
	pos, risk := baseConfig()

	// confidence 90, threshold 60, exponent 3:
	// t = 0.75, curve = 0.421875, size = 1000 + 49000*0.421875
	got := Size(90, pos, risk, strategy.Standard, calmMarket())
	want := 1000 + 49000*math.Pow(0.75, 3)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %.4f, want %.4f", got, want)
	}
	if math.Abs(want-21671.875) > 1e-9 {
		t.Fatalf("scenario fixture drifted: %.4f", want)
	}
}

func TestBelowThresholdFloorsAtBase(t *testing.T) {
	pos, risk := baseConfig()
	pos.AITrustFactor = 1.2

	for _, p := range []strategy.Profile{strategy.Standard, strategy.ScalperAI, strategy.WhaleGPT} {
		m := p.Modifiers()
		got := Size(m.ConfidenceThreshold-10, pos, risk, p, calmMarket())
		want := pos.BaseSize * pos.AITrustFactor * m.SizeMultiplier
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: below-threshold size %.4f, want floor %.4f (not zero)", p, got, want)
		}
		if got == 0 {
			t.Errorf("%s: size must floor at base, never zero", p)
		}
	}
}

func TestMonotonicInConfidence(t *testing.T) {
	pos, risk := baseConfig()

	for _, p := range []strategy.Profile{strategy.Standard, strategy.ScalperAI, strategy.WhaleGPT} {
		prev := -1.0
		for c := 0.0; c <= 100.0; c += 0.5 {
			got := Size(c, pos, risk, p, calmMarket())
			if got < prev {
				t.Fatalf("%s: size decreased from %.4f to %.4f at confidence %.1f", p, prev, got, c)
			}
			prev = got
		}
	}
}

func TestVolatilityDampener(t *testing.T) {
	pos, risk := baseConfig()
	risk.VolatilityDampenerEnabled = true

	calm := calmMarket()
	hot := calm
	hot.VolatilityIndex = 2.0

	base := Size(90, pos, risk, strategy.Standard, calm)
	damped := Size(90, pos, risk, strategy.Standard, hot)
	if math.Abs(damped-base/2.0) > 1e-9 {
		t.Fatalf("dampener at vol 2.0: got %.4f, want %.4f", damped, base/2.0)
	}

	// At or below 1.5 the dampener must not engage.
	mild := calm
	mild.VolatilityIndex = 1.5
	if got := Size(90, pos, risk, strategy.Standard, mild); math.Abs(got-base) > 1e-9 {
		t.Fatalf("dampener engaged at vol 1.5: got %.4f, want %.4f", got, base)
	}
}

func TestClampAtProfileCeiling(t *testing.T) {
	pos, risk := baseConfig()
	pos.AITrustFactor = 10

	for _, p := range []strategy.Profile{strategy.Standard, strategy.WhaleGPT} {
		m := p.Modifiers()
		got := Size(100, pos, risk, p, calmMarket())
		ceil := pos.MaxSize * m.SizeMultiplier
		if got > ceil {
			t.Errorf("%s: size %.2f exceeds ceiling %.2f", p, got, ceil)
		}
	}
}

func TestWhaleExponentFloor(t *testing.T) {
	pos, risk := baseConfig()
	pos.AggressivenessExponent = 2 // whale delta -1 would give 1.0, floored to 1.5

	got := Size(75, pos, risk, strategy.WhaleGPT, calmMarket())
	m := strategy.WhaleGPT.Modifiers()
	tt := (75 - m.ConfidenceThreshold) / (100 - m.ConfidenceThreshold)
	want := (pos.BaseSize + (pos.MaxSize-pos.BaseSize)*math.Pow(tt, 1.5)) * m.SizeMultiplier
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("whale exponent not floored at 1.5: got %.4f, want %.4f", got, want)
	}
}

func TestNotionalAndAmount(t *testing.T) {
	if n := Notional(1500, 20); n != 30000 {
		t.Errorf("notional: got %.2f, want 30000", n)
	}
	if a := Amount(30000, 60000); a != 0.5 {
		t.Errorf("amount: got %.4f, want 0.5", a)
	}
	if a := Amount(30000, 0); a != 0 {
		t.Errorf("amount at zero price must be 0, got %.4f", a)
	}
}
