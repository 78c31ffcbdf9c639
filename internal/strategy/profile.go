package strategy

// Profile names a modifier set that both the position sizer and the risk
// calculator apply. Profiles are stateless; all behavior differences live in
// the lookup table below so the sizing and risk math stays auditable.
type Profile string

const (
	Standard  Profile = "STANDARD"
	ScalperAI Profile = "SCALPER_AI"
	WhaleGPT  Profile = "WHALE_GPT"
)

// Modifiers is the per-profile tuning applied on top of the trader's
// PositionConfig and RiskConfig.
type Modifiers struct {
	// Sizing curve.
	ExponentDelta       float64 // added to PositionConfig.AggressivenessExponent
	ExponentFloor       float64 // lower bound after the delta is applied
	SizeMultiplier      float64 // scales margin and the max-size clamp
	ConfidenceThreshold float64 // confidence below this floors the curve at t=0

	// Stop/target scaling.
	StopLossScale   float64
	TakeProfitScale float64
}

var table = map[Profile]Modifiers{
	Standard: {
		ExponentDelta:       0,
		ExponentFloor:       1.0,
		SizeMultiplier:      1.0,
		ConfidenceThreshold: 60,
		StopLossScale:       1.0,
		TakeProfitScale:     1.0,
	},
	ScalperAI: {
		// Tighter and quicker: steeper curve, higher bar to act.
		ExponentDelta:       +1,
		ExponentFloor:       1.0,
		SizeMultiplier:      1.5,
		ConfidenceThreshold: 65,
		StopLossScale:       0.6,
		TakeProfitScale:     0.8,
	},
	WhaleGPT: {
		// Wider, trend-following: flatter curve, acts earlier, big size.
		ExponentDelta:       -1,
		ExponentFloor:       1.5,
		SizeMultiplier:      3.0,
		ConfidenceThreshold: 50,
		StopLossScale:       1.5,
		TakeProfitScale:     2.0,
	},
}

// Modifiers returns the tuning for the profile, falling back to Standard for
// unknown values.
func (p Profile) Modifiers() Modifiers {
	if m, ok := table[p]; ok {
		return m
	}
	return table[Standard]
}

// Valid reports whether p is one of the known profiles.
func (p Profile) Valid() bool {
	_, ok := table[p]
	return ok
}
