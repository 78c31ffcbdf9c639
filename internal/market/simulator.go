package market

import (
	"math/rand"
	"time"

	"exec-engine/internal/interfaces"
	"exec-engine/internal/types"
)

const bookDepth = 5

// Params configures the simulator's starting state. Seed zero means seed
// from the wall clock; tests inject a fixed seed for reproducibility.
type Params struct {
	StartPrice float64
	Seed       int64
}

// Simulator is a first-order autoregressive random walk with trend-coupled
// drift. Volatility and trend mean-revert inside hard clamps; price follows
// drift plus volatility-scaled noise. Deterministic for a given seed. Tick
// has no failure modes.
type Simulator struct {
	rng   *rand.Rand
	price float64
	vol   float64
	trend float64
}

var _ interfaces.MarketFeed = (*Simulator)(nil)

func NewSimulator(p Params) *Simulator {
	if p.StartPrice <= 0 {
		p.StartPrice = 64000.0
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		rng:   rand.New(rand.NewSource(seed)),
		price: p.StartPrice,
		vol:   1.0,
		trend: 0,
	}
}

// Tick advances the walk one step and returns the new snapshot plus a
// display-only order book. Each book is generated fresh; there is no
// invariant linking it to the previous tick's book.
func (s *Simulator) Tick() (types.MarketSnapshot, types.OrderBook) {
	s.vol = clamp(s.vol+s.uniform(-0.05, 0.05), 0.8, 2.5)
	s.trend = clamp(s.trend+s.uniform(-0.1, 0.1), -1, 1)

	noise := s.uniform(-0.5, 0.5) * 100 * s.vol
	drift := s.trend * 50
	s.price += drift + noise

	snap := types.MarketSnapshot{
		Price:           s.price,
		VolatilityIndex: s.vol,
		ATR:             145.50*s.vol + s.uniform(-5, 5),
		Trend:           s.trend,
		LatencyMs:       s.uniform(40, 60),
		SlippagePct:     s.uniform(0.01, 0.04),
		Timestamp:       time.Now(),
	}
	return snap, s.buildBook(snap)
}

// buildBook derives a 5-level bid/ask ladder around the tick price. Level
// spacing widens with volatility; amounts are random per level.
func (s *Simulator) buildBook(snap types.MarketSnapshot) types.OrderBook {
	book := types.OrderBook{
		Bids: make([]types.BookLevel, 0, bookDepth),
		Asks: make([]types.BookLevel, 0, bookDepth),
	}
	step := snap.Price * 0.0002 * snap.VolatilityIndex
	for i := 1; i <= bookDepth; i++ {
		offset := float64(i) * step
		book.Bids = append(book.Bids, types.BookLevel{
			Price:  snap.Price - offset,
			Amount: s.uniform(0.05, 2.5),
		})
		book.Asks = append(book.Asks, types.BookLevel{
			Price:  snap.Price + offset,
			Amount: s.uniform(0.05, 2.5),
		})
	}
	return book
}

// uniform draws from [lo, hi).
func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
