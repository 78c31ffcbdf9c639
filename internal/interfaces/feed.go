package interfaces

import "exec-engine/internal/types"

// MarketFeed produces one market observation per scheduler tick. The
// simulator implements it; a real or replayed feed can substitute without
// touching the sizing or risk math.
type MarketFeed interface {
	Tick() (types.MarketSnapshot, types.OrderBook)
}
