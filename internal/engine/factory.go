package engine

import (
	"math/rand"
	"time"

	"exec-engine/internal/interfaces"
	"exec-engine/internal/store"
)

// New builds the engine controller from a validated config. A zero seed
// draws from the clock; any other value makes trade generation reproducible.
func New(cfg *store.Config, gw interfaces.OrderGateway) interfaces.Controller {
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newController(cfg, gw, rand.New(rand.NewSource(seed)))
}
