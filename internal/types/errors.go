package types

import "errors"

var (
	// ErrConfigOutOfRange means a config update violated a declared bound.
	// The update is rejected; the previous valid config stays in effect.
	ErrConfigOutOfRange = errors.New("config value out of range")

	// ErrGatewayRejected means the external venue refused a manual order.
	// The blotter is never mutated on this path.
	ErrGatewayRejected = errors.New("order rejected by gateway")

	// ErrInvalidSnapshot means a market tick carried an unusable price.
	// The P&L recompute for that tick is skipped; prior values stand.
	ErrInvalidSnapshot = errors.New("invalid market snapshot")
)
