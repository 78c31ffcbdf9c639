package interfaces

import (
	"context"

	"exec-engine/internal/types"
)

// OrderGateway forwards manual orders to the external venue. Any non-success
// response surfaces as an error; callers must not mutate local state before
// the gateway acknowledges.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
