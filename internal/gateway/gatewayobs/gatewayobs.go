package gatewayobs

import (
	"context"

	"exec-engine/internal/interfaces"
	"exec-engine/internal/logger"
	"exec-engine/internal/trace"
	"exec-engine/internal/types"
)

// observableGateway wraps an OrderGateway with observability (logging & tracing)
type observableGateway struct {
	gw interfaces.OrderGateway
}

// Compile-time interface check
var _ interfaces.OrderGateway = (*observableGateway)(nil)

// Wrap wraps a gateway with observability middleware
func Wrap(gw interfaces.OrderGateway) interfaces.OrderGateway {
	return &observableGateway{
		gw: gw,
	}
}

func (og *observableGateway) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.SubmitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting order to gateway",
		"symbol", req.Symbol,
		"side", req.Side.String(),
		"type", string(req.Type),
		"amount", req.Amount,
		"venue", req.Venue,
	)

	resp, err := og.gw.SubmitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Gateway rejected order", err,
			"symbol", req.Symbol,
			"side", req.Side.String(),
			"amount", req.Amount,
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Gateway accepted order",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
		"filled_price", resp.FilledPrice,
		"filled_amount", resp.FilledAmount,
	)
	return resp, nil
}
