package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"exec-engine/internal/logger"
	"exec-engine/internal/types"
)

type Params struct{ Mode, APIKey, APISecret string }

// Gateway routes manual orders to Binance USD-M futures. In DRY_RUN mode
// orders are acknowledged locally without touching the exchange; fills come
// back at the requested price so the caller's accounting stays consistent.
type Gateway struct {
	p      Params
	client *futures.Client
}

func New(p Params) *Gateway {
	g := &Gateway{p: p}
	if p.APIKey != "" && p.APISecret != "" {
		g.client = futures.NewClient(p.APIKey, p.APISecret)
	}
	return g
}

func (g *Gateway) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	logger.Debug(ctx, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side.String(),
		"type", string(req.Type),
		"amount", req.Amount,
		"mode", g.p.Mode,
	)

	if req.Amount <= 0 {
		return types.OrderResp{}, fmt.Errorf("order amount must be positive, got %.8f", req.Amount)
	}
	if req.Type != types.OrderMarket && req.Price <= 0 {
		return types.OrderResp{}, fmt.Errorf("%s order requires a positive price", req.Type)
	}

	if g.p.Mode == "DRY_RUN" {
		resp := types.OrderResp{
			OrderID:      fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
			Status:       "SIMULATED",
			FilledPrice:  req.Price,
			FilledAmount: req.Amount,
		}
		logger.Info(ctx, "Simulated order placed",
			"symbol", req.Symbol,
			"side", req.Side.String(),
			"amount", req.Amount,
			"order_id", resp.OrderID,
		)
		return resp, nil
	}

	if g.client == nil {
		err := errors.New("missing API key/secret")
		logger.ErrorWithErr(ctx, "Cannot place live order - missing credentials", err, "symbol", req.Symbol)
		return types.OrderResp{}, err
	}

	svc := g.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(sideType(req.Side)).
		Type(orderType(req.Type)).
		Quantity(strconv.FormatFloat(req.Amount, 'f', -1, 64))

	switch req.Type {
	case types.OrderLimit:
		svc = svc.TimeInForce(futures.TimeInForceTypeGTC).
			Price(strconv.FormatFloat(req.Price, 'f', -1, 64))
	case types.OrderStop:
		svc = svc.StopPrice(strconv.FormatFloat(req.Price, 'f', -1, 64))
	}

	res, err := svc.Do(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Live order rejected", err,
			"symbol", req.Symbol,
			"side", req.Side.String(),
			"amount", req.Amount,
		)
		return types.OrderResp{}, err
	}

	resp := types.OrderResp{
		OrderID:      strconv.FormatInt(res.OrderID, 10),
		Status:       string(res.Status),
		FilledPrice:  parseFloat(res.AvgPrice),
		FilledAmount: parseFloat(res.ExecutedQuantity),
	}
	logger.Info(ctx, "Live order placed",
		"symbol", req.Symbol,
		"side", req.Side.String(),
		"amount", req.Amount,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

func sideType(s types.Side) futures.SideType {
	if s == types.Buy {
		return futures.SideTypeBuy
	}
	return futures.SideTypeSell
}

func orderType(t types.OrderType) futures.OrderType {
	switch t {
	case types.OrderLimit:
		return futures.OrderTypeLimit
	case types.OrderStop:
		return futures.OrderTypeStopMarket
	default:
		return futures.OrderTypeMarket
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
