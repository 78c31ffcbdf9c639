package engineobs

import (
	"context"
	"time"

	"exec-engine/internal/interfaces"
	"exec-engine/internal/logger"
	"exec-engine/internal/risk"
	"exec-engine/internal/strategy"
	"exec-engine/internal/trace"
	"exec-engine/internal/types"
)

// observableController wraps a Controller with observability (logging & tracing)
type observableController struct {
	ctrl interfaces.Controller
}

// Compile-time interface check
var _ interfaces.Controller = (*observableController)(nil)

// Wrap wraps a controller with observability middleware
func Wrap(ctrl interfaces.Controller) interfaces.Controller {
	return &observableController{
		ctrl: ctrl,
	}
}

func (oc *observableController) Engage(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "engine.Engage")
	defer span.End()
	oc.ctrl.Engage(ctx)
}

func (oc *observableController) Halt(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "engine.Halt")
	defer span.End()
	oc.ctrl.Halt(ctx)
}

func (oc *observableController) Running() bool {
	return oc.ctrl.Running()
}

func (oc *observableController) OnMarketTick(ctx context.Context, snap types.MarketSnapshot, book types.OrderBook) error {
	ctx, span := trace.StartSpan(ctx, "engine.OnMarketTick")
	defer span.End()

	err := oc.ctrl.OnMarketTick(ctx, snap, book)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Market tick failed", err,
			"price", snap.Price,
			"volatility", snap.VolatilityIndex,
		)
		return err
	}

	logger.DebugSkip(ctx, 1, "Market tick committed",
		"price", snap.Price,
		"volatility", snap.VolatilityIndex,
		"trend", snap.Trend,
		"atr", snap.ATR,
	)
	return nil
}

func (oc *observableController) OnTradeTick(ctx context.Context) (*types.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "engine.OnTradeTick")
	defer span.End()

	start := time.Now()
	tr, err := oc.ctrl.OnTradeTick(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trade tick failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	if tr == nil {
		logger.DebugSkip(ctx, 1, "Trade tick passed", "duration_ms", time.Since(start).Milliseconds())
		return nil, nil
	}

	logger.InfoSkip(ctx, 1, "Trade tick generated entry",
		"trade_id", tr.ID,
		"symbol", tr.Symbol,
		"side", tr.Side.String(),
		"confidence", tr.ConfidencePct,
		"amount", tr.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tr, nil
}

func (oc *observableController) SubmitManualOrder(ctx context.Context, req types.OrderReq) (*types.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "engine.SubmitManualOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting manual order",
		"symbol", req.Symbol,
		"side", req.Side.String(),
		"type", string(req.Type),
		"amount", req.Amount,
	)

	tr, err := oc.ctrl.SubmitManualOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Manual order failed", err,
			"symbol", req.Symbol,
			"side", req.Side.String(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Manual order filled",
		"trade_id", tr.ID,
		"symbol", tr.Symbol,
		"price", tr.EntryPrice,
		"amount", tr.Amount,
	)
	return tr, nil
}

func (oc *observableController) SetRiskConfig(ctx context.Context, cfg types.RiskConfig) error {
	ctx, span := trace.StartSpan(ctx, "engine.SetRiskConfig")
	defer span.End()
	return oc.ctrl.SetRiskConfig(ctx, cfg)
}

func (oc *observableController) SetPositionConfig(ctx context.Context, cfg types.PositionConfig) error {
	ctx, span := trace.StartSpan(ctx, "engine.SetPositionConfig")
	defer span.End()
	return oc.ctrl.SetPositionConfig(ctx, cfg)
}

func (oc *observableController) SetProfile(ctx context.Context, p strategy.Profile) error {
	ctx, span := trace.StartSpan(ctx, "engine.SetProfile")
	defer span.End()
	return oc.ctrl.SetProfile(ctx, p)
}

func (oc *observableController) CurrentSnapshot() (types.MarketSnapshot, types.OrderBook) {
	return oc.ctrl.CurrentSnapshot()
}

func (oc *observableController) OpenTrades() []types.Trade {
	return oc.ctrl.OpenTrades()
}

func (oc *observableController) ManualTrades() []types.Trade {
	return oc.ctrl.ManualTrades()
}

func (oc *observableController) RiskSummary() risk.Summary {
	return oc.ctrl.RiskSummary()
}

func (oc *observableController) SortBlotterBy(key string) {
	oc.ctrl.SortBlotterBy(key)
}

func (oc *observableController) ExportCSV() ([]byte, error) {
	return oc.ctrl.ExportCSV()
}
