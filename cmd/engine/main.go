package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exec-engine/internal/logger"
	"exec-engine/internal/market"
	"exec-engine/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	compressOldLogs(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	gw := initializeGateway(ctx, cfg)
	ctrl := initializeController(cfg, gw)
	srv := initializeAPI(ctx, cfg, ctrl)

	feed := market.NewSimulator(market.Params{
		StartPrice: cfg.Engine.StartPrice,
		Seed:       cfg.Engine.Seed,
	})

	if cfg.Engine.AutoEngage {
		ctrl.Engage(ctx)
	}

	marketTick := time.NewTicker(time.Duration(cfg.Engine.MarketTickMs) * time.Millisecond)
	defer marketTick.Stop()
	tradeTick := time.NewTicker(time.Duration(cfg.Engine.TradeTickMs) * time.Millisecond)
	defer tradeTick.Stop()

	logger.Info(ctx, "Engine started",
		"symbol", cfg.Symbol,
		"mode", cfg.Mode,
		"profile", cfg.Profile,
		"market_tick_ms", cfg.Engine.MarketTickMs,
		"trade_tick_ms", cfg.Engine.TradeTickMs,
	)

	for {
		select {
		case <-marketTick.C:
			snap, book := feed.Tick()
			if err := ctrl.OnMarketTick(ctx, snap, book); err != nil {
				logger.Warn(ctx, "Market tick dropped", "error", err)
			}
		case <-tradeTick.C:
			if _, err := ctrl.OnTradeTick(ctx); err != nil {
				logger.Warn(ctx, "Trade tick failed", "error", err)
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			shutdown(srv)
			return
		case <-ctx.Done():
			shutdown(srv)
			return
		}
	}
}

func shutdown(srv apiServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "API shutdown failed", "error", err)
		}
	}
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}
