package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"exec-engine/internal/api"
	"exec-engine/internal/engine"
	"exec-engine/internal/engine/engineobs"
	"exec-engine/internal/gateway/binance"
	"exec-engine/internal/gateway/gatewayobs"
	"exec-engine/internal/interfaces"
	"exec-engine/internal/logger"
	"exec-engine/internal/store"
	"exec-engine/internal/trace"
	"exec-engine/internal/tradelog"
)

// apiServer is what main needs from the control API; nil when disabled.
type apiServer interface {
	Shutdown(ctx context.Context) error
}

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("ENGINE_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeGateway initializes the order gateway with observability
func initializeGateway(ctx context.Context, cfg *store.Config) interfaces.OrderGateway {
	gw := binance.New(binance.Params{
		Mode:      cfg.Mode,
		APIKey:    os.Getenv("BINANCE_API_KEY"),
		APISecret: os.Getenv("BINANCE_API_SECRET"),
	})

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	} else {
		logger.Info(ctx, "LIVE mode - orders will reach the exchange", "venue", cfg.Venue)
	}

	// Wrap with observability middleware
	return gatewayobs.Wrap(gw)
}

// initializeController initializes the engine controller with observability
func initializeController(cfg *store.Config, gw interfaces.OrderGateway) interfaces.Controller {
	ctrl := engine.New(cfg, gw)

	// Wrap with observability middleware
	return engineobs.Wrap(ctrl)
}

// initializeAPI starts the control API when enabled; returns nil otherwise
func initializeAPI(ctx context.Context, cfg *store.Config, ctrl interfaces.Controller) apiServer {
	if !cfg.API.Enabled {
		logger.Info(ctx, "Control API disabled in config")
		return nil
	}
	srv := api.NewServer(cfg.API.Addr, ctrl)
	srv.Start(ctx)
	return srv
}
