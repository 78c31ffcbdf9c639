package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

type Config struct {
	Mode   string `yaml:"mode"` // DRY_RUN or LIVE
	Symbol string `yaml:"symbol"`
	Venue  string `yaml:"venue"`

	Engine struct {
		MarketTickMs     int     `yaml:"market_tick_ms"`
		TradeTickMs      int     `yaml:"trade_tick_ms"`
		EntryProbability float64 `yaml:"entry_probability"`
		AutoEngage       bool    `yaml:"auto_engage"`
		Seed             int64   `yaml:"seed"` // 0 = seed from clock
		StartPrice       float64 `yaml:"start_price"`
	} `yaml:"engine"`

	Blotter struct {
		AutoCap   int `yaml:"auto_cap"`
		ManualCap int `yaml:"manual_cap"`
	} `yaml:"blotter"`

	Profile  string               `yaml:"profile"`
	Risk     types.RiskConfig     `yaml:"risk"`
	Position types.PositionConfig `yaml:"position"`

	// Advisory inputs for the Kelly fraction display. Not derived from the
	// simulation and never fed back into sizing.
	Advisory struct {
		WinRate     float64 `yaml:"win_rate"`
		ProfitRatio float64 `yaml:"profit_ratio"`
	} `yaml:"advisory"`

	API struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"api"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if c.Engine.MarketTickMs <= 0 || c.Engine.TradeTickMs <= 0 {
		return fmt.Errorf("tick periods must be positive, got market=%dms trade=%dms",
			c.Engine.MarketTickMs, c.Engine.TradeTickMs)
	}
	if c.Engine.EntryProbability < 0 || c.Engine.EntryProbability > 1 {
		return fmt.Errorf("engine.entry_probability must be within [0, 1], got %.2f", c.Engine.EntryProbability)
	}
	if !strategy.Profile(c.Profile).Valid() {
		return fmt.Errorf("unknown strategy profile '%s'", c.Profile)
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if err := c.Position.Validate(); err != nil {
		return err
	}
	if c.Advisory.WinRate < 0 || c.Advisory.WinRate > 1 {
		return fmt.Errorf("advisory.win_rate must be within [0, 1], got %.2f", c.Advisory.WinRate)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Symbol == "" {
		c.Symbol = "BTCUSDT"
	}
	if c.Venue == "" {
		c.Venue = "BINANCE"
	}
	if c.Engine.MarketTickMs == 0 {
		c.Engine.MarketTickMs = 2000
	}
	if c.Engine.TradeTickMs == 0 {
		c.Engine.TradeTickMs = 3000
	}
	if c.Engine.EntryProbability == 0 {
		c.Engine.EntryProbability = 0.3
	}
	if c.Engine.StartPrice == 0 {
		c.Engine.StartPrice = 64000
	}
	if c.Blotter.AutoCap == 0 {
		c.Blotter.AutoCap = 15
	}
	if c.Blotter.ManualCap == 0 {
		c.Blotter.ManualCap = 100
	}
	if c.Profile == "" {
		c.Profile = string(strategy.Standard)
	}
	if c.Risk.Leverage == 0 {
		c.Risk.Leverage = 10
	}
	if c.Risk.DynamicMode == "" {
		c.Risk.DynamicMode = types.ModeFixed
	}
	if c.Risk.StopLossBasePct == 0 {
		c.Risk.StopLossBasePct = 2.0
	}
	if c.Risk.TakeProfitBasePct == 0 {
		c.Risk.TakeProfitBasePct = 4.0
	}
	if c.Position.Model == "" {
		c.Position.Model = types.SizingAIConfidence
	}
	if c.Position.BaseSize == 0 {
		c.Position.BaseSize = 1000
	}
	if c.Position.MaxSize == 0 {
		c.Position.MaxSize = 50000
	}
	if c.Position.AITrustFactor == 0 {
		c.Position.AITrustFactor = 1.0
	}
	if c.Position.AggressivenessExponent == 0 {
		c.Position.AggressivenessExponent = 2.0
	}
	if c.Advisory.WinRate == 0 {
		c.Advisory.WinRate = 0.55
	}
	if c.Advisory.ProfitRatio == 0 {
		c.Advisory.ProfitRatio = 1.5
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
}
