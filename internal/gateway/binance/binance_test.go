package binance

import (
	"context"
	"os"
	"strings"
	"testing"

	"exec-engine/internal/logger"
	"exec-engine/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

func TestDryRunSimulatesFill(t *testing.T) {
	g := New(Params{Mode: "DRY_RUN"})

	resp, err := g.SubmitOrder(context.Background(), types.OrderReq{
		Symbol: "BTCUSDT",
		Side:   types.Buy,
		Type:   types.OrderLimit,
		Amount: 0.5,
		Price:  64000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.OrderID, "SIM-") {
		t.Errorf("simulated order id %q", resp.OrderID)
	}
	if resp.Status != "SIMULATED" {
		t.Errorf("status %q", resp.Status)
	}
	if resp.FilledPrice != 64000 || resp.FilledAmount != 0.5 {
		t.Errorf("fill echo mismatch: price=%.2f amount=%.4f", resp.FilledPrice, resp.FilledAmount)
	}
}

func TestRejectsNonPositiveAmount(t *testing.T) {
	g := New(Params{Mode: "DRY_RUN"})
	_, err := g.SubmitOrder(context.Background(), types.OrderReq{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.OrderMarket, Amount: 0,
	})
	if err == nil {
		t.Fatal("expected rejection of zero amount")
	}
}

func TestLimitOrderRequiresPrice(t *testing.T) {
	g := New(Params{Mode: "DRY_RUN"})
	_, err := g.SubmitOrder(context.Background(), types.OrderReq{
		Symbol: "BTCUSDT", Side: types.Sell, Type: types.OrderLimit, Amount: 1,
	})
	if err == nil {
		t.Fatal("expected rejection of priceless limit order")
	}
}

func TestLiveModeWithoutCredentialsFails(t *testing.T) {
	g := New(Params{Mode: "LIVE"})
	_, err := g.SubmitOrder(context.Background(), types.OrderReq{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.OrderMarket, Amount: 1,
	})
	if err == nil {
		t.Fatal("expected credential error in LIVE mode")
	}
}
