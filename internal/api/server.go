package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"exec-engine/internal/interfaces"
	"exec-engine/internal/logger"
	"exec-engine/internal/strategy"
	"exec-engine/internal/types"
)

// Server exposes the engine control surface over HTTP. Every handler is a
// thin adapter: state lives in the controller, which serializes access.
type Server struct {
	ctrl interfaces.Controller
	srv  *http.Server
}

func NewServer(addr string, ctrl interfaces.Controller) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{ctrl: ctrl}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/market", s.handleMarket)
		api.GET("/trades", s.handleTrades)
		api.GET("/trades/manual", s.handleManualTrades)
		api.GET("/risk", s.handleRisk)
		api.GET("/export.csv", s.handleExportCSV)

		api.POST("/engage", s.handleEngage)
		api.POST("/halt", s.handleHalt)
		api.POST("/orders", s.handleSubmitOrder)
		api.POST("/blotter/sort", s.handleSortBlotter)

		api.PUT("/config/risk", s.handleSetRisk)
		api.PUT("/config/position", s.handleSetPosition)
		api.PUT("/config/profile", s.handleSetProfile)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) {
	go func() {
		logger.Info(ctx, "Control API listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Control API stopped", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(c *gin.Context) {
	state := "HALTED"
	if s.ctrl.Running() {
		state = "RUNNING"
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleMarket(c *gin.Context) {
	snap, book := s.ctrl.CurrentSnapshot()
	if !snap.Valid() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no market snapshot committed yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "book": book})
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.ctrl.OpenTrades()})
}

func (s *Server) handleManualTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.ctrl.ManualTrades()})
}

func (s *Server) handleRisk(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.RiskSummary())
}

func (s *Server) handleExportCSV(c *gin.Context) {
	out, err := s.ctrl.ExportCSV()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="trades.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

func (s *Server) handleEngage(c *gin.Context) {
	s.ctrl.Engage(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": "RUNNING"})
}

func (s *Server) handleHalt(c *gin.Context) {
	s.ctrl.Halt(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": "HALTED"})
}

type orderRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side" binding:"required"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

func (s *Server) handleSubmitOrder(c *gin.Context) {
	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload: " + err.Error()})
		return
	}

	var side types.Side
	switch body.Side {
	case "BUY":
		side = types.Buy
	case "SELL":
		side = types.Sell
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be BUY or SELL"})
		return
	}

	orderType := types.OrderType(body.Type)
	if body.Type == "" {
		orderType = types.OrderMarket
	}
	switch orderType {
	case types.OrderMarket, types.OrderLimit, types.OrderStop:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be MARKET, LIMIT or STOP"})
		return
	}

	tr, err := s.ctrl.SubmitManualOrder(c.Request.Context(), types.OrderReq{
		Symbol: body.Symbol,
		Side:   side,
		Type:   orderType,
		Amount: body.Amount,
		Price:  body.Price,
	})
	if err != nil {
		status := http.StatusBadGateway
		if !errors.Is(err, types.ErrGatewayRejected) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trade": tr})
}

func (s *Server) handleSortBlotter(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sort key"})
		return
	}
	s.ctrl.SortBlotterBy(key)
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (s *Server) handleSetRisk(c *gin.Context) {
	var cfg types.RiskConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk config: " + err.Error()})
		return
	}
	if err := s.ctrl.SetRiskConfig(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

func (s *Server) handleSetPosition(c *gin.Context) {
	var cfg types.PositionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position config: " + err.Error()})
		return
	}
	if err := s.ctrl.SetPositionConfig(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

func (s *Server) handleSetProfile(c *gin.Context) {
	var body struct {
		Profile string `json:"profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload: " + err.Error()})
		return
	}
	if err := s.ctrl.SetProfile(c.Request.Context(), strategy.Profile(body.Profile)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": body.Profile})
}
