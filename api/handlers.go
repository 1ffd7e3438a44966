package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/planner"
)

type ladderRequest struct {
	Symbol      string                   `json:"symbol"`
	Balance     float64                  `json:"balance"`
	EntryPrice  float64                  `json:"entry_price"`
	Rules       *ladder.ExchangeRules    `json:"rules"`
	BaseOrder   ladder.OrderPolicy       `json:"base_order"`
	SafetyOrder ladder.SafetyOrderPolicy `json:"safety_order"`
	TakeProfit  float64                  `json:"take_profit"`
	Leverage    float64                  `json:"leverage"`
	Long        *bool                    `json:"long"` // defaults to true
}

func (r ladderRequest) params() ladder.Params {
	p := ladder.Params{
		Balance:     r.Balance,
		EntryPrice:  r.EntryPrice,
		BaseOrder:   r.BaseOrder,
		SafetyOrder: r.SafetyOrder,
		TakeProfit:  r.TakeProfit,
		Leverage:    r.Leverage,
		Short:       r.Long != nil && !*r.Long,
	}
	if r.Rules != nil {
		p.Rules = r.Rules.Filters()
	}
	return p
}

func (s *Server) computeLadder(c *gin.Context) {
	var req ladderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := s.planner.Plan(c.Request.Context(), planner.Request{
		Symbol: req.Symbol,
		Params: req.params(),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

type symbolResponse struct {
	exchange.Symbol
	LotSize ladder.ExchangeRules `json:"lot_size"`
}

func (s *Server) getSymbol(c *gin.Context) {
	if s.symbols == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no rules cache configured"})
		return
	}

	sym, err := s.symbols.Symbol(c.Request.Context(), c.Param("symbol"), s.ttl)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, symbolResponse{Symbol: sym, LotSize: sym.LotSize()})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var ie *ladder.InvalidInputError
	switch {
	case errors.As(err, &ie):
		c.JSON(http.StatusBadRequest, gin.H{"error": ie.Error(), "field": ie.Field})
	case errors.Is(err, cache.ErrUnknownSymbol):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, cache.ErrNotCached), errors.Is(err, planner.ErrNoRulesSource):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
