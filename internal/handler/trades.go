package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTrades godoc
// @Summary      List trades
// @Description  Returns recent trades, newest first
// @Tags         trades
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 50)"
// @Success      200  {array}   domain.Trade
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/trades [get]
func (h *Handler) GetTrades(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trades")
	defer span.End()

	trades, err := h.trades.List(ctx, limitQuery(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetActiveTrades godoc
// @Summary      List open trades
// @Description  Returns trades whose broker position is still open
// @Tags         trades
// @Produce      json
// @Success      200  {array}   domain.Trade
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/trades/active [get]
func (h *Handler) GetActiveTrades(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-active-trades")
	defer span.End()

	trades, err := h.trades.ListActive(ctx, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetStats godoc
// @Summary      Trade statistics
// @Description  Returns aggregate trade counters, win rate, and total profit
// @Tags         trades
// @Produce      json
// @Success      200  {object}  domain.TradeStats
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	stats, err := h.trades.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
