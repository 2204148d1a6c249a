package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSignals godoc
// @Summary      List signals
// @Description  Returns recent trade signals, newest first
// @Tags         signals
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 50)"
// @Success      200  {array}   domain.Signal
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	signals, err := h.signals.List(ctx, limitQuery(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

// GetInvestments godoc
// @Summary      List daily investments
// @Description  Returns capital committed per trading day, newest first
// @Tags         capital
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 30)"
// @Success      200  {array}   domain.DailyInvestment
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/investments [get]
func (h *Handler) GetInvestments(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-investments")
	defer span.End()

	entries, err := h.investments.History(ctx, limitQuery(c, 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetSnapshots godoc
// @Summary      List market snapshots
// @Description  Returns persisted decision-time market snapshots, newest first
// @Tags         market
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 20)"
// @Success      200  {array}   domain.MarketSnapshot
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/snapshots [get]
func (h *Handler) GetSnapshots(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshots")
	defer span.End()

	snaps, err := h.market.Snapshots(ctx, limitQuery(c, 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// GetUpcomingNews godoc
// @Summary      Upcoming economic events
// @Description  Returns calendar events scheduled within the next hours
// @Tags         news
// @Produce      json
// @Param        hours  query  int  false  "Window in hours (default 24)"
// @Success      200  {array}   domain.NewsEvent
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/news [get]
func (h *Handler) GetUpcomingNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-upcoming-news")
	defer span.End()

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 24*14 {
			hours = v
		}
	}

	events, err := h.news.Upcoming(ctx, time.Now(), time.Duration(hours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetStatus godoc
// @Summary      Bot status
// @Description  Returns the trade cycle phase and the last cached quote
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-status")
	defer span.End()

	body := gin.H{"status": h.cycle.Status()}
	if quote := h.market.CachedQuote(ctx); quote != nil {
		body["quote"] = quote
	}
	c.JSON(http.StatusOK, body)
}
