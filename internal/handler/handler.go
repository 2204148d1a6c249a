package handler

import (
	"context"
	"strconv"
	"time"

	"fx-autopilot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type TradeReader interface {
	List(ctx context.Context, limit int) ([]domain.Trade, error)
	ListActive(ctx context.Context, symbol string) ([]domain.Trade, error)
	Stats(ctx context.Context) (*domain.TradeStats, error)
}

type SignalReader interface {
	List(ctx context.Context, limit int) ([]domain.Signal, error)
}

type InvestmentReader interface {
	History(ctx context.Context, limit int) ([]domain.DailyInvestment, error)
}

type MarketReader interface {
	Snapshots(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)
	CachedQuote(ctx context.Context) *domain.Quote
}

type NewsReader interface {
	Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]domain.NewsEvent, error)
}

type StatusReader interface {
	Status() string
}

type Handler struct {
	tracer      trace.Tracer
	trades      TradeReader
	signals     SignalReader
	investments InvestmentReader
	market      MarketReader
	news        NewsReader
	cycle       StatusReader
	apiKey      string
}

func New(
	tracer trace.Tracer,
	trades TradeReader,
	signals SignalReader,
	investments InvestmentReader,
	market MarketReader,
	news NewsReader,
	cycle StatusReader,
	apiKey string,
) *Handler {
	return &Handler{
		tracer:      tracer,
		trades:      trades,
		signals:     signals,
		investments: investments,
		market:      market,
		news:        news,
		cycle:       cycle,
		apiKey:      apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.apiKey))
	api.GET("/status", h.GetStatus)
	api.GET("/trades", h.GetTrades)
	api.GET("/trades/active", h.GetActiveTrades)
	api.GET("/signals", h.GetSignals)
	api.GET("/investments", h.GetInvestments)
	api.GET("/snapshots", h.GetSnapshots)
	api.GET("/news", h.GetUpcomingNews)
	api.GET("/stats", h.GetStats)
}

// limitQuery parses ?limit= with a default and a hard cap.
func limitQuery(c *gin.Context, def int) int {
	limit := def
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
