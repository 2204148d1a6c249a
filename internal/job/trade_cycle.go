package job

import (
	"context"
	"log"
	"sync"
	"time"

	"fx-autopilot/internal/domain"
	"fx-autopilot/internal/service"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Bot status values published for the API and Telegram surfaces.
const (
	StatusStarting      = "starting"
	StatusCheckingNews  = "checking_news"
	StatusClosingTrades = "closing_trades"
	StatusAnalyzing     = "analyzing"
	StatusPlacingOrder  = "placing_order"
	StatusSleeping      = "sleeping"
	StatusStopped       = "stopped"
)

const statusCacheKey = "bot:status"

type NewsSource interface {
	Headlines(ctx context.Context, count, maxRetries int) string
}

type DecisionEngine interface {
	CheckNewsRisk(ctx context.Context, headlines string) bool
	TradeSignal(ctx context.Context, positions []domain.Position, snap *domain.MarketSnapshot) domain.SignalType
}

type MarketData interface {
	Positions(ctx context.Context) []domain.Position
	Snapshot(ctx context.Context, positions []domain.Position) (*domain.MarketSnapshot, error)
}

type Capital interface {
	RemainingBudget(ctx context.Context) (float64, error)
	Commit(ctx context.Context, amount float64) error
}

type Executor interface {
	Place(ctx context.Context, signal domain.SignalType, snap *domain.MarketSnapshot, volume float64) (domain.OrderRequest, *domain.OrderResult, error)
	CloseAll(ctx context.Context, positions []domain.Position) (int, error)
}

type SignalStore interface {
	Create(ctx context.Context, s *domain.Signal) (int64, error)
}

type TradeRecorder interface {
	SyncPositions(ctx context.Context, positions []domain.Position)
	RecordTrade(ctx context.Context, signalID int64, req domain.OrderRequest, res *domain.OrderResult) error
	MarkSignalExecuted(ctx context.Context, signalID int64) error
}

type StatusCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// TradeCycle runs the decision loop: gate on news risk, snapshot the market,
// ask for a signal, size and place the order, then sleep. One iteration at a
// time, and any failure inside an iteration is logged and contained so the
// next iteration starts clean.
type TradeCycle struct {
	tracer   trace.Tracer
	news     NewsSource
	engine   DecisionEngine
	market   MarketData
	capital  Capital
	executor Executor
	signals  SignalStore
	recorder TradeRecorder
	cache    StatusCache

	symbol       string
	baseLot      float64
	contractSize float64
	interval     time.Duration
	newsCount    int
	newsRetries  int

	mu     sync.RWMutex
	status string
	now    func() time.Time
}

func NewTradeCycle(
	tracer trace.Tracer,
	news NewsSource,
	engine DecisionEngine,
	market MarketData,
	capital Capital,
	executor Executor,
	signals SignalStore,
	recorder TradeRecorder,
	cache StatusCache,
	symbol string,
	baseLot float64,
	contractSize float64,
	interval time.Duration,
	newsCount int,
	newsRetries int,
) *TradeCycle {
	return &TradeCycle{
		tracer:       tracer,
		news:         news,
		engine:       engine,
		market:       market,
		capital:      capital,
		executor:     executor,
		signals:      signals,
		recorder:     recorder,
		cache:        cache,
		symbol:       symbol,
		baseLot:      baseLot,
		contractSize: contractSize,
		interval:     interval,
		newsCount:    newsCount,
		newsRetries:  newsRetries,
		status:       StatusStarting,
		now:          time.Now,
	}
}

// Start runs the loop until ctx is cancelled. Blocks.
func (c *TradeCycle) Start(ctx context.Context) {
	log.Printf("trade cycle starting: %s every %s", c.symbol, c.interval)

	for {
		if err := c.iterate(ctx); err != nil {
			log.Printf("trade cycle iteration failed: %v", err)
		}

		c.setStatus(ctx, StatusSleeping)
		if !c.sleep(ctx) {
			break
		}
	}

	c.setStatus(context.WithoutCancel(ctx), StatusStopped)
	log.Println("trade cycle stopped")
}

func (c *TradeCycle) iterate(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "trade-cycle.iterate")
	defer span.End()

	c.setStatus(ctx, StatusCheckingNews)
	headlines := c.news.Headlines(ctx, c.newsCount, c.newsRetries)

	if c.engine.CheckNewsRisk(ctx, headlines) {
		span.SetAttributes(attribute.Bool("news.risk", true))
		c.setStatus(ctx, StatusClosingTrades)

		positions := c.market.Positions(ctx)
		closed, err := c.executor.CloseAll(ctx, positions)
		log.Printf("news risk: closed %d of %d positions", closed, len(positions))
		return err
	}

	positions := c.market.Positions(ctx)
	c.recorder.SyncPositions(ctx, positions)

	c.setStatus(ctx, StatusAnalyzing)
	snap, err := c.market.Snapshot(ctx, positions)
	if err != nil {
		return err
	}

	signal := c.engine.TradeSignal(ctx, positions, snap)
	span.SetAttributes(attribute.String("signal.type", string(signal)))

	sig := &domain.Signal{
		Symbol:      c.symbol,
		Type:        signal,
		GeneratedAt: c.now(),
	}
	signalID, err := c.signals.Create(ctx, sig)
	if err != nil {
		log.Printf("signal persist failed: %v", err)
		signalID = 0
	}

	if !signal.Tradeable() {
		return nil
	}
	if snap.TargetAchieved {
		log.Printf("daily profit target reached (%.2f), skipping new trades", snap.CurrentDailyProfit)
		return nil
	}

	budget, err := c.capital.RemainingBudget(ctx)
	if err != nil {
		return err
	}

	lot := service.LotSize(budget, snap.MidPrice(), c.baseLot, c.contractSize)
	if lot <= 0 {
		log.Printf("daily budget exhausted (%.2f remaining), skipping %s", budget, signal)
		return nil
	}

	c.setStatus(ctx, StatusPlacingOrder)
	req, res, err := c.executor.Place(ctx, signal, snap, lot)
	if err != nil {
		return err
	}

	// Only a confirmed fill commits capital and flips the signal.
	cost := lot * c.contractSize * res.Price
	if err := c.capital.Commit(ctx, cost); err != nil {
		log.Printf("investment commit failed: %v", err)
	}
	if err := c.recorder.RecordTrade(ctx, signalID, req, res); err != nil {
		log.Printf("trade record failed: %v", err)
	}
	if signalID != 0 {
		if err := c.recorder.MarkSignalExecuted(ctx, signalID); err != nil {
			log.Printf("mark signal executed failed: %v", err)
		}
	}
	return nil
}

// sleep waits out the check interval in one-second steps so shutdown is
// never stuck behind a long timer. Returns false when ctx was cancelled.
func (c *TradeCycle) sleep(ctx context.Context) bool {
	deadline := c.now().Add(c.interval)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !c.now().Before(deadline) {
				return true
			}
		}
	}
}

// Status returns the loop's current phase.
func (c *TradeCycle) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *TradeCycle) setStatus(ctx context.Context, status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, statusCacheKey, status, 2*c.interval).Err(); err != nil {
		log.Printf("status cache write failed: %v", err)
	}
}
