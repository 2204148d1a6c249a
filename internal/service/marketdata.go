package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fx-autopilot/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	quoteCacheTTL = 60 * time.Second

	// predictionDamping discounts the linear extrapolation of today's hourly
	// profit rate over the hours left in the day.
	predictionDamping = 0.7
)

type Broker interface {
	Positions(ctx context.Context, symbol string) ([]domain.Position, error)
	SymbolInfo(ctx context.Context, symbol string) (*domain.Quote, error)
	AccountInfo(ctx context.Context) (*domain.AccountInfo, error)
}

type ClosedProfitReader interface {
	ClosedProfitBetween(ctx context.Context, from, to time.Time) (float64, error)
}

type SnapshotStore interface {
	Insert(ctx context.Context, s *domain.MarketSnapshot) error
	List(ctx context.Context, symbol string, limit int) ([]domain.MarketSnapshot, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketDataService assembles the decision engine's view of the market:
// live positions, quotes, account state, daily profit progress, and the
// end-of-day profit projection.
type MarketDataService struct {
	tracer    trace.Tracer
	broker    Broker
	closed    ClosedProfitReader
	snapshots SnapshotStore
	redis     RedisClient

	symbol      string
	dailyTarget float64
	loc         *time.Location
	now         func() time.Time
}

func NewMarketDataService(
	tracer trace.Tracer,
	broker Broker,
	closed ClosedProfitReader,
	snapshots SnapshotStore,
	redisClient RedisClient,
	symbol string,
	dailyTarget float64,
	loc *time.Location,
) *MarketDataService {
	return &MarketDataService{
		tracer:      tracer,
		broker:      broker,
		closed:      closed,
		snapshots:   snapshots,
		redis:       redisClient,
		symbol:      symbol,
		dailyTarget: dailyTarget,
		loc:         loc,
		now:         time.Now,
	}
}

// Positions fetches live positions for the configured symbol. A broker
// failure is logged and reported as no positions so one bad poll cannot
// stall the cycle.
func (s *MarketDataService) Positions(ctx context.Context) []domain.Position {
	ctx, span := s.tracer.Start(ctx, "marketdata.positions")
	defer span.End()

	positions, err := s.broker.Positions(ctx, s.symbol)
	if err != nil {
		span.RecordError(err)
		log.Printf("positions fetch failed, assuming none: %v", err)
		return nil
	}
	span.SetAttributes(attribute.Int("positions.count", len(positions)))
	return positions
}

// Snapshot builds the full market snapshot. Quote or account failure is
// fatal for the snapshot; derived fields degrade gracefully instead.
func (s *MarketDataService) Snapshot(ctx context.Context, positions []domain.Position) (*domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "marketdata.snapshot")
	defer span.End()

	quote, err := s.broker.SymbolInfo(ctx, s.symbol)
	if err != nil {
		return nil, fmt.Errorf("symbol info: %w", err)
	}
	account, err := s.broker.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("account info: %w", err)
	}

	now := s.now().In(s.loc)
	snap := &domain.MarketSnapshot{
		Symbol:            s.symbol,
		Bid:               quote.Bid,
		Ask:               quote.Ask,
		BidHigh:           quote.BidHigh,
		BidLow:            quote.BidLow,
		AskHigh:           quote.AskHigh,
		AskLow:            quote.AskLow,
		Spread:            quote.Spread,
		Balance:           account.Balance,
		Equity:            account.Equity,
		Margin:            account.Margin,
		MarginFree:        account.MarginFree,
		MarginLevel:       account.MarginLevel,
		DailyProfitTarget: s.dailyTarget,
		CapturedAt:        now,
	}

	snap.CurrentDailyProfit = s.dailyProfit(ctx, now, positions)
	snap.TargetAchieved = s.dailyTarget > 0 && snap.CurrentDailyProfit >= s.dailyTarget
	s.predict(snap, now, positions)

	s.cacheQuote(ctx, quote)
	if err := s.snapshots.Insert(ctx, snap); err != nil {
		log.Printf("snapshot persist failed: %v", err)
	}
	return snap, nil
}

// dailyProfit sums profit of trades closed today plus floating profit of
// open positions. Day boundaries follow the configured timezone.
func (s *MarketDataService) dailyProfit(ctx context.Context, now time.Time, positions []domain.Position) float64 {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	closed, err := s.closed.ClosedProfitBetween(ctx, dayStart, dayEnd)
	if err != nil {
		log.Printf("closed profit query failed, using open profit only: %v", err)
	}

	open := 0.0
	for _, p := range positions {
		open += p.Profit
	}
	return closed + open
}

// predict extrapolates today's hourly profit rate over the hours left in the
// day, damped. No open positions means no projection.
func (s *MarketDataService) predict(snap *domain.MarketSnapshot, now time.Time, positions []domain.Position) {
	if len(positions) == 0 {
		return
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	hoursPassed := now.Sub(dayStart).Hours()
	hoursLeft := 24 - hoursPassed

	avgHourly := 0.0
	if hoursPassed > 0 {
		avgHourly = snap.CurrentDailyProfit / hoursPassed
	}
	predicted := snap.CurrentDailyProfit + avgHourly*hoursLeft*predictionDamping
	snap.PredictedProfit = &predicted

	open := 0.0
	for _, p := range positions {
		open += p.Profit
	}
	switch {
	case open > 0:
		snap.PredictedDirection = "UP"
	case open < 0:
		snap.PredictedDirection = "DOWN"
	default:
		snap.PredictedDirection = "NEUTRAL"
	}
}

func (s *MarketDataService) cacheQuote(ctx context.Context, quote *domain.Quote) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(quote)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, quoteCacheKey(quote.Symbol), data, quoteCacheTTL).Err(); err != nil {
		log.Printf("quote cache write failed: %v", err)
	}
}

// CachedQuote returns the last cached quote, nil on miss or error.
func (s *MarketDataService) CachedQuote(ctx context.Context) *domain.Quote {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, quoteCacheKey(s.symbol)).Result()
	if err != nil {
		return nil
	}
	var quote domain.Quote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil
	}
	return &quote
}

// Snapshots lists recent persisted snapshots for reporting surfaces.
func (s *MarketDataService) Snapshots(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "marketdata.snapshots")
	defer span.End()

	return s.snapshots.List(ctx, s.symbol, limit)
}

func quoteCacheKey(symbol string) string {
	return "quote:" + symbol
}
