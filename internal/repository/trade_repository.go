package repository

import (
	"context"
	"errors"
	"time"

	"fx-autopilot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

// PgxPool is the subset of pgxpool.Pool the repositories need.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
    id           BIGSERIAL PRIMARY KEY,
    ticket       BIGINT      NOT NULL UNIQUE,
    symbol       TEXT        NOT NULL,
    side         TEXT        NOT NULL,
    volume       DOUBLE PRECISION NOT NULL,
    price_open   DOUBLE PRECISION NOT NULL,
    price_close  DOUBLE PRECISION,
    profit       DOUBLE PRECISION,
    time_open    TIMESTAMPTZ NOT NULL,
    time_close   TIMESTAMPTZ,
    is_active    BOOLEAN     NOT NULL DEFAULT TRUE,
    signal_id    BIGINT      REFERENCES signals(id)
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol_active ON trades (symbol, is_active);
CREATE INDEX IF NOT EXISTS idx_trades_time_close ON trades (time_close);
`

const tradeColumns = `id, ticket, symbol, side, volume, price_open, price_close, profit, time_open, time_close, is_active, signal_id`

type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createTradesTable)
	return err
}

// Create records a newly observed broker trade. A ticket already on file is
// left untouched; the ticket is the external identity and wins.
func (r *TradeRepository) Create(ctx context.Context, t *domain.Trade) error {
	_, span := r.tracer.Start(ctx, "trade-repo.create")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO trades (ticket, symbol, side, volume, price_open, profit, time_open, is_active, signal_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
		 ON CONFLICT (ticket) DO NOTHING`,
		t.Ticket, t.Symbol, string(t.Side), t.Volume, t.PriceOpen, t.Profit, t.TimeOpen, t.SignalID,
	)
	return err
}

// GetByTicket returns nil without error when the ticket is unknown.
func (r *TradeRepository) GetByTicket(ctx context.Context, ticket int64) (*domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.get-by-ticket")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE ticket = $1`, ticket)
	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *TradeRepository) UpdateProfit(ctx context.Context, ticket int64, profit float64) error {
	_, span := r.tracer.Start(ctx, "trade-repo.update-profit")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE trades SET profit = $2 WHERE ticket = $1 AND is_active`, ticket, profit)
	return err
}

// Close finalizes a trade. The is_active guard makes the operation
// idempotent: a second close of the same ticket is a no-op.
func (r *TradeRepository) Close(ctx context.Context, ticket int64, priceClose, profit float64, closedAt time.Time) error {
	_, span := r.tracer.Start(ctx, "trade-repo.close")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE trades
		 SET price_close = $2, profit = $3, time_close = $4, is_active = FALSE
		 WHERE ticket = $1 AND is_active`,
		ticket, priceClose, profit, closedAt)
	return err
}

func (r *TradeRepository) ListActive(ctx context.Context, symbol string) ([]domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.list-active")
	defer span.End()

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE is_active`
	args := []any{}
	if symbol != "" {
		query += ` AND symbol = $1`
		args = append(args, symbol)
	}
	query += ` ORDER BY time_open DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (r *TradeRepository) List(ctx context.Context, limit int) ([]domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades ORDER BY time_open DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ClosedProfitBetween sums profit of trades closed within [from, to).
func (r *TradeRepository) ClosedProfitBetween(ctx context.Context, from, to time.Time) (float64, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.closed-profit-between")
	defer span.End()

	var sum float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(profit), 0)
		 FROM trades
		 WHERE NOT is_active AND time_close >= $1 AND time_close < $2`,
		from, to).Scan(&sum)
	return sum, err
}

func (r *TradeRepository) Stats(ctx context.Context) (*domain.TradeStats, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.stats")
	defer span.End()

	var s domain.TradeStats
	var wins int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_active),
		        COUNT(*) FILTER (WHERE NOT is_active),
		        COUNT(*) FILTER (WHERE NOT is_active AND profit > 0),
		        COALESCE(SUM(profit), 0)
		 FROM trades`).Scan(&s.TotalTrades, &s.OpenTrades, &s.ClosedTrades, &wins, &s.TotalProfit)
	if err != nil {
		return nil, err
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(wins) / float64(s.ClosedTrades) * 100
	}
	if s.TotalTrades > 0 {
		s.AvgProfit = s.TotalProfit / float64(s.TotalTrades)
	}
	return &s, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var side string
	err := row.Scan(&t.ID, &t.Ticket, &t.Symbol, &side, &t.Volume, &t.PriceOpen,
		&t.PriceClose, &t.Profit, &t.TimeOpen, &t.TimeClose, &t.IsActive, &t.SignalID)
	if err != nil {
		return nil, err
	}
	t.Side = domain.Side(side)
	return &t, nil
}

func scanTrades(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}
