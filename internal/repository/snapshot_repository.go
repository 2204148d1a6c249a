package repository

import (
	"context"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS market_snapshots (
    id                   BIGSERIAL PRIMARY KEY,
    symbol               TEXT        NOT NULL,
    bid                  DOUBLE PRECISION NOT NULL,
    ask                  DOUBLE PRECISION NOT NULL,
    bid_high             DOUBLE PRECISION NOT NULL,
    bid_low              DOUBLE PRECISION NOT NULL,
    ask_high             DOUBLE PRECISION NOT NULL,
    ask_low              DOUBLE PRECISION NOT NULL,
    spread               DOUBLE PRECISION NOT NULL,
    balance              DOUBLE PRECISION NOT NULL,
    equity               DOUBLE PRECISION NOT NULL,
    margin               DOUBLE PRECISION NOT NULL,
    margin_free          DOUBLE PRECISION NOT NULL,
    margin_level         DOUBLE PRECISION NOT NULL,
    daily_profit_target  DOUBLE PRECISION NOT NULL,
    current_daily_profit DOUBLE PRECISION NOT NULL,
    target_achieved      BOOLEAN     NOT NULL,
    predicted_profit     DOUBLE PRECISION,
    predicted_direction  TEXT        NOT NULL DEFAULT '',
    captured_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_captured ON market_snapshots (symbol, captured_at);
`

// SnapshotRepository is append-only: snapshots are an audit trail of what the
// decision engine saw, never updated after the fact.
type SnapshotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, tracer: tracer}
}

func (r *SnapshotRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSnapshotsTable)
	return err
}

func (r *SnapshotRepository) Insert(ctx context.Context, s *domain.MarketSnapshot) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.insert")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO market_snapshots (
		    symbol, bid, ask, bid_high, bid_low, ask_high, ask_low, spread,
		    balance, equity, margin, margin_free, margin_level,
		    daily_profit_target, current_daily_profit, target_achieved,
		    predicted_profit, predicted_direction, captured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		s.Symbol, s.Bid, s.Ask, s.BidHigh, s.BidLow, s.AskHigh, s.AskLow, s.Spread,
		s.Balance, s.Equity, s.Margin, s.MarginFree, s.MarginLevel,
		s.DailyProfitTarget, s.CurrentDailyProfit, s.TargetAchieved,
		s.PredictedProfit, s.PredictedDirection, s.CapturedAt)
	return err
}

func (r *SnapshotRepository) List(ctx context.Context, symbol string, limit int) ([]domain.MarketSnapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, bid, ask, bid_high, bid_low, ask_high, ask_low, spread,
		        balance, equity, margin, margin_free, margin_level,
		        daily_profit_target, current_daily_profit, target_achieved,
		        predicted_profit, predicted_direction, captured_at
		 FROM market_snapshots
		 WHERE symbol = $1
		 ORDER BY captured_at DESC
		 LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.MarketSnapshot
	for rows.Next() {
		var s domain.MarketSnapshot
		if err := rows.Scan(&s.Symbol, &s.Bid, &s.Ask, &s.BidHigh, &s.BidLow, &s.AskHigh, &s.AskLow, &s.Spread,
			&s.Balance, &s.Equity, &s.Margin, &s.MarginFree, &s.MarginLevel,
			&s.DailyProfitTarget, &s.CurrentDailyProfit, &s.TargetAchieved,
			&s.PredictedProfit, &s.PredictedDirection, &s.CapturedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
