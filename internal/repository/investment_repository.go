package repository

import (
	"context"
	"time"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createDailyInvestmentsTable = `
CREATE TABLE IF NOT EXISTS daily_investments (
    id     BIGSERIAL PRIMARY KEY,
    date   DATE NOT NULL UNIQUE,
    amount DOUBLE PRECISION NOT NULL DEFAULT 0
);
`

// InvestmentRepository tracks capital committed per local trading day. The
// date column holds the day in the bot's configured timezone.
type InvestmentRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewInvestmentRepository(pool PgxPool, tracer trace.Tracer) *InvestmentRepository {
	return &InvestmentRepository{pool: pool, tracer: tracer}
}

func (r *InvestmentRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "investment-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createDailyInvestmentsTable)
	return err
}

// AmountOn returns the committed amount for the given day, zero if no row.
func (r *InvestmentRepository) AmountOn(ctx context.Context, day time.Time) (float64, error) {
	_, span := r.tracer.Start(ctx, "investment-repo.amount-on")
	defer span.End()

	var amount float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM daily_investments WHERE date = $1::date`,
		day.Format(time.DateOnly)).Scan(&amount)
	return amount, err
}

// Add accumulates committed capital for the day, creating the row on first use.
func (r *InvestmentRepository) Add(ctx context.Context, day time.Time, amount float64) error {
	_, span := r.tracer.Start(ctx, "investment-repo.add")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO daily_investments (date, amount)
		 VALUES ($1::date, $2)
		 ON CONFLICT (date) DO UPDATE SET amount = daily_investments.amount + EXCLUDED.amount`,
		day.Format(time.DateOnly), amount)
	return err
}

func (r *InvestmentRepository) List(ctx context.Context, limit int) ([]domain.DailyInvestment, error) {
	_, span := r.tracer.Start(ctx, "investment-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, date, amount FROM daily_investments ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.DailyInvestment
	for rows.Next() {
		var e domain.DailyInvestment
		if err := rows.Scan(&e.ID, &e.Date, &e.Amount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
