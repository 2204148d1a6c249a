package repository

import (
	"context"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createSignalsTable = `
CREATE TABLE IF NOT EXISTS signals (
    id           BIGSERIAL PRIMARY KEY,
    symbol       TEXT        NOT NULL,
    type         TEXT        NOT NULL,
    confidence   DOUBLE PRECISION,
    reason       TEXT        NOT NULL DEFAULT '',
    generated_at TIMESTAMPTZ NOT NULL,
    executed     BOOLEAN     NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_signals_generated_at ON signals (generated_at);
`

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSignalsTable)
	return err
}

// Create persists a decision and returns its id. Every decision cycle stores
// its signal, executed or not, so the decision log is complete.
func (r *SignalRepository) Create(ctx context.Context, s *domain.Signal) (int64, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.create")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO signals (symbol, type, confidence, reason, generated_at, executed)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING id`,
		s.Symbol, string(s.Type), s.Confidence, s.Reason, s.GeneratedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

// MarkExecuted flips the executed flag once. The NOT executed guard keeps a
// replayed confirmation from touching the row twice.
func (r *SignalRepository) MarkExecuted(ctx context.Context, id int64) error {
	_, span := r.tracer.Start(ctx, "signal-repo.mark-executed")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE signals SET executed = TRUE WHERE id = $1 AND NOT executed`, id)
	return err
}

func (r *SignalRepository) List(ctx context.Context, limit int) ([]domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, type, confidence, reason, generated_at, executed
		 FROM signals ORDER BY generated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var s domain.Signal
		var typ string
		if err := rows.Scan(&s.ID, &s.Symbol, &typ, &s.Confidence, &s.Reason, &s.GeneratedAt, &s.Executed); err != nil {
			return nil, err
		}
		s.Type = domain.SignalType(typ)
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
