package repository

import (
	"context"
	"time"

	"fx-autopilot/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createNewsEventsTable = `
CREATE TABLE IF NOT EXISTS news_events (
    id         BIGSERIAL PRIMARY KEY,
    event_time TIMESTAMPTZ NOT NULL,
    name       TEXT        NOT NULL,
    currency   TEXT        NOT NULL,
    impact     TEXT        NOT NULL,
    forecast   TEXT        NOT NULL DEFAULT '',
    previous   TEXT        NOT NULL DEFAULT '',
    actual     TEXT        NOT NULL DEFAULT '',
    UNIQUE (event_time, name)
);

CREATE INDEX IF NOT EXISTS idx_news_events_time ON news_events (event_time);
`

type NewsRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewNewsRepository(pool PgxPool, tracer trace.Tracer) *NewsRepository {
	return &NewsRepository{pool: pool, tracer: tracer}
}

func (r *NewsRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "news-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createNewsEventsTable)
	return err
}

// Upsert stores a calendar refresh in one batch. Re-fetching the same feed is
// routine, so conflicts update the mutable fields instead of erroring.
func (r *NewsRepository) Upsert(ctx context.Context, events []domain.NewsEvent) error {
	ctx, span := r.tracer.Start(ctx, "news-repo.upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("events.count", len(events)))

	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(
			`INSERT INTO news_events (event_time, name, currency, impact, forecast, previous, actual)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (event_time, name) DO UPDATE
			 SET impact = EXCLUDED.impact,
			     forecast = EXCLUDED.forecast,
			     previous = EXCLUDED.previous,
			     actual = EXCLUDED.actual`,
			e.EventTime, e.Name, e.Currency, e.Impact, e.Forecast, e.Previous, e.Actual)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Upcoming lists events scheduled within the window starting at from.
func (r *NewsRepository) Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]domain.NewsEvent, error) {
	_, span := r.tracer.Start(ctx, "news-repo.upcoming")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, event_time, name, currency, impact, forecast, previous, actual
		 FROM news_events
		 WHERE event_time >= $1 AND event_time < $2
		 ORDER BY event_time`, from, from.Add(window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.NewsEvent
	for rows.Next() {
		var e domain.NewsEvent
		if err := rows.Scan(&e.ID, &e.EventTime, &e.Name, &e.Currency, &e.Impact, &e.Forecast, &e.Previous, &e.Actual); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
