package job

import (
	"context"
	"log"

	"fx-autopilot/internal/domain"
	"fx-autopilot/internal/provider"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EventSource interface {
	FetchEvents(ctx context.Context) ([]provider.CalendarEvent, error)
}

type NewsStore interface {
	Upsert(ctx context.Context, events []domain.NewsEvent) error
}

// CalendarRefresher persists the economic calendar on a cron schedule so the
// API and Telegram surfaces can serve upcoming events without hitting the
// feed.
type CalendarRefresher struct {
	tracer   trace.Tracer
	source   EventSource
	store    NewsStore
	schedule string
}

func NewCalendarRefresher(tracer trace.Tracer, source EventSource, store NewsStore, schedule string) *CalendarRefresher {
	return &CalendarRefresher{
		tracer:   tracer,
		source:   source,
		store:    store,
		schedule: schedule,
	}
}

// Start refreshes once immediately, then on the cron schedule. Blocks until
// ctx is cancelled.
func (c *CalendarRefresher) Start(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		log.Printf("calendar initial refresh failed: %v", err)
	}

	runner := cron.New()
	_, err := runner.AddFunc(c.schedule, func() {
		if err := c.refresh(ctx); err != nil {
			log.Printf("calendar refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	runner.Start()
	<-ctx.Done()

	stopped := runner.Stop()
	<-stopped.Done()
	log.Println("calendar refresher stopped")
	return nil
}

func (c *CalendarRefresher) refresh(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "calendar-refresher.refresh")
	defer span.End()

	events, err := c.source.FetchEvents(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	storable := provider.EventsForStorage(events)
	span.SetAttributes(attribute.Int("events.count", len(storable)))
	if err := c.store.Upsert(ctx, storable); err != nil {
		span.RecordError(err)
		return err
	}

	log.Printf("calendar refreshed: %d events stored", len(storable))
	return nil
}
