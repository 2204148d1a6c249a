package job

import (
	"context"
	"errors"
	"testing"

	"fx-autopilot/internal/domain"
	"fx-autopilot/internal/provider"
)

type mockEventSource struct {
	events []provider.CalendarEvent
	err    error
}

func (m *mockEventSource) FetchEvents(ctx context.Context) ([]provider.CalendarEvent, error) {
	return m.events, m.err
}

type mockNewsStore struct {
	upserted [][]domain.NewsEvent
	err      error
}

func (m *mockNewsStore) Upsert(ctx context.Context, events []domain.NewsEvent) error {
	m.upserted = append(m.upserted, events)
	return m.err
}

func TestCalendarRefreshStoresParseableEvents(t *testing.T) {
	t.Parallel()

	source := &mockEventSource{events: []provider.CalendarEvent{
		{Date: "2025-06-02T14:30:00-04:00", Title: "NFP", Country: "USD", Impact: "High"},
		{Date: "not a date", Title: "Broken", Country: "EUR", Impact: "Low"},
	}}
	store := &mockNewsStore{}
	r := NewCalendarRefresher(testTracer, source, store, "0 */6 * * *")

	if err := r.refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected one upsert batch, got %d", len(store.upserted))
	}
	if len(store.upserted[0]) != 1 || store.upserted[0][0].Name != "NFP" {
		t.Errorf("expected only the parseable event, got %v", store.upserted[0])
	}
}

func TestCalendarRefreshPropagatesFetchError(t *testing.T) {
	t.Parallel()

	source := &mockEventSource{err: errors.New("feed down")}
	store := &mockNewsStore{}
	r := NewCalendarRefresher(testTracer, source, store, "0 */6 * * *")

	if err := r.refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(store.upserted) != 0 {
		t.Error("failed fetch must not write")
	}
}
