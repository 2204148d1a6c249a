package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// CalendarEvent is one raw entry of the economic calendar feed.
type CalendarEvent struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Country  string `json:"country"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	Actual   string `json:"actual"`
}

// CalendarProvider fetches and ranks upcoming economic news events.
// Headlines never fails: after maxRetries attempts it falls back to a
// synthetic, clearly labeled headline set so the risk check always has input.
type CalendarProvider struct {
	client    *http.Client
	feedURL   string
	tracer    trace.Tracer
	limiter   *RateLimiter
	baseDelay time.Duration
	now       func() time.Time
}

func NewCalendarProvider(feedURL string, tracer trace.Tracer) *CalendarProvider {
	return &CalendarProvider{
		client:    &http.Client{Timeout: 10 * time.Second},
		feedURL:   feedURL,
		tracer:    tracer,
		limiter:   NewRateLimiter(6, 10*time.Second),
		baseDelay: time.Second,
		now:       time.Now,
	}
}

// FetchEvents performs a single fetch+parse of the calendar feed.
func (p *CalendarProvider) FetchEvents(ctx context.Context) ([]CalendarEvent, error) {
	ctx, span := p.tracer.Start(ctx, "calendar.fetch-events")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar fetch error %d: %s", resp.StatusCode, string(body))
	}

	var events []CalendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("parse calendar payload: %w", err)
	}
	return events, nil
}

// Headlines returns at most count formatted headlines, highest impact first.
// Transport and parse failures are retried with exponential backoff; when all
// attempts fail the synthetic fallback set is returned instead of an error.
func (p *CalendarProvider) Headlines(ctx context.Context, count, maxRetries int) string {
	ctx, span := p.tracer.Start(ctx, "calendar.headlines")
	defer span.End()

	if count <= 0 {
		count = 5
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		events, err := p.FetchEvents(ctx)
		if err == nil {
			if formatted := FormatHeadlines(events, count, p.now()); formatted != "" {
				return formatted
			}
			err = fmt.Errorf("calendar feed returned no usable events")
		}

		log.Printf("calendar fetch attempt %d/%d failed: %v", attempt+1, maxRetries, err)
		if attempt < maxRetries-1 {
			delay := p.baseDelay << attempt
			select {
			case <-ctx.Done():
				return FallbackHeadlines(p.now())
			case <-time.After(delay):
			}
		}
	}

	log.Println("calendar feed unavailable, using synthetic headlines")
	return FallbackHeadlines(p.now())
}

// EventsForStorage converts raw events to persistable records. Events whose
// timestamps cannot be parsed are dropped; storage needs a concrete time.
func EventsForStorage(events []CalendarEvent) []domain.NewsEvent {
	out := make([]domain.NewsEvent, 0, len(events))
	for _, e := range events {
		at, ok := parseEventTime(e.Date)
		if !ok {
			continue
		}
		out = append(out, domain.NewsEvent{
			EventTime: at,
			Name:      e.Title,
			Currency:  e.Country,
			Impact:    e.Impact,
			Actual:    e.Actual,
			Forecast:  e.Forecast,
			Previous:  e.Previous,
		})
	}
	return out
}

type rankedEvent struct {
	CalendarEvent
	at        time.Time
	parsed    bool
	proximity float64
}

var impactPriority = map[string]int{
	"High":   3,
	"Medium": 2,
	"Low":    1,
	"":       0,
}

// rankEvents orders by impact descending, then by proximity of the event
// time to now (closest first). Unparseable timestamps sort last within
// their impact tier.
func rankEvents(events []CalendarEvent, now time.Time) []rankedEvent {
	ranked := make([]rankedEvent, 0, len(events))
	for _, e := range events {
		r := rankedEvent{CalendarEvent: e, proximity: math.Inf(1)}
		if at, ok := parseEventTime(e.Date); ok {
			r.at = at
			r.parsed = true
			r.proximity = math.Abs(at.Sub(now).Seconds())
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		pi := impactPriority[ranked[i].Impact]
		pj := impactPriority[ranked[j].Impact]
		if pi != pj {
			return pi > pj
		}
		return ranked[i].proximity < ranked[j].proximity
	})
	return ranked
}

// FormatHeadlines renders the top count ranked events, newline-joined.
func FormatHeadlines(events []CalendarEvent, count int, now time.Time) string {
	ranked := rankEvents(events, now)
	if len(ranked) > count {
		ranked = ranked[:count]
	}

	headlines := make([]string, 0, len(ranked))
	for _, e := range ranked {
		headlines = append(headlines, formatEvent(e, now))
	}
	return strings.Join(headlines, "\n")
}

func formatEvent(e rankedEvent, now time.Time) string {
	at := now
	if e.parsed {
		at = e.at
	}

	parts := make([]string, 0, 5)
	if e.Country != "" {
		parts = append(parts, "["+e.Country+"]")
	}
	if e.Impact != "" {
		parts = append(parts, "["+e.Impact+" Impact]")
	}
	title := e.Title
	if title == "" {
		title = "Unknown Event"
	}
	parts = append(parts, title)
	if e.Forecast != "" {
		parts = append(parts, "Forecast: "+e.Forecast)
	}
	if e.Previous != "" {
		parts = append(parts, "Previous: "+e.Previous)
	}

	return at.Format("2006-01-02 15:04") + " - " + strings.Join(parts, " ")
}

// FallbackHeadlines is the deterministic offline set. The Synthetic tag makes
// clear to both logs and the decision engine that this is not live data.
func FallbackHeadlines(now time.Time) string {
	stamp := now.Format("2006-01-02 15:04")
	lines := []string{
		stamp + " - [Synthetic] [USD] [High Impact] FOMC Statement - Rate decision expected",
		stamp + " - [Synthetic] [EUR] [Medium Impact] German Factory Orders m/m Forecast: 0.8% Previous: -2.1%",
		stamp + " - [Synthetic] [GBP] [High Impact] BOE Inflation Report and Rate Decision",
		stamp + " - [Synthetic] [JPY] [Medium Impact] Monetary Policy Statement - Expected to maintain rates",
		stamp + " - [Synthetic] [USD] [High Impact] Non-Farm Payrolls Forecast: 180K Previous: 165K",
	}
	return strings.Join(lines, "\n")
}

func parseEventTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
