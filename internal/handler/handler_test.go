package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fx-autopilot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type mockTradeReader struct {
	trades []domain.Trade
	stats  *domain.TradeStats
	err    error
}

func (m *mockTradeReader) List(ctx context.Context, limit int) ([]domain.Trade, error) {
	return m.trades, m.err
}

func (m *mockTradeReader) ListActive(ctx context.Context, symbol string) ([]domain.Trade, error) {
	return m.trades, m.err
}

func (m *mockTradeReader) Stats(ctx context.Context) (*domain.TradeStats, error) {
	return m.stats, m.err
}

type mockSignalReader struct{ signals []domain.Signal }

func (m *mockSignalReader) List(ctx context.Context, limit int) ([]domain.Signal, error) {
	return m.signals, nil
}

type mockInvestmentReader struct{ entries []domain.DailyInvestment }

func (m *mockInvestmentReader) History(ctx context.Context, limit int) ([]domain.DailyInvestment, error) {
	return m.entries, nil
}

type mockMarketReader struct {
	snaps []domain.MarketSnapshot
	quote *domain.Quote
}

func (m *mockMarketReader) Snapshots(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	return m.snaps, nil
}

func (m *mockMarketReader) CachedQuote(ctx context.Context) *domain.Quote { return m.quote }

type mockNewsReader struct{ events []domain.NewsEvent }

func (m *mockNewsReader) Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]domain.NewsEvent, error) {
	return m.events, nil
}

type mockStatusReader struct{ status string }

func (m *mockStatusReader) Status() string { return m.status }

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func newTestHandler(apiKey string) (*Handler, *mockTradeReader) {
	trades := &mockTradeReader{stats: &domain.TradeStats{}}
	h := New(testTracer, trades, &mockSignalReader{}, &mockInvestmentReader{},
		&mockMarketReader{}, &mockNewsReader{}, &mockStatusReader{status: "sleeping"}, apiKey)
	return h, trades
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler("")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"service":"fx-autopilot","status":"healthy"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestGetTrades(t *testing.T) {
	h, trades := newTestHandler("")
	trades.trades = []domain.Trade{{Ticket: 42, Symbol: "EURUSD", Side: domain.SideBuy}}
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/trades", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var got []domain.Trade
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got) != 1 || got[0].Ticket != 42 {
		t.Errorf("unexpected trades: %v", got)
	}
}

func TestGetTradesError(t *testing.T) {
	h, trades := newTestHandler("")
	trades.err = errors.New("db down")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/trades", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
}

func TestGetStatus(t *testing.T) {
	h, _ := newTestHandler("")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["status"] != "sleeping" {
		t.Errorf("unexpected status: %v", body["status"])
	}
	if _, ok := body["quote"]; ok {
		t.Error("no cached quote expected")
	}
}

func TestAPIKeyEnforced(t *testing.T) {
	h, _ := newTestHandler("secret")
	r := newTestRouter(h)

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusForbidden},
		{"right key", "secret", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/trades", nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestHealthBypassesAPIKey(t *testing.T) {
	h, _ := newTestHandler("secret")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health should not require a key, got %d", w.Code)
	}
}
