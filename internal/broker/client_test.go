package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestLogin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login request: %v", err)
		}
		if req.Account != 42 || req.Server != "Demo" {
			t.Errorf("unexpected login payload: %+v", req)
		}
		json.NewEncoder(w).Encode(loginResponse{Authorized: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	if err := c.Login(context.Background(), 42, "pw", "Demo"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(loginResponse{Authorized: false, Message: "bad credentials"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	if err := c.Login(context.Background(), 42, "pw", "Demo"); err == nil {
		t.Fatal("expected login error")
	}
}

func TestPositions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "EURUSD" {
			t.Errorf("expected symbol query, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"positions": []gatewayPosition{
				{Ticket: 1001, Symbol: "EURUSD", Type: 0, Volume: 0.01, PriceOpen: 1.1, Profit: 2.5, Time: 1700000000},
				{Ticket: 1002, Symbol: "EURUSD", Type: 1, Volume: 0.02, PriceOpen: 1.2, Profit: -1.0, Time: 1700000100},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	positions, err := c.Positions(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Side != domain.SideBuy || positions[1].Side != domain.SideSell {
		t.Fatalf("type mapping wrong: %+v", positions)
	}
	if positions[0].Ticket != 1001 || positions[0].Profit != 2.5 {
		t.Fatalf("unexpected position: %+v", positions[0])
	}
}

func TestSymbolInfo(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/symbols/EURUSD" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(gatewayQuote{
			Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1002, Spread: 2,
			Point: 0.00001, Digits: 5, ContractSize: 100000, Time: 1700000000,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	quote, err := c.SymbolInfo(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Bid != 1.1000 || quote.Ask != 1.1002 || quote.ContractSize != 100000 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestOrderSend(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req orderSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode order request: %v", err)
		}
		if req.Action != "deal" || req.Type != 1 || req.Filling != "ioc" {
			t.Errorf("unexpected order payload: %+v", req)
		}
		json.NewEncoder(w).Encode(orderSendResponse{Retcode: TradeRetcodeDone, Order: 5001, Price: 1.0999})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	result, err := c.OrderSend(context.Background(), domain.OrderRequest{
		Symbol: "EURUSD", Side: domain.SideSell, Volume: 0.01, Price: 1.1, Deviation: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Ticket != 5001 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestOrderSendRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orderSendResponse{Retcode: 10019, Comment: "no money"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	result, err := c.OrderSend(context.Background(), domain.OrderRequest{
		Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.01, Price: 1.1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("rejected order must not report success")
	}
}

func TestGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "terminal not connected", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testTracer)
	if _, err := c.Positions(context.Background(), "EURUSD"); err == nil {
		t.Fatal("expected error on gateway failure")
	}
}
