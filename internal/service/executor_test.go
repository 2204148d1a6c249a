package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fx-autopilot/internal/domain"
)

type mockBroker struct {
	quote    *domain.Quote
	quoteErr error

	requests []domain.OrderRequest
	results  []*domain.OrderResult
	errs     []error
}

func (m *mockBroker) Positions(ctx context.Context, symbol string) ([]domain.Position, error) {
	return nil, nil
}

func (m *mockBroker) SymbolInfo(ctx context.Context, symbol string) (*domain.Quote, error) {
	return m.quote, m.quoteErr
}

func (m *mockBroker) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	return &domain.AccountInfo{}, nil
}

func (m *mockBroker) OrderSend(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	m.requests = append(m.requests, req)
	i := len(m.requests) - 1
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var res *domain.OrderResult
	if i < len(m.results) {
		res = m.results[i]
	}
	return res, err
}

type mockRecorder struct {
	finalized []int64
}

func (m *mockRecorder) FinalizeClose(ctx context.Context, p domain.Position, res *domain.OrderResult) error {
	m.finalized = append(m.finalized, p.Ticket)
	return nil
}

func TestPlaceBuyLiftsAsk(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{results: []*domain.OrderResult{{Success: true, RetCode: 10009, Ticket: 42, Price: 1.1002}}}
	exec := NewExecutorService(testTracer, broker, &mockRecorder{}, "EURUSD", 10)
	snap := &domain.MarketSnapshot{Bid: 1.1, Ask: 1.1002}

	req, res, err := exec.Place(context.Background(), domain.SignalBuy, snap, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Side != domain.SideBuy || req.Price != 1.1002 {
		t.Errorf("buy should lift the ask, got %s @ %v", req.Side, req.Price)
	}
	if req.Deviation != 10 || req.Volume != 0.01 || req.Position != 0 {
		t.Errorf("unexpected request: %+v", req)
	}
	if res.Ticket != 42 {
		t.Errorf("expected ticket 42, got %d", res.Ticket)
	}
}

func TestPlaceSellHitsBid(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{results: []*domain.OrderResult{{Success: true, Ticket: 7, Price: 1.1}}}
	exec := NewExecutorService(testTracer, broker, &mockRecorder{}, "EURUSD", 10)
	snap := &domain.MarketSnapshot{Bid: 1.1, Ask: 1.1002}

	req, _, err := exec.Place(context.Background(), domain.SignalSell, snap, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Side != domain.SideSell || req.Price != 1.1 {
		t.Errorf("sell should hit the bid, got %s @ %v", req.Side, req.Price)
	}
}

func TestPlaceRejectionIsError(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{results: []*domain.OrderResult{{Success: false, RetCode: 10019, Comment: "no money"}}}
	exec := NewExecutorService(testTracer, broker, &mockRecorder{}, "EURUSD", 10)
	snap := &domain.MarketSnapshot{Bid: 1.1, Ask: 1.1002}

	_, _, err := exec.Place(context.Background(), domain.SignalBuy, snap, 0.01)
	if err == nil || !strings.Contains(err.Error(), "10019") {
		t.Fatalf("expected rejection error with retcode, got %v", err)
	}
}

func TestPlaceRefusesNoTrade(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{}
	exec := NewExecutorService(testTracer, broker, &mockRecorder{}, "EURUSD", 10)

	_, _, err := exec.Place(context.Background(), domain.SignalNoTrade, &domain.MarketSnapshot{}, 0.01)
	if err == nil {
		t.Fatal("expected error for non-tradeable signal")
	}
	if len(broker.requests) != 0 {
		t.Fatal("no order should reach the broker")
	}
}

func TestCloseAllOpposesEachPosition(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{
		quote: &domain.Quote{Bid: 1.1, Ask: 1.1002},
		results: []*domain.OrderResult{
			{Success: true, Ticket: 101, Price: 1.1},
			{Success: true, Ticket: 102, Price: 1.1002},
		},
	}
	recorder := &mockRecorder{}
	exec := NewExecutorService(testTracer, broker, recorder, "EURUSD", 10)

	positions := []domain.Position{
		{Ticket: 1, Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.01, Profit: 1.5},
		{Ticket: 2, Symbol: "EURUSD", Side: domain.SideSell, Volume: 0.03, Profit: -0.5},
	}

	closed, err := exec.CloseAll(context.Background(), positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed != 2 {
		t.Fatalf("expected 2 closed, got %d", closed)
	}

	first, second := broker.requests[0], broker.requests[1]
	if first.Side != domain.SideSell || first.Price != 1.1 || first.Volume != 0.01 || first.Position != 1 {
		t.Errorf("closing a buy should sell the exact volume at the bid against the ticket: %+v", first)
	}
	if second.Side != domain.SideBuy || second.Price != 1.1002 || second.Volume != 0.03 || second.Position != 2 {
		t.Errorf("closing a sell should buy the exact volume at the ask against the ticket: %+v", second)
	}
	if len(recorder.finalized) != 2 {
		t.Errorf("expected both trades finalized, got %v", recorder.finalized)
	}
}

func TestCloseAllFailuresAreIndependent(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{
		quote: &domain.Quote{Bid: 1.1, Ask: 1.1002},
		results: []*domain.OrderResult{
			nil,
			{Success: true, Ticket: 102, Price: 1.1},
		},
		errs: []error{errors.New("timeout"), nil},
	}
	recorder := &mockRecorder{}
	exec := NewExecutorService(testTracer, broker, recorder, "EURUSD", 10)

	positions := []domain.Position{
		{Ticket: 1, Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.01},
		{Ticket: 2, Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.02},
	}

	closed, err := exec.CloseAll(context.Background(), positions)
	if closed != 1 {
		t.Fatalf("expected 1 closed despite first failure, got %d", closed)
	}
	if err == nil || !strings.Contains(err.Error(), "ticket 1") {
		t.Fatalf("expected joined error naming ticket 1, got %v", err)
	}
	if len(recorder.finalized) != 1 || recorder.finalized[0] != 2 {
		t.Errorf("only the closed position should be finalized, got %v", recorder.finalized)
	}
}

func TestCloseAllNoPositions(t *testing.T) {
	t.Parallel()

	broker := &mockBroker{}
	exec := NewExecutorService(testTracer, broker, &mockRecorder{}, "EURUSD", 10)

	closed, err := exec.CloseAll(context.Background(), nil)
	if closed != 0 || err != nil {
		t.Fatalf("expected no-op, got %d, %v", closed, err)
	}
	if len(broker.requests) != 0 {
		t.Fatal("no orders expected")
	}
}
