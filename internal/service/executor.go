package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const orderComment = "fx-autopilot"

type OrderBroker interface {
	SymbolInfo(ctx context.Context, symbol string) (*domain.Quote, error)
	OrderSend(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}

type CloseRecorder interface {
	FinalizeClose(ctx context.Context, p domain.Position, res *domain.OrderResult) error
}

// ExecutorService turns decisions into broker orders. It never invents
// success: a fill only counts when the broker confirms it.
type ExecutorService struct {
	tracer    trace.Tracer
	broker    OrderBroker
	recorder  CloseRecorder
	symbol    string
	deviation int
}

func NewExecutorService(tracer trace.Tracer, broker OrderBroker, recorder CloseRecorder, symbol string, deviation int) *ExecutorService {
	return &ExecutorService{
		tracer:    tracer,
		broker:    broker,
		recorder:  recorder,
		symbol:    symbol,
		deviation: deviation,
	}
}

// Place submits a market order for the signal direction: buys lift the ask,
// sells hit the bid. Returns the request and the confirmed result; a broker
// rejection is an error.
func (s *ExecutorService) Place(ctx context.Context, signal domain.SignalType, snap *domain.MarketSnapshot, volume float64) (domain.OrderRequest, *domain.OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "executor.place")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.signal", string(signal)),
		attribute.Float64("order.volume", volume),
	)

	var side domain.Side
	var price float64
	switch signal {
	case domain.SignalBuy:
		side, price = domain.SideBuy, snap.Ask
	case domain.SignalSell:
		side, price = domain.SideSell, snap.Bid
	default:
		return domain.OrderRequest{}, nil, fmt.Errorf("signal %s is not tradeable", signal)
	}

	req := domain.OrderRequest{
		Symbol:    s.symbol,
		Side:      side,
		Volume:    volume,
		Price:     price,
		Deviation: s.deviation,
		Comment:   orderComment,
	}

	res, err := s.broker.OrderSend(ctx, req)
	if err != nil {
		return req, nil, err
	}
	if !res.Success {
		return req, res, fmt.Errorf("order rejected: retcode %d %s", res.RetCode, res.Comment)
	}

	span.SetAttributes(attribute.Int64("order.ticket", res.Ticket))
	log.Printf("order filled: %s %s %.2f lots @ %.5f ticket %d", side, s.symbol, volume, res.Price, res.Ticket)
	return req, res, nil
}

// CloseAll closes every given position with an opposing market order sized
// exactly to the position. Failures are independent: one stuck position does
// not stop the rest. Returns how many closed and the joined errors.
func (s *ExecutorService) CloseAll(ctx context.Context, positions []domain.Position) (int, error) {
	ctx, span := s.tracer.Start(ctx, "executor.close-all")
	defer span.End()
	span.SetAttributes(attribute.Int("positions.count", len(positions)))

	if len(positions) == 0 {
		return 0, nil
	}

	quote, err := s.broker.SymbolInfo(ctx, s.symbol)
	if err != nil {
		return 0, fmt.Errorf("symbol info: %w", err)
	}

	closed := 0
	var errs []error
	for _, p := range positions {
		if err := s.closeOne(ctx, p, quote); err != nil {
			log.Printf("close position %d failed: %v", p.Ticket, err)
			errs = append(errs, fmt.Errorf("ticket %d: %w", p.Ticket, err))
			continue
		}
		closed++
	}

	span.SetAttributes(attribute.Int("positions.closed", closed))
	return closed, errors.Join(errs...)
}

func (s *ExecutorService) closeOne(ctx context.Context, p domain.Position, quote *domain.Quote) error {
	// Closing a buy sells at the bid; closing a sell buys at the ask.
	side := p.Side.Opposite()
	price := quote.Bid
	if side == domain.SideBuy {
		price = quote.Ask
	}

	req := domain.OrderRequest{
		Symbol:    p.Symbol,
		Side:      side,
		Volume:    p.Volume,
		Price:     price,
		Deviation: s.deviation,
		Position:  p.Ticket,
		Comment:   orderComment + " close",
	}

	res, err := s.broker.OrderSend(ctx, req)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("retcode %d %s", res.RetCode, res.Comment)
	}

	if err := s.recorder.FinalizeClose(ctx, p, res); err != nil {
		log.Printf("finalize close %d failed: %v", p.Ticket, err)
	}
	return nil
}
