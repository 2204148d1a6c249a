package service

import (
	"context"
	"log"
	"time"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TradeLedger interface {
	Create(ctx context.Context, t *domain.Trade) error
	UpdateProfit(ctx context.Context, ticket int64, profit float64) error
	Close(ctx context.Context, ticket int64, priceClose, profit float64, closedAt time.Time) error
	ListActive(ctx context.Context, symbol string) ([]domain.Trade, error)
}

type SignalLedger interface {
	MarkExecuted(ctx context.Context, id int64) error
}

// Reconciler keeps the trade table in step with what the broker reports.
// The broker ticket is the source of truth: rows are created when a ticket
// first appears, refreshed while it is live, and finalized when it closes.
// Every write is idempotent on the ticket, so replays are harmless.
type Reconciler struct {
	tracer  trace.Tracer
	trades  TradeLedger
	signals SignalLedger
	now     func() time.Time
}

func NewReconciler(tracer trace.Tracer, trades TradeLedger, signals SignalLedger) *Reconciler {
	return &Reconciler{
		tracer:  tracer,
		trades:  trades,
		signals: signals,
		now:     time.Now,
	}
}

// SyncPositions upserts every live broker position and refreshes its floating
// profit. Positions opened outside the bot get rows too.
func (r *Reconciler) SyncPositions(ctx context.Context, positions []domain.Position) {
	ctx, span := r.tracer.Start(ctx, "reconciler.sync-positions")
	defer span.End()
	span.SetAttributes(attribute.Int("positions.count", len(positions)))

	for _, p := range positions {
		t := &domain.Trade{
			Ticket:    p.Ticket,
			Symbol:    p.Symbol,
			Side:      p.Side,
			Volume:    p.Volume,
			PriceOpen: p.PriceOpen,
			TimeOpen:  p.OpenedAt,
			IsActive:  true,
		}
		if err := r.trades.Create(ctx, t); err != nil {
			log.Printf("sync: create trade %d: %v", p.Ticket, err)
			continue
		}
		if err := r.trades.UpdateProfit(ctx, p.Ticket, p.Profit); err != nil {
			log.Printf("sync: update profit %d: %v", p.Ticket, err)
		}
	}
}

// RecordTrade stores a trade row for a confirmed fill and links it to the
// signal that caused it.
func (r *Reconciler) RecordTrade(ctx context.Context, signalID int64, req domain.OrderRequest, res *domain.OrderResult) error {
	ctx, span := r.tracer.Start(ctx, "reconciler.record-trade")
	defer span.End()
	span.SetAttributes(attribute.Int64("trade.ticket", res.Ticket))

	t := &domain.Trade{
		Ticket:    res.Ticket,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Volume:    req.Volume,
		PriceOpen: res.Price,
		TimeOpen:  r.now(),
		IsActive:  true,
	}
	if signalID != 0 {
		t.SignalID = &signalID
	}
	return r.trades.Create(ctx, t)
}

// FinalizeClose marks the trade row for a closed position. Safe to call more
// than once for the same ticket.
func (r *Reconciler) FinalizeClose(ctx context.Context, p domain.Position, res *domain.OrderResult) error {
	ctx, span := r.tracer.Start(ctx, "reconciler.finalize-close")
	defer span.End()
	span.SetAttributes(attribute.Int64("trade.ticket", p.Ticket))

	return r.trades.Close(ctx, p.Ticket, res.Price, p.Profit, r.now())
}

// MarkSignalExecuted flags the signal after its order is confirmed filled.
func (r *Reconciler) MarkSignalExecuted(ctx context.Context, signalID int64) error {
	ctx, span := r.tracer.Start(ctx, "reconciler.mark-signal-executed")
	defer span.End()

	return r.signals.MarkExecuted(ctx, signalID)
}
