package service

import (
	"context"
	"time"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type InvestmentLedger interface {
	AmountOn(ctx context.Context, day time.Time) (float64, error)
	Add(ctx context.Context, day time.Time, amount float64) error
	List(ctx context.Context, limit int) ([]domain.DailyInvestment, error)
}

// CapitalService enforces the daily investment ceiling. The remaining budget
// is read fresh from the ledger on every call so restarts and concurrent
// readers always see committed state.
type CapitalService struct {
	tracer      trace.Tracer
	investments InvestmentLedger
	dailyLimit  float64
	loc         *time.Location
	now         func() time.Time
}

func NewCapitalService(tracer trace.Tracer, investments InvestmentLedger, dailyLimit float64, loc *time.Location) *CapitalService {
	return &CapitalService{
		tracer:      tracer,
		investments: investments,
		dailyLimit:  dailyLimit,
		loc:         loc,
		now:         time.Now,
	}
}

// RemainingBudget returns how much capital may still be committed today,
// never negative.
func (s *CapitalService) RemainingBudget(ctx context.Context) (float64, error) {
	_, span := s.tracer.Start(ctx, "capital.remaining-budget")
	defer span.End()

	spent, err := s.investments.AmountOn(ctx, s.now().In(s.loc))
	if err != nil {
		return 0, err
	}

	remaining := s.dailyLimit - spent
	if remaining < 0 {
		remaining = 0
	}
	span.SetAttributes(attribute.Float64("budget.remaining", remaining))
	return remaining, nil
}

// Commit records capital spent on a confirmed fill against today's ledger.
func (s *CapitalService) Commit(ctx context.Context, amount float64) error {
	_, span := s.tracer.Start(ctx, "capital.commit")
	defer span.End()
	span.SetAttributes(attribute.Float64("budget.committed", amount))

	return s.investments.Add(ctx, s.now().In(s.loc), amount)
}

// History exposes the ledger for reporting surfaces.
func (s *CapitalService) History(ctx context.Context, limit int) ([]domain.DailyInvestment, error) {
	_, span := s.tracer.Start(ctx, "capital.history")
	defer span.End()

	return s.investments.List(ctx, limit)
}
