package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/fees"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService assembles the school dashboard.
type DashboardService struct {
	store   port.DashboardStore
	rates   *ExchangeRateService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(store port.DashboardStore, rates *ExchangeRateService, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, rates: rates, metrics: metrics, logger: logger}
}

// Get fetches the statistics page and the rate concurrently. Without a
// usable rate the CDF totals are omitted.
func (s *DashboardService) Get(ctx context.Context, school domain.SchoolType, schoolYearID string, page, limit int) (*domain.Dashboard, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("school", string(school)),
		attribute.String("school_year.id", schoolYearID),
	)

	var (
		stats *domain.DashboardStats
		rate  *domain.ExchangeRate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.store.GetDashboardStats(gCtx, string(school), schoolYearID, page, limit)
		if err != nil {
			s.metrics.IncrExternalError("dashboard")
			return fmt.Errorf("dashboard stats: %w", err)
		}
		stats = st
		return nil
	})
	g.Go(func() error {
		r, err := s.rates.Current(gCtx)
		if err != nil {
			s.logger.Warn("dashboard: exchange rate unavailable", zap.Error(err))
			return nil
		}
		rate = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &domain.Dashboard{
		School:       string(school),
		SchoolYearID: schoolYearID,
		Stats:        stats,
		ExchangeRate: rate,
	}

	paid, due := decimal.Zero, decimal.Zero
	for _, c := range stats.PaymentData {
		paid = paid.Add(decimal.NewFromFloat(c.Paid))
		due = due.Add(decimal.NewFromFloat(c.Due))
	}
	d.PaidUSD = paid.Round(2).InexactFloat64()
	d.DueUSD = due.Round(2).InexactFloat64()

	if !rate.Valid() {
		return d, nil
	}
	paidSec, err := fees.Convert(d.PaidUSD, domain.CurrencyUSD, domain.SecondaryCurrency, rate)
	if err != nil {
		return d, nil
	}
	dueSec, err := fees.Convert(d.DueUSD, domain.CurrencyUSD, domain.SecondaryCurrency, rate)
	if err != nil {
		return d, nil
	}
	d.PaidSecondary = &paidSec
	d.DueSecondary = &dueSec

	d.ClassesSecondary = make([]domain.ClassPaymentTotals, 0, len(stats.PaymentData))
	for _, c := range stats.PaymentData {
		p, _ := fees.Convert(c.Paid, domain.CurrencyUSD, domain.SecondaryCurrency, rate)
		du, _ := fees.Convert(c.Due, domain.CurrencyUSD, domain.SecondaryCurrency, rate)
		d.ClassesSecondary = append(d.ClassesSecondary, domain.ClassPaymentTotals{Name: c.Name, Paid: p, Due: du})
	}
	return d, nil
}
