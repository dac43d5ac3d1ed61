package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/fees"
	"github.com/boddenberg/school-fees-bfa-go/internal/filter"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var studentTracer = otel.Tracer("service/students")

// StudentService lists student payment profiles and computes balances.
type StudentService struct {
	store       port.StudentPaymentStore
	rates       *ExchangeRateService
	engines     map[string]*filter.Engine
	defaultMode string
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewStudentService creates the service with one filter engine per data
// source mode. defaultMode is used when a request does not pick one.
func NewStudentService(
	store port.StudentPaymentStore,
	rates *ExchangeRateService,
	engines map[string]*filter.Engine,
	defaultMode string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *StudentService {
	return &StudentService{
		store:       store,
		rates:       rates,
		engines:     engines,
		defaultMode: defaultMode,
		metrics:     metrics,
		logger:      logger,
	}
}

// ListStudents returns one page of students for the session. Older queries
// of the same session fail with *domain.ErrSuperseded.
func (s *StudentService) ListStudents(ctx context.Context, sessionKey, mode string, c filter.Criteria) (*domain.StudentPage, error) {
	ctx, span := studentTracer.Start(ctx, "StudentService.ListStudents")
	defer span.End()

	if mode == "" {
		mode = s.defaultMode
	}
	engine, ok := s.engines[mode]
	if !ok {
		return nil, &domain.ErrValidation{Field: "mode", Message: "must be remote or local"}
	}
	span.SetAttributes(
		attribute.String("school", string(c.School)),
		attribute.String("filter.mode", mode),
	)

	// Sessions are per mode so switching mode never cancels the other list.
	return engine.List(ctx, mode+":"+sessionKey, c)
}

// Profile returns the payment profile of one student.
func (s *StudentService) Profile(ctx context.Context, school domain.SchoolType, studentID, schoolYearID string) (*domain.StudentPaymentProfile, error) {
	ctx, span := studentTracer.Start(ctx, "StudentService.Profile")
	defer span.End()
	span.SetAttributes(attribute.String("student.id", studentID))

	p, err := s.store.GetStudentPayment(ctx, string(school), studentID, schoolYearID)
	if err != nil {
		return nil, fmt.Errorf("student profile: %w", err)
	}
	return p, nil
}

// BalanceQuery selects what Balance computes.
type BalanceQuery struct {
	School       domain.SchoolType
	StudentID    string
	SchoolYearID string
	PaymentType  domain.PaymentType
	Selector     string
	Currency     domain.Currency
}

// Balance returns the remaining amount of a term or extra fee and the
// largest payment the form may accept. With no tuition selector, the first
// pending term is used. The rate is only required for CDF amounts.
func (s *StudentService) Balance(ctx context.Context, q BalanceQuery) (*domain.BalanceView, error) {
	ctx, span := studentTracer.Start(ctx, "StudentService.Balance")
	defer span.End()
	span.SetAttributes(
		attribute.String("student.id", q.StudentID),
		attribute.String("payment.type", string(q.PaymentType)),
	)

	if q.PaymentType == "" {
		q.PaymentType = domain.PaymentTuition
	}
	if q.Currency == "" {
		q.Currency = domain.CurrencyUSD
	}

	var (
		profile *domain.StudentPaymentProfile
		rate    *domain.ExchangeRate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetStudentPayment(gCtx, string(q.School), q.StudentID, q.SchoolYearID)
		if err != nil {
			return fmt.Errorf("student profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.rates.Current(gCtx)
		if err != nil {
			// USD balances do not need a rate; conversion reports it if needed.
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("balance: exchange rate unavailable", zap.Error(err))
			}
			return nil
		}
		rate = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &domain.BalanceView{
		StudentID:   q.StudentID,
		PaymentType: string(q.PaymentType),
		Selector:    q.Selector,
		Currency:    q.Currency,
		DefaultTerm: fees.FirstPendingTerm(profile),
	}
	if q.PaymentType == domain.PaymentTuition && q.Selector == "" {
		view.Selector = view.DefaultTerm
	}

	sel, err := fees.Lookup(profile, q.PaymentType, view.Selector)
	if err != nil {
		return nil, err
	}
	if !sel.Found {
		s.metrics.IncrSelectorMiss(string(q.PaymentType))
		s.logger.Warn("balance: selector not found on profile",
			zap.String("student_id", q.StudentID),
			zap.String("payment_type", string(q.PaymentType)),
			zap.String("selector", view.Selector),
		)
	}

	remaining, err := fees.RemainingBalance(profile, q.PaymentType, view.Selector, q.Currency, rate)
	if err != nil {
		return nil, err
	}
	maxPayable, err := fees.MaxPayable(sel, q.Currency, rate)
	if err != nil {
		return nil, err
	}

	view.Found = sel.Found
	view.AmountDue = sel.AmountDue
	view.AmountPaid = sel.AmountPaid
	view.RemainingUSD = sel.RemainingUSD()
	view.Remaining = remaining
	view.MaxPayable = maxPayable
	view.Status = sel.Status
	return view, nil
}
