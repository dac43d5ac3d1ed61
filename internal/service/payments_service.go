package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/fees"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var paymentTracer = otel.Tracer("service/payments")

// PaymentService records payments and forwards their lifecycle transitions.
type PaymentService struct {
	payments port.PaymentStore
	students port.StudentPaymentStore
	rates    *ExchangeRateService
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	newKey   func() string
}

// NewPaymentService creates the payment service.
func NewPaymentService(
	payments port.PaymentStore,
	students port.StudentPaymentStore,
	rates *ExchangeRateService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		students: students,
		rates:    rates,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		newKey:   uuid.NewString,
	}
}

// SubmitResult is the outcome of an accepted payment.
type SubmitResult struct {
	Payment *domain.CreatedPayment `json:"payment"`
	Record  *domain.PaymentRecord  `json:"record"`
	Receipt domain.Receipt         `json:"receipt"`
}

// Submit validates form against the student's profile, sends exactly one
// create request and returns the receipt. schoolYearID is the resolved
// school year of the session; it is attached to the record as is.
//
// Local rejections are returned before any write reaches the backend.
func (s *PaymentService) Submit(ctx context.Context, form domain.PaymentForm, schoolYearID string) (*SubmitResult, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.Submit")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("payment_submit", time.Since(start))
	}()

	form = fees.Normalize(form)
	span.SetAttributes(
		attribute.String("student.id", form.StudentID),
		attribute.String("payment.type", string(form.PaymentType)),
		attribute.String("payment.currency", string(form.Currency)),
	)

	if err := s.CheckForm(form); err != nil {
		return nil, err
	}
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	school, ok := domain.ParseSchool(form.School)
	if !ok {
		return nil, &domain.ErrValidation{Field: "school", Message: "must be maternelle, primaire or secondaire"}
	}
	if schoolYearID == "" {
		return nil, &domain.ErrValidation{Field: "schoolYearId", Message: "no school year selected"}
	}

	var (
		profile *domain.StudentPaymentProfile
		rate    *domain.ExchangeRate
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.students.GetStudentPayment(gCtx, string(school), form.StudentID, schoolYearID)
		if err != nil {
			var nf *domain.ErrNotFound
			if errors.As(err, &nf) {
				return nil
			}
			return fmt.Errorf("student profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.rates.Current(gCtx)
		var unavailable *domain.ErrRateUnavailable
		if err != nil && !errors.As(err, &unavailable) {
			return err
		}
		rate = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec, err := fees.BuildPaymentRecord(form, profile, rate, schoolYearID)
	if err != nil {
		return nil, s.rejected(err)
	}

	key := s.newKey()
	created, err := s.payments.CreatePayment(ctx, rec, key)
	if err != nil {
		s.metrics.IncrExternalError("payments")
		s.logger.Error("payment creation failed",
			zap.String("student_id", rec.Student),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if created == nil {
		created = &domain.CreatedPayment{}
	}
	if created.ReceiptNumber == "" && created.ID == "" {
		created.ReceiptNumber = "REC-" + strings.ToUpper(key[:8])
	}
	s.metrics.IncrPaymentSubmitted(rec.PaymentType, rec.Currency)

	label := form.FeeName
	if rec.TermName != nil {
		label = *rec.TermName
	}
	receipt := fees.BuildReceipt(rec, created, fees.ReceiptContext{
		StudentName: profile.Name,
		Class:       profile.Class,
		School:      school.Title(),
		Label:       label,
		Date:        s.now(),
	}, rate)

	s.logger.Info("payment recorded",
		zap.String("student_id", rec.Student),
		zap.String("receipt", receipt.ReceiptNumber),
		zap.Float64("amount_usd", rec.AmountPaidUSD),
	)

	return &SubmitResult{Payment: created, Record: rec, Receipt: receipt}, nil
}

// rejected counts local rejections and passes err through.
// CheckForm runs the checks that need no backend data: a student is
// selected and the amount is positive.
func (s *PaymentService) CheckForm(form domain.PaymentForm) error {
	form = fees.Normalize(form)
	if form.StudentID != "" && form.Amount > 0 {
		return nil
	}
	var stub *domain.StudentPaymentProfile
	if form.StudentID != "" {
		stub = &domain.StudentPaymentProfile{ID: form.StudentID}
	}
	_, err := fees.BuildPaymentRecord(form, stub, nil, "")
	return s.rejected(err)
}

func (s *PaymentService) rejected(err error) error {
	var rej *domain.ErrPaymentRejected
	if errors.As(err, &rej) {
		s.metrics.IncrPaymentRejected(rej.Code)
		s.logger.Info("payment rejected", zap.String("code", string(rej.Code)))
	}
	return err
}

// Verify marks a payment verified.
func (s *PaymentService) Verify(ctx context.Context, paymentID string) (*domain.Payment, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	return s.payments.VerifyPayment(ctx, paymentID)
}

// Cancel cancels a payment. A reason is mandatory.
func (s *PaymentService) Cancel(ctx context.Context, paymentID, notes string) (*domain.Payment, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	req := domain.CancelPaymentRequest{Notes: strings.TrimSpace(notes)}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.payments.CancelPayment(ctx, paymentID, req.Notes)
}

// ListForStudent lists the payments of a student.
func (s *PaymentService) ListForStudent(ctx context.Context, studentID, schoolYearID string) ([]domain.Payment, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.ListForStudent")
	defer span.End()

	return s.payments.ListStudentPayments(ctx, studentID, schoolYearID)
}
