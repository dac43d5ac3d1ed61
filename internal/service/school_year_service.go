package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var yearTracer = otel.Tracer("service/school-years")

const dateLayout = "2006-01-02"

// SchoolYearService lists, resolves and configures school years.
type SchoolYearService struct {
	store   port.SchoolYearStore
	prefs   port.PreferencesStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSchoolYearService creates the school year service.
func NewSchoolYearService(store port.SchoolYearStore, prefs port.PreferencesStore, metrics *observability.Metrics, logger *zap.Logger) *SchoolYearService {
	return &SchoolYearService{store: store, prefs: prefs, metrics: metrics, logger: logger}
}

// List returns every school year.
func (s *SchoolYearService) List(ctx context.Context) ([]domain.SchoolYear, error) {
	ctx, span := yearTracer.Start(ctx, "SchoolYearService.List")
	defer span.End()

	years, err := s.store.ListSchoolYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("list school years: %w", err)
	}
	return years, nil
}

// Active returns the backend's active school year.
func (s *SchoolYearService) Active(ctx context.Context) (*domain.SchoolYear, error) {
	ctx, span := yearTracer.Start(ctx, "SchoolYearService.Active")
	defer span.End()

	return s.store.GetActiveSchoolYear(ctx)
}

// Resolve returns the school year a request works in: the explicit id when
// given, then the user's stored selection, then the active year. A failing
// preferences store is logged and skipped.
func (s *SchoolYearService) Resolve(ctx context.Context, userID, explicit string) (string, error) {
	ctx, span := yearTracer.Start(ctx, "SchoolYearService.Resolve")
	defer span.End()

	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}

	if userID != "" {
		prefs, err := s.prefs.GetPreferences(ctx, userID)
		switch {
		case err != nil:
			s.logger.Warn("preferences unavailable, using active school year",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		case prefs != nil && prefs.SelectedSchoolYearID != "":
			span.SetAttributes(attribute.String("school_year.source", "preferences"))
			return prefs.SelectedSchoolYearID, nil
		}
	}

	active, err := s.store.GetActiveSchoolYear(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve school year: %w", err)
	}
	span.SetAttributes(attribute.String("school_year.source", "active"))
	return active.ID, nil
}

// TuitionTotal returns the yearly tuition of a class.
func (s *SchoolYearService) TuitionTotal(ctx context.Context, className, schoolYearID string) (*domain.TuitionTotal, error) {
	ctx, span := yearTracer.Start(ctx, "SchoolYearService.TuitionTotal")
	defer span.End()

	if strings.TrimSpace(className) == "" {
		return nil, &domain.ErrValidation{Field: "className", Message: "is required"}
	}
	return s.store.GetTuitionTotal(ctx, className, schoolYearID)
}

// Configure validates the wizard state, converts it to the backend payload
// and creates the school year.
func (s *SchoolYearService) Configure(ctx context.Context, setup *domain.SchoolYearSetup) (*domain.SchoolYear, error) {
	ctx, span := yearTracer.Start(ctx, "SchoolYearService.Configure")
	defer span.End()
	span.SetAttributes(attribute.String("school_year.name", setup.SchoolYear))

	payload, err := BuildSchoolYearPayload(setup)
	if err != nil {
		return nil, err
	}

	year, err := s.store.CreateSchoolYear(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create school year: %w", err)
	}
	s.logger.Info("school year configured",
		zap.String("name", payload.SchoolYear.YearLabel),
		zap.Int("tuition_rows", len(payload.TuitionFees)),
		zap.Int("extra_fees", len(payload.ExtraFees)),
	)
	return year, nil
}

// ValidateSetup checks every wizard step and returns the first problem.
func ValidateSetup(setup *domain.SchoolYearSetup) error {
	if strings.TrimSpace(setup.SchoolYear) == "" {
		return &domain.ErrValidation{Field: "schoolYear", Message: "is required"}
	}
	start, end, err := parsePeriod("startDate", setup.StartDate, "endDate", setup.EndDate)
	if err != nil {
		return err
	}

	if len(setup.Terms) == 0 {
		return &domain.ErrValidation{Field: "terms", Message: "at least one term is required"}
	}
	for i, t := range setup.Terms {
		field := fmt.Sprintf("terms[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			return &domain.ErrValidation{Field: field + ".name", Message: "is required"}
		}
		ts, te, err := parsePeriod(field+".startDate", t.StartDate, field+".endDate", t.EndDate)
		if err != nil {
			return err
		}
		if ts.Before(start) || te.After(end) {
			return &domain.ErrValidation{Field: field, Message: "must fall within the school year"}
		}
	}

	for i, c := range setup.FeeCategories {
		if strings.TrimSpace(c.Name) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("feeCategories[%d].name", i), Message: "is required"}
		}
		if err := validateStruct(c); err != nil {
			return err
		}
	}

	for i, f := range setup.AdditionalFees {
		field := fmt.Sprintf("additionalFees[%d]", i)
		if strings.TrimSpace(f.Name) == "" {
			return &domain.ErrValidation{Field: field + ".name", Message: "is required"}
		}
		if f.PaymentDeadline == "" {
			return &domain.ErrValidation{Field: field + ".paymentDeadline", Message: "is required"}
		}
		if _, err := time.Parse(dateLayout, f.PaymentDeadline); err != nil {
			return &domain.ErrValidation{Field: field + ".paymentDeadline", Message: "must be a YYYY-MM-DD date"}
		}
		if err := validateStruct(f); err != nil {
			return err
		}
	}
	return nil
}

// BuildSchoolYearPayload validates setup and produces the backend payload:
// one tuition row per class and term, due at the end of the term, and one
// row per additional fee.
func BuildSchoolYearPayload(setup *domain.SchoolYearSetup) (*domain.SchoolYearPayload, error) {
	if err := ValidateSetup(setup); err != nil {
		return nil, err
	}

	start, _ := time.Parse(dateLayout, setup.StartDate)
	end, _ := time.Parse(dateLayout, setup.EndDate)

	terms := make([]domain.Term, 0, len(setup.Terms))
	for _, t := range setup.Terms {
		ts, _ := time.Parse(dateLayout, t.StartDate)
		te, _ := time.Parse(dateLayout, t.EndDate)
		terms = append(terms, domain.Term{ID: t.ID, Name: t.Name, StartDate: ts, EndDate: te})
	}

	payload := &domain.SchoolYearPayload{
		SchoolYear: domain.SchoolYearPayloadYear{
			YearLabel: strings.TrimSpace(setup.SchoolYear),
			StartDate: start,
			EndDate:   end,
			Terms:     terms,
		},
		TuitionFees: []domain.TuitionFeeRow{},
		ExtraFees:   []domain.ExtraFeeRow{},
	}

	for _, cat := range setup.FeeCategories {
		for _, cf := range cat.FeesByClass {
			amounts := []float64{cf.TermFees.Term1, cf.TermFees.Term2, cf.TermFees.Term3}
			for i, amount := range amounts {
				if i >= len(terms) {
					break
				}
				payload.TuitionFees = append(payload.TuitionFees, domain.TuitionFeeRow{
					Class:    cf.ClassID,
					TermName: terms[i].Name,
					Amount:   amount,
					DueDate:  terms[i].EndDate,
				})
			}
		}
	}

	for _, f := range setup.AdditionalFees {
		due, _ := time.Parse(dateLayout, f.PaymentDeadline)
		currency := f.Currency
		if currency == "" {
			currency = domain.CurrencyUSD
		}
		frequency := f.Frequency
		if frequency == "" {
			frequency = domain.FrequencyOneTime
		}
		payload.ExtraFees = append(payload.ExtraFees, domain.ExtraFeeRow{
			Name:        strings.TrimSpace(f.Name),
			School:      f.School,
			Description: f.Description,
			Amount:      f.Amount,
			DueDate:     due,
			Currency:    currency,
			Frequency:   frequency,
		})
	}
	return payload, nil
}

func parsePeriod(startField, startValue, endField, endValue string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startValue)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.ErrValidation{Field: startField, Message: "must be a YYYY-MM-DD date"}
	}
	end, err := time.Parse(dateLayout, endValue)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.ErrValidation{Field: endField, Message: "must be a YYYY-MM-DD date"}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, &domain.ErrValidation{Field: endField, Message: "must be after the start date"}
	}
	return start, end, nil
}
