package fees

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// PaymentCompleted is the status given to payments recorded at the desk.
const PaymentCompleted = "completed"

// Normalize fills the form defaults: tuition, USD, cash.
func Normalize(form domain.PaymentForm) domain.PaymentForm {
	if form.PaymentType == "" {
		form.PaymentType = domain.PaymentTuition
	}
	if form.Currency == "" {
		form.Currency = domain.CurrencyUSD
	}
	if form.Method == "" {
		form.Method = domain.MethodCash
	}
	form.StudentID = strings.TrimSpace(form.StudentID)
	form.Term = strings.TrimSpace(form.Term)
	form.FeeName = strings.TrimSpace(form.FeeName)
	return form
}

// MaxPayable is the largest amount, in currency, a new payment may carry for
// the selected term or fee. It never goes below zero.
func MaxPayable(sel Selection, currency domain.Currency, rate *domain.ExchangeRate) (float64, error) {
	remaining := sel.RemainingUSD()
	if remaining < 0 {
		remaining = 0
	}
	return Convert(remaining, domain.CurrencyUSD, currency, rate)
}

// BuildPaymentRecord validates a payment form against the student's profile
// and assembles the record to send to the backend.
//
// Checks run in order: student, amount, balance limit, term, fee. The limit
// applies when the selector resolves on the profile; an unresolved selector
// is reported as missing_term or missing_fee, not as amount_exceeds_balance
// with a zero limit, even though RemainingBalance reads it as zero.
// Rejections are *domain.ErrPaymentRejected; a missing rate is
// *domain.ErrRateUnavailable for every currency.
func BuildPaymentRecord(
	form domain.PaymentForm,
	profile *domain.StudentPaymentProfile,
	rate *domain.ExchangeRate,
	schoolYearID string,
) (*domain.PaymentRecord, error) {
	form = Normalize(form)

	if form.StudentID == "" || profile == nil {
		return nil, &domain.ErrPaymentRejected{Code: domain.RejectMissingStudent}
	}
	if math.IsNaN(form.Amount) || math.IsInf(form.Amount, 0) || form.Amount <= 0 {
		return nil, &domain.ErrPaymentRejected{Code: domain.RejectInvalidAmount}
	}
	if !rate.Valid() {
		return nil, rateError(rate)
	}

	var selector string
	switch form.PaymentType {
	case domain.PaymentTuition:
		selector = form.Term
	case domain.PaymentExtra:
		selector = form.FeeName
	default:
		return nil, &domain.ErrValidation{Field: "paymentType", Message: "must be tuition or extra"}
	}

	sel, err := Lookup(profile, form.PaymentType, selector)
	if err != nil {
		return nil, err
	}
	if sel.Found {
		limit, err := MaxPayable(sel, form.Currency, rate)
		if err != nil {
			return nil, err
		}
		if exceeds(form.Amount, limit) {
			return nil, &domain.ErrPaymentRejected{
				Code:     domain.RejectAmountExceedsBalance,
				Limit:    limit,
				Currency: form.Currency,
			}
		}
	}

	if form.PaymentType == domain.PaymentTuition && !sel.Found {
		return nil, &domain.ErrPaymentRejected{Code: domain.RejectMissingTerm}
	}
	if form.PaymentType == domain.PaymentExtra && (!sel.Found || sel.FeeID == "") {
		return nil, &domain.ErrPaymentRejected{Code: domain.RejectMissingFee}
	}

	usd, err := ToUSD(form.Amount, form.Currency, rate)
	if err != nil {
		return nil, err
	}
	secondary, err := Convert(form.Amount, form.Currency, domain.SecondaryCurrency, rate)
	if err != nil {
		return nil, err
	}

	rec := &domain.PaymentRecord{
		Student:         profile.ID,
		SchoolYear:      schoolYearID,
		AmountPaidUSD:   round2(usd),
		OriginalAmount:  form.Amount,
		Currency:        form.Currency,
		PaymentMode:     form.Method,
		PaymentType:     form.PaymentType,
		Status:          PaymentCompleted,
		Reference:       strings.TrimSpace(form.Reference),
		Notes:           strings.TrimSpace(form.Notes),
		AmountSecondary: secondary,
	}
	if form.PaymentType == domain.PaymentTuition {
		label := domain.TermLabel(form.Term)
		if label == "" {
			label = form.Term
		}
		rec.TermName = &label
	} else {
		id := sel.FeeID
		rec.FeeID = &id
	}
	return rec, nil
}

func exceeds(amount, limit float64) bool {
	return decimal.NewFromFloat(amount).GreaterThan(decimal.NewFromFloat(limit))
}
