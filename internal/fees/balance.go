package fees

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// Selection is the term or extra fee designated by a selector on a profile.
type Selection struct {
	Found      bool
	AmountDue  float64
	AmountPaid float64
	Status     string
	FeeID      string
}

// RemainingUSD is AmountDue - AmountPaid. Negative means overpaid.
func (s Selection) RemainingUSD() float64 {
	return decimal.NewFromFloat(s.AmountDue).
		Sub(decimal.NewFromFloat(s.AmountPaid)).
		Round(usdPlaces).
		InexactFloat64()
}

// Lookup finds the term (tuition) or fee (extra) named by selector.
// An unknown selector returns a zero Selection with Found=false.
func Lookup(profile *domain.StudentPaymentProfile, paymentType domain.PaymentType, selector string) (Selection, error) {
	switch paymentType {
	case domain.PaymentTuition:
		if profile == nil {
			return Selection{}, nil
		}
		t, ok := profile.FindTerm(selector)
		if !ok {
			return Selection{}, nil
		}
		return Selection{Found: true, AmountDue: t.TuitionDue, AmountPaid: t.AmountPaid, Status: t.Status}, nil
	case domain.PaymentExtra:
		if profile == nil {
			return Selection{}, nil
		}
		f, ok := profile.FindFee(selector)
		if !ok {
			return Selection{}, nil
		}
		return Selection{Found: true, AmountDue: f.AmountDue, AmountPaid: f.AmountPaid, Status: f.Status, FeeID: f.ID}, nil
	}
	return Selection{}, &domain.ErrValidation{Field: "paymentType", Message: "must be tuition or extra"}
}

// RemainingBalance returns what is still owed for the selected term or fee,
// expressed in currency. An unknown selector yields 0.
func RemainingBalance(
	profile *domain.StudentPaymentProfile,
	paymentType domain.PaymentType,
	selector string,
	currency domain.Currency,
	rate *domain.ExchangeRate,
) (float64, error) {
	sel, err := Lookup(profile, paymentType, selector)
	if err != nil {
		return 0, err
	}
	return Convert(sel.RemainingUSD(), domain.CurrencyUSD, currency, rate)
}

// Aggregate is the "all terms" view of a student.
type Aggregate struct {
	TotalPaid float64
	TotalDue  float64
	Paid      bool
}

// AggregateStatus totals every term. The student is paid when every term is
// paid, or, when minPaid is set, when the total paid reaches minPaid.
func AggregateStatus(terms []domain.TermPayment, minPaid *float64) Aggregate {
	paid := decimal.Zero
	due := decimal.Zero
	allPaid := true
	for _, t := range terms {
		paid = paid.Add(decimal.NewFromFloat(t.AmountPaid))
		due = due.Add(decimal.NewFromFloat(t.TuitionDue))
		if t.Status != domain.StatusPaid {
			allPaid = false
		}
	}

	agg := Aggregate{
		TotalPaid: paid.InexactFloat64(),
		TotalDue:  due.InexactFloat64(),
		Paid:      allPaid,
	}
	if minPaid != nil {
		agg.Paid = paid.GreaterThanOrEqual(decimal.NewFromFloat(*minPaid))
	}
	return agg
}

// TermStatus reports whether a single term counts as paid.
func TermStatus(term domain.TermPayment, minPaid *float64) bool {
	if minPaid != nil {
		return term.AmountPaid >= *minPaid
	}
	return term.Status == domain.StatusPaid
}

// StatusFor applies the business rule: paid iff amountPaid >= amountDue.
func StatusFor(amountPaid, amountDue float64) string {
	if decimal.NewFromFloat(amountPaid).GreaterThanOrEqual(decimal.NewFromFloat(amountDue)) {
		return domain.StatusPaid
	}
	return domain.StatusPending
}

// IsPaid is the single "paid" determination used by filters and views.
// An empty term means all terms. ok is false when the term is absent from
// the profile.
func IsPaid(profile *domain.StudentPaymentProfile, term string, minPaid *float64) (paid, ok bool) {
	if term == "" {
		return AggregateStatus(profile.Trimesters, minPaid).Paid, true
	}
	t, found := profile.FindTerm(term)
	if !found {
		return false, false
	}
	return TermStatus(*t, minPaid), true
}

// FirstPendingTerm returns the first term not yet paid, or the first term
// when everything is paid. Empty when the profile has no terms.
func FirstPendingTerm(profile *domain.StudentPaymentProfile) string {
	if profile == nil || len(profile.Trimesters) == 0 {
		return ""
	}
	for _, t := range profile.Trimesters {
		if t.Status != domain.StatusPaid {
			return t.Term
		}
	}
	return profile.Trimesters[0].Term
}
