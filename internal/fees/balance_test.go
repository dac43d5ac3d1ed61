package fees

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

func sampleProfile() *domain.StudentPaymentProfile {
	return &domain.StudentPaymentProfile{
		ID:     "stu-1",
		Name:   "Jeanne Mbuyi",
		Class:  "3e HTS",
		School: "secondaire",
		Option: "Social",
		Trimesters: []domain.TermPayment{
			{Term: domain.Term1, TuitionDue: 100, AmountPaid: 100, Status: domain.StatusPaid},
			{Term: domain.Term2, TuitionDue: 100, AmountPaid: 40, Status: domain.StatusPending},
			{Term: domain.Term3, TuitionDue: 100, AmountPaid: 130, Status: domain.StatusPaid},
		},
		ExtraFees: []domain.ExtraFeeCharge{
			{ID: "fee-uniform", Name: "Uniforme", AmountDue: 25, AmountPaid: 10, Status: domain.StatusPending},
		},
	}
}

func ptr(v float64) *float64 { return &v }

func TestRemainingBalance_Tuition(t *testing.T) {
	p := sampleProfile()

	got, err := RemainingBalance(p, domain.PaymentTuition, domain.Term2, domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got)

	got, err = RemainingBalance(p, domain.PaymentTuition, domain.Term2, domain.CurrencyCDF, rateOf(2800))
	require.NoError(t, err)
	assert.Equal(t, 168000.0, got)
}

func TestRemainingBalance_FullPaymentIsZero(t *testing.T) {
	got, err := RemainingBalance(sampleProfile(), domain.PaymentTuition, domain.Term1, domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRemainingBalance_OverpaymentIsNegative(t *testing.T) {
	got, err := RemainingBalance(sampleProfile(), domain.PaymentTuition, domain.Term3, domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Less(t, got, 0.0)
	assert.Equal(t, -30.0, got)
}

func TestRemainingBalance_Extra(t *testing.T) {
	got, err := RemainingBalance(sampleProfile(), domain.PaymentExtra, "Uniforme", domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got)
}

func TestRemainingBalance_UnknownSelectorIsZero(t *testing.T) {
	p := sampleProfile()

	got, err := RemainingBalance(p, domain.PaymentTuition, "4e trimestre", domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	sel, err := Lookup(p, domain.PaymentExtra, "Transport")
	require.NoError(t, err)
	assert.False(t, sel.Found)
}

func TestRemainingBalance_SecondaryNeedsRate(t *testing.T) {
	_, err := RemainingBalance(sampleProfile(), domain.PaymentTuition, domain.Term2, domain.CurrencyCDF, nil)
	var rateErr *domain.ErrRateUnavailable
	assert.True(t, errors.As(err, &rateErr))
}

func TestRemainingBalance_InvalidPaymentType(t *testing.T) {
	_, err := RemainingBalance(sampleProfile(), "donation", "x", domain.CurrencyUSD, nil)
	var valErr *domain.ErrValidation
	assert.True(t, errors.As(err, &valErr))
}

func TestAggregateStatus(t *testing.T) {
	terms := []domain.TermPayment{
		{Term: domain.Term1, TuitionDue: 100, AmountPaid: 100, Status: domain.StatusPaid},
		{Term: domain.Term2, TuitionDue: 100, AmountPaid: 0, Status: domain.StatusPending},
	}

	agg := AggregateStatus(terms, nil)
	assert.False(t, agg.Paid, "one pending term keeps the student pending")
	assert.Equal(t, 100.0, agg.TotalPaid)
	assert.Equal(t, 200.0, agg.TotalDue)

	agg = AggregateStatus(terms, ptr(50))
	assert.True(t, agg.Paid, "an explicit threshold replaces the every-term rule")

	agg = AggregateStatus(terms, ptr(150))
	assert.False(t, agg.Paid)
}

func TestAggregateStatus_AllPaid(t *testing.T) {
	terms := []domain.TermPayment{
		{TuitionDue: 10, AmountPaid: 10, Status: domain.StatusPaid},
		{TuitionDue: 10, AmountPaid: 12, Status: domain.StatusPaid},
	}
	assert.True(t, AggregateStatus(terms, nil).Paid)
}

func TestTermStatus(t *testing.T) {
	term := domain.TermPayment{TuitionDue: 100, AmountPaid: 60, Status: domain.StatusPending}
	assert.False(t, TermStatus(term, nil))
	assert.True(t, TermStatus(term, ptr(60)))
	assert.False(t, TermStatus(term, ptr(61)))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusPaid, StatusFor(100, 100))
	assert.Equal(t, domain.StatusPaid, StatusFor(101, 100))
	assert.Equal(t, domain.StatusPending, StatusFor(99.99, 100))
}

func TestIsPaid(t *testing.T) {
	p := sampleProfile()

	paid, ok := IsPaid(p, "", nil)
	assert.True(t, ok)
	assert.False(t, paid)

	paid, ok = IsPaid(p, domain.Term1, nil)
	assert.True(t, ok)
	assert.True(t, paid)

	_, ok = IsPaid(p, "4e trimestre", nil)
	assert.False(t, ok)
}

func TestFirstPendingTerm(t *testing.T) {
	assert.Equal(t, domain.Term2, FirstPendingTerm(sampleProfile()))

	allPaid := &domain.StudentPaymentProfile{Trimesters: []domain.TermPayment{
		{Term: domain.Term1, Status: domain.StatusPaid},
	}}
	assert.Equal(t, domain.Term1, FirstPendingTerm(allPaid))
	assert.Equal(t, "", FirstPendingTerm(&domain.StudentPaymentProfile{}))
}
