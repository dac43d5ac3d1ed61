package fees

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

func rejection(t *testing.T, err error) *domain.ErrPaymentRejected {
	t.Helper()
	var rej *domain.ErrPaymentRejected
	require.True(t, errors.As(err, &rej), "expected ErrPaymentRejected, got %v", err)
	return rej
}

func TestBuildPaymentRecord_Tuition(t *testing.T) {
	form := domain.PaymentForm{
		StudentID: "stu-1",
		Term:      domain.Term2,
		Amount:    50,
		Reference: " REF-9 ",
	}

	rec, err := BuildPaymentRecord(form, sampleProfile(), rateOf(2800), "sy-2025")
	require.NoError(t, err)

	assert.Equal(t, "stu-1", rec.Student)
	assert.Equal(t, "sy-2025", rec.SchoolYear)
	assert.Equal(t, 50.0, rec.AmountPaidUSD)
	assert.Equal(t, 50.0, rec.OriginalAmount)
	assert.Equal(t, domain.CurrencyUSD, rec.Currency)
	assert.Equal(t, domain.MethodCash, rec.PaymentMode)
	assert.Equal(t, domain.PaymentTuition, rec.PaymentType)
	require.NotNil(t, rec.TermName)
	assert.Equal(t, "2e Trimestre", *rec.TermName)
	assert.Nil(t, rec.FeeID)
	assert.Equal(t, PaymentCompleted, rec.Status)
	assert.Equal(t, "REF-9", rec.Reference)
	assert.Equal(t, 140000.0, rec.AmountSecondary)
}

func TestBuildPaymentRecord_ExtraInSecondaryCurrency(t *testing.T) {
	form := domain.PaymentForm{
		StudentID:   "stu-1",
		PaymentType: domain.PaymentExtra,
		FeeName:     "Uniforme",
		Amount:      28000,
		Currency:    domain.CurrencyCDF,
		Method:      domain.MethodMobileMoney,
	}

	rec, err := BuildPaymentRecord(form, sampleProfile(), rateOf(2800), "sy-2025")
	require.NoError(t, err)

	assert.Equal(t, 10.0, rec.AmountPaidUSD)
	assert.Equal(t, 28000.0, rec.OriginalAmount)
	assert.Equal(t, 28000.0, rec.AmountSecondary)
	require.NotNil(t, rec.FeeID)
	assert.Equal(t, "fee-uniform", *rec.FeeID)
	assert.Nil(t, rec.TermName)
}

func TestBuildPaymentRecord_ExceedsLimit(t *testing.T) {
	p := sampleProfile()
	p.Trimesters[1] = domain.TermPayment{Term: domain.Term2, TuitionDue: 300, AmountPaid: 100, Status: domain.StatusPending}

	rec, err := BuildPaymentRecord(domain.PaymentForm{StudentID: "stu-1", Term: domain.Term2, Amount: 250}, p, rateOf(2800), "sy")
	assert.Nil(t, rec)
	rej := rejection(t, err)
	assert.Equal(t, domain.RejectAmountExceedsBalance, rej.Code)
	assert.Equal(t, 200.0, rej.Limit)
	assert.Equal(t, domain.CurrencyUSD, rej.Currency)
}

func TestBuildPaymentRecord_LimitInSecondaryCurrency(t *testing.T) {
	form := domain.PaymentForm{StudentID: "stu-1", Term: domain.Term2, Amount: 168001, Currency: domain.CurrencyCDF}
	_, err := BuildPaymentRecord(form, sampleProfile(), rateOf(2800), "sy")
	rej := rejection(t, err)
	assert.Equal(t, 168000.0, rej.Limit)
	assert.Equal(t, domain.CurrencyCDF, rej.Currency)

	form.Amount = 168000
	_, err = BuildPaymentRecord(form, sampleProfile(), rateOf(2800), "sy")
	assert.NoError(t, err)
}

func TestBuildPaymentRecord_OverpaidTermRejectsAnyAmount(t *testing.T) {
	_, err := BuildPaymentRecord(domain.PaymentForm{StudentID: "stu-1", Term: domain.Term3, Amount: 1}, sampleProfile(), rateOf(2800), "sy")
	rej := rejection(t, err)
	assert.Equal(t, domain.RejectAmountExceedsBalance, rej.Code)
	assert.Equal(t, 0.0, rej.Limit)
}

func TestBuildPaymentRecord_ValidationOrder(t *testing.T) {
	p := sampleProfile()
	rate := rateOf(2800)

	tests := []struct {
		name    string
		form    domain.PaymentForm
		profile *domain.StudentPaymentProfile
		want    domain.RejectionCode
	}{
		{"no student wins over bad amount", domain.PaymentForm{Amount: -1}, nil, domain.RejectMissingStudent},
		{"no student id", domain.PaymentForm{Amount: 10, Term: domain.Term2}, p, domain.RejectMissingStudent},
		{"zero amount", domain.PaymentForm{StudentID: "stu-1", Amount: 0}, p, domain.RejectInvalidAmount},
		{"negative amount", domain.PaymentForm{StudentID: "stu-1", Amount: -5, Term: domain.Term2}, p, domain.RejectInvalidAmount},
		{"nan amount", domain.PaymentForm{StudentID: "stu-1", Amount: math.NaN()}, p, domain.RejectInvalidAmount},
		{"inf amount", domain.PaymentForm{StudentID: "stu-1", Amount: math.Inf(1)}, p, domain.RejectInvalidAmount},
		{"no term", domain.PaymentForm{StudentID: "stu-1", Amount: 10}, p, domain.RejectMissingTerm},
		{"unknown term", domain.PaymentForm{StudentID: "stu-1", Amount: 10, Term: "4e trimestre"}, p, domain.RejectMissingTerm},
		{"no fee", domain.PaymentForm{StudentID: "stu-1", Amount: 10, PaymentType: domain.PaymentExtra}, p, domain.RejectMissingFee},
		{"unknown fee", domain.PaymentForm{StudentID: "stu-1", Amount: 10, PaymentType: domain.PaymentExtra, FeeName: "Transport"}, p, domain.RejectMissingFee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPaymentRecord(tt.form, tt.profile, rate, "sy")
			assert.Equal(t, tt.want, rejection(t, err).Code)
		})
	}
}

func TestBuildPaymentRecord_UnknownSelectorIsNotAZeroLimit(t *testing.T) {
	p := sampleProfile()
	balance, err := RemainingBalance(p, domain.PaymentTuition, "4e trimestre", domain.CurrencyUSD, nil)
	require.NoError(t, err)
	require.Zero(t, balance)

	_, err = BuildPaymentRecord(domain.PaymentForm{StudentID: "stu-1", Amount: 500, Term: "4e trimestre"}, p, rateOf(2800), "sy")
	rej := rejection(t, err)
	assert.Equal(t, domain.RejectMissingTerm, rej.Code)
	assert.Zero(t, rej.Limit)
}

func TestBuildPaymentRecord_RateRequired(t *testing.T) {
	_, err := BuildPaymentRecord(domain.PaymentForm{StudentID: "stu-1", Term: domain.Term2, Amount: 10}, sampleProfile(), nil, "sy")
	var rateErr *domain.ErrRateUnavailable
	assert.True(t, errors.As(err, &rateErr))
}

func TestBuildReceipt(t *testing.T) {
	rate := rateOf(2850)
	rec, err := BuildPaymentRecord(domain.PaymentForm{StudentID: "stu-1", Term: domain.Term2, Amount: 12.35, Notes: "guichet"}, sampleProfile(), rate, "sy")
	require.NoError(t, err)

	created := &domain.CreatedPayment{ID: "pay-1", ReceiptNumber: "REC-2025-0001"}
	receipt := BuildReceipt(rec, created, ReceiptContext{
		StudentName: "Jeanne Mbuyi",
		Class:       "3e HTS",
		School:      "secondaire",
		Label:       domain.Term2,
		Date:        time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC),
	}, rate)

	assert.Equal(t, "REC-2025-0001", receipt.ReceiptNumber)
	assert.Equal(t, "pay-1", receipt.PaymentID)
	assert.Equal(t, "03/10/2025", receipt.Date)
	assert.Equal(t, domain.Term2, receipt.Label)
	assert.Equal(t, 12.35, receipt.AmountUSD)
	assert.Equal(t, 35198.0, receipt.AmountSecondary)
	assert.Equal(t, 2850.0, receipt.Rate)
	assert.Equal(t, "guichet", receipt.Notes)
	assert.Contains(t, receipt.DisplayUSD, "12,35")

	back, err := Convert(receipt.AmountSecondary, domain.CurrencyCDF, domain.CurrencyUSD, rate)
	require.NoError(t, err)
	assert.InDelta(t, receipt.AmountUSD, back, 0.5/2850+0.005)
}

func TestBuildReceipt_RoundTripBothDirections(t *testing.T) {
	rate := rateOf(2790.5)
	p := sampleProfile()
	p.Trimesters[1].TuitionDue = 10000

	forms := []domain.PaymentForm{
		{StudentID: "stu-1", Term: domain.Term2, Amount: 73.19},
		{StudentID: "stu-1", Term: domain.Term2, Amount: 204300, Currency: domain.CurrencyCDF},
	}
	for _, f := range forms {
		rec, err := BuildPaymentRecord(f, p, rate, "sy")
		require.NoError(t, err)
		receipt := BuildReceipt(rec, &domain.CreatedPayment{ID: "x"}, ReceiptContext{}, rate)
		assert.Equal(t, "x", receipt.ReceiptNumber)

		back, err := Convert(receipt.AmountSecondary, domain.CurrencyCDF, domain.CurrencyUSD, rate)
		require.NoError(t, err)
		assert.InDelta(t, receipt.AmountUSD, back, 0.5/2790.5+0.005)
	}
}
