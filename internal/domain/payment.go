package domain

import "time"

// ============================================================
// Exchange rate
// ============================================================

// ExchangeRate is the single USD -> secondary currency rate of the school.
type ExchangeRate struct {
	USDToSecondary float64   `json:"usdToSecondary"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Valid reports whether the rate can be used for conversions.
func (r *ExchangeRate) Valid() bool {
	return r != nil && r.USDToSecondary > 0
}

// ExchangeRateUpdate is the body for PUT /v1/exchange-rate.
type ExchangeRateUpdate struct {
	USDToSecondary float64 `json:"usdToSecondary" validate:"gt=0"`
}

// Conversion is returned by GET /v1/exchange-rate/convert.
type Conversion struct {
	Amount    float64  `json:"amount"`
	From      Currency `json:"from"`
	To        Currency `json:"to"`
	Converted float64  `json:"converted"`
	Rate      float64  `json:"rate"`
	Display   string   `json:"display"`
}

// ============================================================
// Payments
// ============================================================

// PaymentType distinguishes tuition from extra-fee payments.
type PaymentType string

const (
	PaymentTuition PaymentType = "tuition"
	PaymentExtra   PaymentType = "extra"
)

// PaymentMethod is how the money was received.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCheck        PaymentMethod = "check"
)

// PaymentForm is the state of the payment form as posted by the UI.
// Amount is expressed in Currency.
type PaymentForm struct {
	School       string        `json:"school"`
	StudentID    string        `json:"studentId"`
	SchoolYearID string        `json:"schoolYearId,omitempty"`
	PaymentType  PaymentType   `json:"paymentType" validate:"omitempty,oneof=tuition extra"`
	Term         string        `json:"term,omitempty"`
	FeeName      string        `json:"feeName,omitempty"`
	Amount       float64       `json:"amount"`
	Currency     Currency      `json:"currency" validate:"omitempty,oneof=USD CDF"`
	Method       PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash bank_transfer mobile_money check"`
	Reference    string        `json:"reference,omitempty" validate:"max=100"`
	Notes        string        `json:"notes,omitempty" validate:"max=500"`
}

// PaymentRecord is the normalized write model sent to the backend.
type PaymentRecord struct {
	Student        string        `json:"student"`
	SchoolYear     string        `json:"schoolYear"`
	AmountPaidUSD  float64       `json:"amountPaidUSD"`
	OriginalAmount float64       `json:"originalAmount"`
	Currency       Currency      `json:"currency"`
	PaymentMode    PaymentMethod `json:"paymentMode"`
	PaymentType    PaymentType   `json:"paymentType"`
	TermName       *string       `json:"termName"`
	FeeID          *string       `json:"feeId"`
	Status         string        `json:"status"`
	Reference      string        `json:"reference,omitempty"`
	Notes          string        `json:"notes,omitempty"`

	// Mirrored amount in the currency that was not used for the payment.
	// Not sent to the backend, used to build the receipt.
	AmountSecondary float64 `json:"-"`
}

// CreatedPayment is the backend answer to a create-payment request.
type CreatedPayment struct {
	ID            string    `json:"id"`
	ReceiptNumber string    `json:"receiptNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Payment is a stored payment as returned by backend listings.
type Payment struct {
	ID               string        `json:"id"`
	StudentID        string        `json:"studentId"`
	StudentName      string        `json:"studentName,omitempty"`
	SchoolYearID     string        `json:"schoolYearId,omitempty"`
	AmountPaidUSD    float64       `json:"amountPaidUSD"`
	OriginalAmount   float64       `json:"originalAmount"`
	Currency         Currency      `json:"currency"`
	PaymentMode      PaymentMethod `json:"paymentMode"`
	PaymentType      PaymentType   `json:"paymentType"`
	TermName         string        `json:"termName,omitempty"`
	FeeID            string        `json:"feeId,omitempty"`
	Status           string        `json:"status"` // pending, completed, cancelled, refunded
	Reference        string        `json:"reference,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	ReceiptNumber    string        `json:"receiptNumber,omitempty"`
	VerifiedBy       string        `json:"verifiedBy,omitempty"`
	VerificationDate *time.Time    `json:"verificationDate,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// CancelPaymentRequest is the body for PUT /v1/payments/{id}/cancel.
type CancelPaymentRequest struct {
	Notes string `json:"notes" validate:"required,max=500"`
}

// ============================================================
// Receipts
// ============================================================

// Receipt is derived from a successful submission for display and print.
// It is never persisted by the BFA.
type Receipt struct {
	ReceiptNumber    string        `json:"receiptNumber"`
	PaymentID        string        `json:"paymentId,omitempty"`
	Date             string        `json:"date"`
	Student          string        `json:"student"`
	Class            string        `json:"class"`
	School           string        `json:"school"`
	Label            string        `json:"term"`
	PaymentType      PaymentType   `json:"paymentType"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Amount           float64       `json:"amount"`
	Currency         Currency      `json:"currency"`
	AmountUSD        float64       `json:"amountUSD"`
	AmountSecondary  float64       `json:"amountCDF"`
	Rate             float64       `json:"rate"`
	DisplayUSD       string        `json:"displayUSD"`
	DisplaySecondary string        `json:"displayCDF"`
	Reference        string        `json:"reference,omitempty"`
	Notes            string        `json:"notes,omitempty"`
}
