package domain

import "strings"

// ============================================================
// Schools & currencies
// ============================================================

// SchoolType identifies one of the three schools of the establishment.
type SchoolType string

const (
	SchoolMaternelle SchoolType = "maternelle"
	SchoolPrimaire   SchoolType = "primaire"
	SchoolSecondaire SchoolType = "secondaire"
)

// ParseSchool normalizes a school name ("Secondaire", "secondaire", ...).
func ParseSchool(s string) (SchoolType, bool) {
	switch SchoolType(strings.ToLower(strings.TrimSpace(s))) {
	case SchoolMaternelle:
		return SchoolMaternelle, true
	case SchoolPrimaire:
		return SchoolPrimaire, true
	case SchoolSecondaire:
		return SchoolSecondaire, true
	}
	return "", false
}

// HasOptions reports whether classes of this school carry an option (track).
func (s SchoolType) HasOptions() bool {
	return s == SchoolSecondaire
}

// Title returns the capitalized form used by the backend for class records.
func (s SchoolType) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Currency is an ISO currency code. Amounts are stored in USD; CDF is the
// secondary currency used for cash payments.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCDF Currency = "CDF"

	SecondaryCurrency = CurrencyCDF
)

// ParseCurrency accepts "usd", "USD", "cdf", "FC"...
func ParseCurrency(s string) (Currency, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USD", "$":
		return CurrencyUSD, true
	case "CDF", "FC":
		return CurrencyCDF, true
	}
	return "", false
}

// ============================================================
// Student payment read model
// ============================================================

// Payment status values shared by terms and extra fees.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// Term names as configured by the school-year wizard.
const (
	Term1 = "1er trimestre"
	Term2 = "2e trimestre"
	Term3 = "3e trimestre"
)

// Terms lists the three billing periods in order.
var Terms = []string{Term1, Term2, Term3}

// TermLabel returns the label stored on payment records for a term
// ("1er trimestre" -> "1er Trimestre"). Unknown names map to "".
func TermLabel(term string) string {
	switch term {
	case Term1:
		return "1er Trimestre"
	case Term2:
		return "2e Trimestre"
	case Term3:
		return "3e Trimestre"
	}
	return ""
}

// TermPayment is the tuition situation of a student for one term.
type TermPayment struct {
	Term       string  `json:"term"`
	TuitionDue float64 `json:"tuition"`
	AmountPaid float64 `json:"paid"`
	Status     string  `json:"status"` // paid, pending
}

// ExtraFeeCharge is the situation of a student for one named extra fee.
type ExtraFeeCharge struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	AmountDue  float64 `json:"amount"`
	AmountPaid float64 `json:"paid"`
	Status     string  `json:"status"`
	DueDate    string  `json:"dueDate,omitempty"`
	Recurring  bool    `json:"isRecurring,omitempty"`
}

// StudentPaymentProfile is materialized by the backend per student and school
// year. It is read-only for the BFA.
type StudentPaymentProfile struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Class      string           `json:"class"`
	School     string           `json:"school"`
	Option     string           `json:"option,omitempty"`
	Trimesters []TermPayment    `json:"trimesters"`
	ExtraFees  []ExtraFeeCharge `json:"extraFees"`
}

// FindTerm returns the term entry with the given name.
func (p *StudentPaymentProfile) FindTerm(term string) (*TermPayment, bool) {
	for i := range p.Trimesters {
		if p.Trimesters[i].Term == term {
			return &p.Trimesters[i], true
		}
	}
	return nil, false
}

// FindFee returns the extra fee with the given name.
func (p *StudentPaymentProfile) FindFee(name string) (*ExtraFeeCharge, bool) {
	for i := range p.ExtraFees {
		if p.ExtraFees[i].Name == name {
			return &p.ExtraFees[i], true
		}
	}
	return nil, false
}

// StudentPage is one page of student payment profiles.
type StudentPage struct {
	Students      []StudentPaymentProfile `json:"students"`
	TotalStudents int                     `json:"totalStudents"`
	TotalPages    int                     `json:"totalPages"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"limit"`
}

// BalanceView is returned by the balance endpoint and drives the max amount
// of the payment form.
type BalanceView struct {
	StudentID    string   `json:"studentId"`
	PaymentType  string   `json:"paymentType"`
	Selector     string   `json:"selector"`
	Found        bool     `json:"found"`
	AmountDue    float64  `json:"amountDue"`
	AmountPaid   float64  `json:"amountPaid"`
	RemainingUSD float64  `json:"remainingUsd"`
	Remaining    float64  `json:"remaining"`
	MaxPayable   float64  `json:"maxPayable"`
	Currency     Currency `json:"currency"`
	Status       string   `json:"status"`
	DefaultTerm  string   `json:"defaultTerm,omitempty"`
}

// NewStudentRequest is the body for enrolling a student.
type NewStudentRequest struct {
	Name         string `json:"name" validate:"required,min=2"`
	Class        string `json:"class" validate:"required"`
	Option       string `json:"option,omitempty"`
	School       string `json:"school"`
	SchoolYearID string `json:"schoolYearId"`
}

// Student is a created student as echoed by the backend.
type Student struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Option string `json:"option,omitempty"`
	School string `json:"school"`
}

// ImportRowResult reports the outcome of one CSV row.
type ImportRowResult struct {
	Line    int    `json:"line"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Rows    []ImportRowResult `json:"rows"`
}

// Add appends a row and updates the counters.
func (r *ImportReport) Add(row ImportRowResult) {
	if row.Created {
		r.Created++
	} else {
		r.Failed++
	}
	r.Rows = append(r.Rows, row)
}
