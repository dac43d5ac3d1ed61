package domain

import "time"

// ============================================================
// School years
// ============================================================

// SchoolYear is an academic period scoping every fee and payment record.
type SchoolYear struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	Terms     []Term    `json:"terms,omitempty"`
}

// Term is one billing period of a school year.
type Term struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ============================================================
// Configuration wizard
// ============================================================

// Fee frequencies accepted by the backend.
const (
	FrequencyOneTime = "one-time"
	FrequencyMonthly = "monthly"
	FrequencyTerm    = "term"
	FrequencyYearly  = "yearly"
)

// TermFees holds the tuition of one class for the three terms.
type TermFees struct {
	Term1 float64 `json:"term1" validate:"gte=0"`
	Term2 float64 `json:"term2" validate:"gte=0"`
	Term3 float64 `json:"term3" validate:"gte=0"`
}

// ClassFees ties a class to its term fees.
type ClassFees struct {
	ClassID  string   `json:"classId" validate:"required"`
	TermFees TermFees `json:"termFees"`
}

// FeeCategory groups per-class tuition (step 3 of the wizard).
type FeeCategory struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	FeesByClass []ClassFees `json:"feesByClass" validate:"dive"`
	Currency    Currency    `json:"currency"`
	Frequency   string      `json:"frequency"`
}

// AdditionalFee is an extra fee configured for one school (step 4).
type AdditionalFee struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Amount          float64  `json:"amount" validate:"gte=0"`
	Currency        Currency `json:"currency"`
	Frequency       string   `json:"frequency"`
	School          string   `json:"school"`
	PaymentDeadline string   `json:"paymentDeadline"`
}

// TermSetup is a term as typed in step 2 (dates as YYYY-MM-DD).
type TermSetup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SchoolYearSetup is the full wizard state posted on confirmation.
type SchoolYearSetup struct {
	SchoolYear     string          `json:"schoolYear"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Terms          []TermSetup     `json:"terms"`
	FeeCategories  []FeeCategory   `json:"feeCategories"`
	AdditionalFees []AdditionalFee `json:"additionalFees"`
}

// SchoolYearPayload is the shape the backend expects for a new school year.
type SchoolYearPayload struct {
	SchoolYear  SchoolYearPayloadYear `json:"schoolYear"`
	TuitionFees []TuitionFeeRow       `json:"tuitionFees"`
	ExtraFees   []ExtraFeeRow         `json:"extraFees"`
}

// SchoolYearPayloadYear is the period part of SchoolYearPayload.
type SchoolYearPayloadYear struct {
	YearLabel string    `json:"yearLabel"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Terms     []Term    `json:"terms"`
}

// TuitionFeeRow is one (class, term) tuition amount.
type TuitionFeeRow struct {
	Class    string    `json:"class"`
	TermName string    `json:"termName"`
	Amount   float64   `json:"amount"`
	DueDate  time.Time `json:"dueDate"`
}

// ExtraFeeRow is one configured extra fee.
type ExtraFeeRow struct {
	Name        string    `json:"name"`
	School      string    `json:"school"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	DueDate     time.Time `json:"dueDate"`
	Currency    Currency  `json:"currency"`
	Frequency   string    `json:"frequency"`
}

// TuitionTotal is the yearly tuition of a class.
type TuitionTotal struct {
	ClassName    string  `json:"className"`
	SchoolYearID string  `json:"schoolYearId"`
	Total        float64 `json:"total"`
}

// ============================================================
// School structure
// ============================================================

// SchoolOption is a secondary-school track.
type SchoolOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassRef is a class as listed in the school structure.
type ClassRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SchoolStructure lists the classes and options of a school.
type SchoolStructure struct {
	School  string         `json:"school"`
	Classes []ClassRef     `json:"classes"`
	Options []SchoolOption `json:"options"`
}

// Class is a class record.
type Class struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name" validate:"required,min=1,max=60"`
	School  string   `json:"school" validate:"required"`
	Options []string `json:"options,omitempty"`
	Option  string   `json:"option,omitempty"`
}

// ============================================================
// Preferences
// ============================================================

// Preferences is the per-user, non-authoritative session state that the
// browser used to keep in local storage.
type Preferences struct {
	UserID               string    `json:"-"`
	SelectedSchoolYearID string    `json:"selectedSchoolYearId,omitempty"`
	DisplayCurrency      Currency  `json:"displayCurrency,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt,omitempty"`
}
