package domain

// ============================================================
// Health, metrics & dashboard responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// OperationsSummary is returned by GET /v1/metrics/summary.
type OperationsSummary struct {
	PaymentsSubmitted  int64   `json:"paymentsSubmitted"`
	PaymentsRejected   int64   `json:"paymentsRejected"`
	SearchesSuperseded int64   `json:"searchesSuperseded"`
	SelectorMisses     int64   `json:"selectorMisses"`
	BackendErrors      int64   `json:"backendErrors"`
	RateCacheHitRate   float64 `json:"rateCacheHitRate"`
	RejectionRate      float64 `json:"rejectionRate"`
	Period             string  `json:"period"`
}

// ============================================================
// Dashboard
// ============================================================

// DashboardStudent is one row of the dashboard student table.
type DashboardStudent struct {
	ID             string         `json:"id"`
	FullName       string         `json:"fullName"`
	ClassName      string         `json:"className"`
	FirstTermPaid  float64        `json:"firstTermPaid"`
	SecondTermPaid float64        `json:"secondTermPaid"`
	ThirdTermPaid  float64        `json:"thirdTermPaid"`
	ExtraFees      []ExtraFeePaid `json:"extraFees"`
	IsUpToDate     bool           `json:"isUpToDate"`
}

// ExtraFeePaid is the paid amount of one extra fee on the dashboard.
type ExtraFeePaid struct {
	Name       string  `json:"name"`
	AmountPaid float64 `json:"amountPaid"`
}

// ClassCount is the head count of a class.
type ClassCount struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Options []string `json:"options,omitempty"`
}

// ClassPaymentTotals is the paid vs due amount of a class in USD.
type ClassPaymentTotals struct {
	Name string  `json:"name"`
	Paid float64 `json:"paid"`
	Due  float64 `json:"due"`
}

// DashboardStats is what the backend returns for a school dashboard page.
type DashboardStats struct {
	Total          int                  `json:"total"`
	UpToDate       int                  `json:"upToDate"`
	Late           int                  `json:"late"`
	Classes        []ClassCount         `json:"classes"`
	StudentDetails []DashboardStudent   `json:"studentDetails"`
	PaymentData    []ClassPaymentTotals `json:"paymentData"`
	TotalPages     int                  `json:"totalPages"`
	CurrentPage    int                  `json:"currentPage"`
}

// Dashboard is the BFA view: stats plus the rate and converted totals.
type Dashboard struct {
	School           string               `json:"school"`
	SchoolYearID     string               `json:"schoolYearId"`
	Stats            *DashboardStats      `json:"stats"`
	ExchangeRate     *ExchangeRate        `json:"exchangeRate,omitempty"`
	PaidUSD          float64              `json:"paidUsd"`
	DueUSD           float64              `json:"dueUsd"`
	PaidSecondary    *float64             `json:"paidCdf,omitempty"`
	DueSecondary     *float64             `json:"dueCdf,omitempty"`
	ClassesSecondary []ClassPaymentTotals `json:"paymentDataCdf,omitempty"`
}
