package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	paymentsSubmitted  *prometheus.CounterVec
	paymentRejections  *prometheus.CounterVec
	searchesSuperseded *prometheus.CounterVec
	selectorMisses     *prometheus.CounterVec
	requestsTotal      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from the school backend.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		paymentsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_payments_submitted_total",
				Help: "Payments accepted by the backend.",
			},
			[]string{"type", "currency"},
		),
		paymentRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_payment_rejections_total",
				Help: "Payment forms rejected before reaching the backend.",
			},
			[]string{"code"},
		),
		searchesSuperseded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_student_queries_superseded_total",
				Help: "Student list queries discarded in favor of a newer one.",
			},
			[]string{"mode"},
		),
		selectorMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_balance_selector_misses_total",
				Help: "Balance lookups whose term or fee is absent from the student profile.",
			},
			[]string{"kind"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrPaymentSubmitted counts a payment accepted by the backend.
func (m *Metrics) IncrPaymentSubmitted(paymentType domain.PaymentType, currency domain.Currency) {
	m.paymentsSubmitted.WithLabelValues(string(paymentType), string(currency)).Inc()
}

// IncrPaymentRejected counts a locally rejected payment form.
func (m *Metrics) IncrPaymentRejected(code domain.RejectionCode) {
	m.paymentRejections.WithLabelValues(string(code)).Inc()
}

// IncrSuperseded counts a discarded student query.
func (m *Metrics) IncrSuperseded(mode string) {
	m.searchesSuperseded.WithLabelValues(mode).Inc()
}

// IncrSelectorMiss counts a balance lookup on an unknown term or fee.
func (m *Metrics) IncrSelectorMiss(kind string) {
	m.selectorMisses.WithLabelValues(kind).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// Summary returns a snapshot suitable for GET /v1/metrics/summary.
// Counters are cumulative since process start.
func (m *Metrics) Summary() *domain.OperationsSummary {
	submitted := sumCounterVec(m.paymentsSubmitted)
	rejected := sumCounterVec(m.paymentRejections)
	hits := getCounterValue(m.cacheHits, "exchange_rate")
	misses := getCounterValue(m.cacheMisses, "exchange_rate")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}
	rejectionRate := float64(0)
	if submitted+rejected > 0 {
		rejectionRate = rejected / (submitted + rejected)
	}

	return &domain.OperationsSummary{
		PaymentsSubmitted:  int64(submitted),
		PaymentsRejected:   int64(rejected),
		SearchesSuperseded: int64(sumCounterVec(m.searchesSuperseded)),
		SelectorMisses:     int64(sumCounterVec(m.selectorMisses)),
		BackendErrors:      int64(sumCounterVec(m.externalErrors)),
		RateCacheHitRate:   hitRate,
		RejectionRate:      rejectionRate,
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every child of a CounterVec, whatever its labels.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 32)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		total += m.GetCounter().GetValue()
	}
	return total
}
