package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the router dispatches to.
type Services struct {
	Rates       *service.ExchangeRateService
	Students    *service.StudentService
	Payments    *service.PaymentService
	SchoolYears *service.SchoolYearService
	Preferences *service.PreferencesService
	Dashboard   *service.DashboardService
	Structure   *service.StructureService
	Users       *service.UserService
	Auth        *service.AuthService

	// Backend is probed by /healthz. Nil skips the check.
	Backend Pinger

	// DefaultPageSize applies to student lists without ?limit.
	DefaultPageSize int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(observability.RequestMetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Backend, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		if svc.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth not configured")
			}))
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			// Exchange rate
			r.Get("/exchange-rate", getExchangeRateHandler(svc.Rates, logger))
			r.Get("/exchange-rate/convert", convertHandler(svc.Rates, logger))
			r.With(RequireRole(logger, domain.RoleAdmin)).
				Put("/exchange-rate", updateExchangeRateHandler(svc.Rates, logger))

			// Schools: students, balances, structure, dashboard
			r.Route("/schools/{school}", func(r chi.Router) {
				r.Get("/students", listStudentsHandler(svc.Students, svc.SchoolYears, svc.DefaultPageSize, logger))
				r.Get("/students/{studentId}/balance", balanceHandler(svc.Students, svc.SchoolYears, svc.Preferences, logger))
				r.Get("/structure", structureHandler(svc.Structure, logger))
				r.Get("/dashboard", dashboardHandler(svc.Dashboard, svc.SchoolYears, logger))

				r.Group(func(r chi.Router) {
					r.Use(RequireRole(logger, domain.RoleAdmin))
					r.Post("/students", createStudentHandler(svc.Structure, svc.SchoolYears, logger))
					r.Post("/students/import", importStudentsHandler(svc.Structure, svc.SchoolYears, logger))
					r.Post("/classes", createClassHandler(svc.Structure, logger))
				})
			})

			// Payments
			r.Get("/students/{studentId}/payments", listStudentPaymentsHandler(svc.Payments, svc.SchoolYears, logger))
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(logger, domain.RoleAdmin, domain.RoleAccountant))
				r.Post("/payments", submitPaymentHandler(svc.Payments, svc.SchoolYears, logger))
				r.Put("/payments/{paymentId}/verify", verifyPaymentHandler(svc.Payments, logger))
				r.Put("/payments/{paymentId}/cancel", cancelPaymentHandler(svc.Payments, logger))
			})

			// School years & tuition
			r.Get("/school-years", listSchoolYearsHandler(svc.SchoolYears, logger))
			r.Get("/school-years/active", activeSchoolYearHandler(svc.SchoolYears, logger))
			r.With(RequireRole(logger, domain.RoleAdmin)).
				Post("/school-years", configureSchoolYearHandler(svc.SchoolYears, logger))
			r.Get("/tuitions/total", tuitionTotalHandler(svc.SchoolYears, logger))

			// Preferences
			r.Get("/preferences", getPreferencesHandler(svc.Preferences))
			r.Put("/preferences", savePreferencesHandler(svc.Preferences, logger))

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Use(RequireRole(logger, domain.RoleAdmin))
				r.Get("/", listUsersHandler(svc.Users, logger))
				r.Post("/", createUserHandler(svc.Users, logger))
				r.Put("/{userId}", updateUserHandler(svc.Users, logger))
				r.Delete("/{userId}", deleteUserHandler(svc.Users, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(backend Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}

		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			start := time.Now()
			err := backend.Ping(ctx)
			sh := domain.ServiceHealth{
				Name:        "school-api",
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("health: school backend unreachable", zap.Error(err))
				sh.Status = "degraded"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Summary())
	}
}
