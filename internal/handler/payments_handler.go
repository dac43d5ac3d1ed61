package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

// ============================================================
// Payments
// ============================================================

func submitPaymentHandler(svc *service.PaymentService, years *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments")
		defer span.End()

		var form domain.PaymentForm
		if !decodeJSON(w, r, &form) {
			return
		}
		span.SetAttributes(attribute.String("student.id", form.StudentID))

		if school, ok := domain.ParseSchool(form.School); ok {
			if p := PrincipalFromContext(ctx); !p.CanAccessSchool(school) {
				writeError(w, http.StatusForbidden, "no access to this school")
				return
			}
		}

		if err := svc.CheckForm(form); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		yearID, err := years.Resolve(ctx, userIDFromContext(ctx), form.SchoolYearID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Submit(ctx, form, yearID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func listStudentPaymentsHandler(svc *service.PaymentService, years *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/students/{studentId}/payments")
		defer span.End()

		studentID := chi.URLParam(r, "studentId")
		yearID, err := years.Resolve(ctx, userIDFromContext(ctx), r.URL.Query().Get("schoolYearId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		payments, err := svc.ListForStudent(ctx, studentID, yearID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

func verifyPaymentHandler(svc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/payments/{paymentId}/verify")
		defer span.End()

		payment, err := svc.Verify(ctx, chi.URLParam(r, "paymentId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}

func cancelPaymentHandler(svc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/payments/{paymentId}/cancel")
		defer span.End()

		var req domain.CancelPaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		payment, err := svc.Cancel(ctx, chi.URLParam(r, "paymentId"), req.Notes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}
