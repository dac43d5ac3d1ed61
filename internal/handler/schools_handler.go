package handler

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/filter"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

// ============================================================
// Schools: students, balances, structure, dashboard
// ============================================================

const maxImportBytes = 5 << 20

func listStudentsHandler(svc *service.StudentService, years *service.SchoolYearService, pageSize int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/schools/{school}/students")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		c, err := filter.ParseQuery(school, r.URL.Query())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if r.URL.Query().Get("limit") == "" && pageSize > 0 {
			c.PageSize = pageSize
		}

		userID := userIDFromContext(ctx)
		if c.SchoolYearID, err = years.Resolve(ctx, userID, c.SchoolYearID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		mode := r.URL.Query().Get("mode")
		span.SetAttributes(attribute.String("school", string(school)), attribute.String("filter.mode", mode))

		// One session per user and school: a newer query from the same
		// screen supersedes the older one.
		page, err := svc.ListStudents(ctx, userID+":"+string(school), mode, c)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func balanceHandler(svc *service.StudentService, years *service.SchoolYearService, prefs *service.PreferencesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/schools/{school}/students/{studentId}/balance")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		q := r.URL.Query()
		userID := userIDFromContext(ctx)

		bq := service.BalanceQuery{
			School:      school,
			StudentID:   chi.URLParam(r, "studentId"),
			PaymentType: domain.PaymentType(strings.ToLower(q.Get("paymentType"))),
			Selector:    q.Get("selector"),
		}
		switch bq.PaymentType {
		case "", domain.PaymentTuition, domain.PaymentExtra:
		default:
			writeError(w, http.StatusBadRequest, "paymentType must be tuition or extra")
			return
		}

		if v := q.Get("currency"); v != "" {
			cur, ok := domain.ParseCurrency(v)
			if !ok {
				writeError(w, http.StatusBadRequest, "currency must be USD or CDF")
				return
			}
			bq.Currency = cur
		} else {
			bq.Currency = prefs.Get(ctx, userID).DisplayCurrency
		}

		var err error
		if bq.SchoolYearID, err = years.Resolve(ctx, userID, q.Get("schoolYearId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		view, err := svc.Balance(ctx, bq)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func createStudentHandler(svc *service.StructureService, years *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/schools/{school}/students")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		var req domain.NewStudentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var err error
		if req.SchoolYearID, err = years.Resolve(ctx, userIDFromContext(ctx), req.SchoolYearID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		student, err := svc.EnrollStudent(ctx, school, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, student)
	}
}

// importStudentsHandler accepts a multipart upload (field "file") or a raw
// text/csv body. The class comes from ?class=.
func importStudentsHandler(svc *service.StructureService, years *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/schools/{school}/students/import")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		class := strings.TrimSpace(r.URL.Query().Get("class"))
		if class == "" {
			writeError(w, http.StatusBadRequest, "class is required")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		var body io.Reader = r.Body
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "file is required")
				return
			}
			defer file.Close()
			body = file
		}

		yearID, err := years.Resolve(ctx, userIDFromContext(ctx), r.URL.Query().Get("schoolYearId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.ImportStudents(ctx, school, class, yearID, body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("students imported",
			zap.String("school", string(school)),
			zap.String("class", class),
			zap.Int("created", report.Created),
			zap.Int("failed", report.Failed),
		)
		writeJSON(w, http.StatusOK, report)
	}
}

func structureHandler(svc *service.StructureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/schools/{school}/structure")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		structure, err := svc.Structure(ctx, school)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, structure)
	}
}

func createClassHandler(svc *service.StructureService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/schools/{school}/classes")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		var class domain.Class
		if !decodeJSON(w, r, &class) {
			return
		}

		created, err := svc.CreateClass(ctx, school, class)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func dashboardHandler(svc *service.DashboardService, years *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/schools/{school}/dashboard")
		defer span.End()

		school, ok := schoolParam(w, r, logger)
		if !ok {
			return
		}
		page, limit := parsePagination(r, 10)

		yearID, err := years.Resolve(ctx, userIDFromContext(ctx), r.URL.Query().Get("schoolYearId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		dashboard, err := svc.Get(ctx, school, yearID, page, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	}
}
