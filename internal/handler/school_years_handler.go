package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

func listSchoolYearsHandler(svc *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/school-years")
		defer span.End()

		years, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, years)
	}
}

func activeSchoolYearHandler(svc *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/school-years/active")
		defer span.End()

		year, err := svc.Active(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, year)
	}
}

func configureSchoolYearHandler(svc *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/school-years")
		defer span.End()

		var setup domain.SchoolYearSetup
		if !decodeJSON(w, r, &setup) {
			return
		}

		year, err := svc.Configure(ctx, &setup)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, year)
	}
}

func tuitionTotalHandler(svc *service.SchoolYearService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tuitions/total")
		defer span.End()

		q := r.URL.Query()
		yearID, err := svc.Resolve(ctx, userIDFromContext(ctx), q.Get("schoolYearId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		total, err := svc.TuitionTotal(ctx, q.Get("className"), yearID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, total)
	}
}

// ============================================================
// Preferences
// ============================================================

func getPreferencesHandler(svc *service.PreferencesService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/preferences")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Get(ctx, userIDFromContext(ctx)))
	}
}

func savePreferencesHandler(svc *service.PreferencesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/preferences")
		defer span.End()

		var prefs domain.Preferences
		if !decodeJSON(w, r, &prefs) {
			return
		}

		saved, err := svc.Save(ctx, userIDFromContext(ctx), prefs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}
