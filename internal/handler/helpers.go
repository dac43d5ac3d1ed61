package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error    string  `json:"error"`
	Code     string  `json:"code,omitempty"`
	Field    string  `json:"field,omitempty"`
	Limit    float64 `json:"limit,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parsePagination reads page and limit. Bad values fall back to defaults.
func parsePagination(r *http.Request, defaultLimit int) (page, limit int) {
	page = 1
	limit = defaultLimit
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return
}

// schoolParam resolves {school} and checks the caller may read it.
func schoolParam(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (domain.SchoolType, bool) {
	school, ok := domain.ParseSchool(chi.URLParam(r, "school"))
	if !ok {
		writeError(w, http.StatusBadRequest, "school must be maternelle, primaire or secondaire")
		return "", false
	}
	if p := PrincipalFromContext(r.Context()); p != nil && !p.CanAccessSchool(school) {
		logger.Warn("school access denied",
			zap.String("user_id", p.UserID),
			zap.String("school", string(school)),
		)
		writeError(w, http.StatusForbidden, "no access to this school")
		return "", false
	}
	return school, true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var rejected *domain.ErrPaymentRejected
	var rateUnavailable *domain.ErrRateUnavailable
	var superseded *domain.ErrSuperseded
	var external *domain.ErrExternalService
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation", Field: validation.Field})
	case errors.As(err, &rejected):
		logger.Debug("payment rejected", zap.String("code", string(rejected.Code)))
		status := http.StatusBadRequest
		if rejected.Code == domain.RejectAmountExceedsBalance {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{
			Error:    err.Error(),
			Code:     string(rejected.Code),
			Limit:    rejected.Limit,
			Currency: string(rejected.Currency),
		})
	case errors.As(err, &superseded):
		logger.Debug("query superseded", zap.String("session", superseded.Session))
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "superseded"})
	case errors.As(err, &rateUnavailable):
		logger.Warn("exchange rate unavailable", zap.Float64("rate", rateUnavailable.Rate))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "rate_unavailable"})
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		logger.Debug("request canceled", zap.Error(err))
		writeError(w, 499, "request canceled")
	case errors.As(err, &external):
		logger.Error("school backend error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "school backend unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
