package handler

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

// ============================================================
// Exchange rate
// ============================================================

func getExchangeRateHandler(svc *service.ExchangeRateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/exchange-rate")
		defer span.End()

		rate, err := svc.Current(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rate)
	}
}

func updateExchangeRateHandler(svc *service.ExchangeRateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/exchange-rate")
		defer span.End()

		var req domain.ExchangeRateUpdate
		if !decodeJSON(w, r, &req) {
			return
		}

		rate, err := svc.Update(ctx, req.USDToSecondary)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("exchange rate updated",
			zap.String("user_id", userIDFromContext(ctx)),
			zap.Float64("usd_to_cdf", rate.USDToSecondary),
		)
		writeJSON(w, http.StatusOK, rate)
	}
}

func convertHandler(svc *service.ExchangeRateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/exchange-rate/convert")
		defer span.End()

		q := r.URL.Query()
		amount, err := strconv.ParseFloat(q.Get("amount"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		from, ok := domain.ParseCurrency(q.Get("from"))
		if !ok {
			writeError(w, http.StatusBadRequest, "from must be USD or CDF")
			return
		}
		to, ok := domain.ParseCurrency(q.Get("to"))
		if !ok {
			writeError(w, http.StatusBadRequest, "to must be USD or CDF")
			return
		}
		span.SetAttributes(
			attribute.String("currency.from", string(from)),
			attribute.String("currency.to", string(to)),
		)

		conv, err := svc.Convert(ctx, amount, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}
