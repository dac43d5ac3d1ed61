package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/fees"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var rateTracer = otel.Tracer("service/exchange-rate")

const (
	rateCacheKey  = "exchange-rate:latest"
	rateCacheName = "exchange_rate"
)

// ExchangeRateService serves the school's USD -> CDF rate.
type ExchangeRateService struct {
	store   port.ExchangeRateStore
	cache   port.Cache[*domain.ExchangeRate]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewExchangeRateService creates the exchange rate service.
func NewExchangeRateService(store port.ExchangeRateStore, cache port.Cache[*domain.ExchangeRate], metrics *observability.Metrics, logger *zap.Logger) *ExchangeRateService {
	return &ExchangeRateService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// Current returns the cached rate, loading it from the backend on a miss.
// Concurrent misses share one backend call.
func (s *ExchangeRateService) Current(ctx context.Context) (*domain.ExchangeRate, error) {
	ctx, span := rateTracer.Start(ctx, "ExchangeRateService.Current")
	defer span.End()

	rate, hit, err := s.cache.GetOrLoad(ctx, rateCacheKey, s.load)
	if err != nil {
		var unavailable *domain.ErrRateUnavailable
		if errors.As(err, &unavailable) {
			s.logger.Warn("exchange rate not configured", zap.Float64("rate", unavailable.Rate))
			return nil, err
		}
		s.metrics.IncrExternalError("exchange-rate")
		s.logger.Error("failed to fetch exchange rate", zap.Error(err))
		return nil, fmt.Errorf("exchange rate fetch: %w", err)
	}
	if hit {
		s.metrics.IncrCacheHit(rateCacheName)
	} else {
		s.metrics.IncrCacheMiss(rateCacheName)
	}
	return rate, nil
}

// load fetches the rate. Unusable rates are reported as errors so they are
// never cached.
func (s *ExchangeRateService) load(ctx context.Context) (*domain.ExchangeRate, error) {
	rate, err := s.store.GetExchangeRate(ctx)
	if err != nil {
		return nil, err
	}
	if !rate.Valid() {
		unavailable := &domain.ErrRateUnavailable{}
		if rate != nil {
			unavailable.Rate = rate.USDToSecondary
		}
		return nil, unavailable
	}
	return rate, nil
}

// Update stores a new rate and refreshes the cache.
func (s *ExchangeRateService) Update(ctx context.Context, usdToSecondary float64) (*domain.ExchangeRate, error) {
	ctx, span := rateTracer.Start(ctx, "ExchangeRateService.Update")
	defer span.End()
	span.SetAttributes(attribute.Float64("rate.usd_to_secondary", usdToSecondary))

	if err := validateStruct(domain.ExchangeRateUpdate{USDToSecondary: usdToSecondary}); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateExchangeRate(ctx, usdToSecondary)
	if err != nil {
		return nil, fmt.Errorf("exchange rate update: %w", err)
	}
	s.cache.Delete(rateCacheKey)

	s.logger.Info("exchange rate updated", zap.Float64("usd_to_secondary", updated.USDToSecondary))

	fresh, err := s.Current(ctx)
	if err != nil {
		// The write succeeded; answer with what the backend acknowledged.
		s.logger.Warn("exchange rate refetch failed after update", zap.Error(err))
		return updated, nil
	}
	return fresh, nil
}

// Convert converts amount with the current rate.
func (s *ExchangeRateService) Convert(ctx context.Context, amount float64, from, to domain.Currency) (*domain.Conversion, error) {
	rate, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	converted, err := fees.Convert(amount, from, to, rate)
	if err != nil {
		return nil, err
	}
	return &domain.Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: converted,
		Rate:      rate.USDToSecondary,
		Display:   fees.FormatAmount(converted, to),
	}, nil
}
