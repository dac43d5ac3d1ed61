package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
)

func TestExchangeRate_CurrentIsCached(t *testing.T) {
	store := rateStore(2850)
	metrics := observability.NewMetrics()
	svc := newRateService(store, metrics)

	for i := 0; i < 3; i++ {
		rate, err := svc.Current(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rate.USDToSecondary != 2850 {
			t.Errorf("expected 2850, got %v", rate.USDToSecondary)
		}
	}
	if store.gets.Load() != 1 {
		t.Errorf("expected 1 backend call, got %d", store.gets.Load())
	}
	if got := metrics.Summary().RateCacheHitRate; got < 0.66 || got > 0.67 {
		t.Errorf("expected hit rate 2/3, got %v", got)
	}
}

func TestExchangeRate_UnusableRateIsNotCached(t *testing.T) {
	store := rateStore(0)
	svc := newRateService(store, observability.NewMetrics())

	for i := 0; i < 2; i++ {
		_, err := svc.Current(context.Background())
		var unavailable *domain.ErrRateUnavailable
		if !errors.As(err, &unavailable) {
			t.Fatalf("expected ErrRateUnavailable, got %v", err)
		}
	}
	if store.gets.Load() != 2 {
		t.Errorf("expected a backend call per request, got %d", store.gets.Load())
	}
}

func TestExchangeRate_UpdateRejectsNonPositive(t *testing.T) {
	store := rateStore(2850)
	svc := newRateService(store, observability.NewMetrics())

	for _, v := range []float64{0, -10} {
		_, err := svc.Update(context.Background(), v)
		var ve *domain.ErrValidation
		if !errors.As(err, &ve) {
			t.Errorf("rate %v: expected ErrValidation, got %v", v, err)
		}
	}
	if store.updates.Load() != 0 {
		t.Errorf("invalid rates must not reach the backend")
	}
}

func TestExchangeRate_UpdateRefreshesCache(t *testing.T) {
	store := rateStore(2850)
	svc := newRateService(store, observability.NewMetrics())
	ctx := context.Background()

	if _, err := svc.Current(ctx); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.Update(ctx, 2900)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.USDToSecondary != 2900 {
		t.Errorf("expected 2900, got %v", updated.USDToSecondary)
	}
	current, _ := svc.Current(ctx)
	if current.USDToSecondary != 2900 {
		t.Errorf("cache still serves the old rate: %v", current.USDToSecondary)
	}
}

func TestExchangeRate_Convert(t *testing.T) {
	svc := newRateService(rateStore(2850), observability.NewMetrics())

	conv, err := svc.Convert(context.Background(), 10, domain.CurrencyUSD, domain.CurrencyCDF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Converted != 28500 || conv.Rate != 2850 {
		t.Errorf("unexpected conversion %+v", conv)
	}
	if conv.Display == "" {
		t.Error("expected a display string")
	}
}
