package fees

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

func rateOf(v float64) *domain.ExchangeRate {
	return &domain.ExchangeRate{USDToSecondary: v}
}

func TestConvert_SameCurrencyNeedsNoRate(t *testing.T) {
	got, err := Convert(42.137, domain.CurrencyUSD, domain.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.Equal(t, 42.137, got)

	got, err = Convert(15000, domain.CurrencyCDF, domain.CurrencyCDF, rateOf(0))
	require.NoError(t, err)
	assert.Equal(t, 15000.0, got)
}

func TestConvert_Rounding(t *testing.T) {
	rate := rateOf(2850)

	cdf, err := Convert(12.35, domain.CurrencyUSD, domain.CurrencyCDF, rate)
	require.NoError(t, err)
	assert.Equal(t, 35198.0, cdf) // 35197.5 rounds half away from zero

	usd, err := Convert(10000, domain.CurrencyCDF, domain.CurrencyUSD, rate)
	require.NoError(t, err)
	assert.Equal(t, 3.51, usd)
}

func TestConvert_RateUnavailable(t *testing.T) {
	for name, rate := range map[string]*domain.ExchangeRate{
		"nil":      nil,
		"zero":     rateOf(0),
		"negative": rateOf(-5),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Convert(10, domain.CurrencyCDF, domain.CurrencyUSD, rate)
			var rateErr *domain.ErrRateUnavailable
			assert.True(t, errors.As(err, &rateErr), "expected ErrRateUnavailable, got %v", err)
		})
	}
}

func TestConvert_UnsupportedCurrency(t *testing.T) {
	_, err := Convert(10, "EUR", domain.CurrencyUSD, rateOf(2800))
	var valErr *domain.ErrValidation
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "from", valErr.Field)
}

func TestConvert_RoundTrip(t *testing.T) {
	amounts := []float64{0.01, 0.5, 1, 7.25, 19.99, 100, 333.33, 1250.75, 99999.99}
	rates := []float64{0.5, 1, 3.7, 950, 2800, 2850.5, 10000}

	for _, r := range rates {
		rate := rateOf(r)
		// integer rounding on the secondary side plus cent rounding on the way back
		tolerance := 0.5/r + 0.005 + 1e-9
		for _, a := range amounts {
			sec, err := Convert(a, domain.CurrencyUSD, domain.CurrencyCDF, rate)
			require.NoError(t, err)
			back, err := Convert(sec, domain.CurrencyCDF, domain.CurrencyUSD, rate)
			require.NoError(t, err)
			assert.InDelta(t, a, back, tolerance, "amount=%v rate=%v", a, r)
		}
	}
}

func TestOther(t *testing.T) {
	assert.Equal(t, domain.CurrencyCDF, Other(domain.CurrencyUSD))
	assert.Equal(t, domain.CurrencyUSD, Other(domain.CurrencyCDF))
}

func TestFormatAmount_FrenchLocale(t *testing.T) {
	got := FormatAmount(12.5, domain.CurrencyUSD)
	assert.Contains(t, got, "12,50")
	assert.Contains(t, got, "USD")

	got = FormatAmount(35000, domain.CurrencyCDF)
	assert.Contains(t, got, ",00")
	assert.Contains(t, got, "CDF")
}
