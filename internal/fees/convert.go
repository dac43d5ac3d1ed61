// Package fees holds the fee and payment arithmetic of the school: currency
// conversion, remaining balances, paid status, payment assembly and receipts.
// Every function is pure; amounts are computed with decimal arithmetic and
// returned as float64 for JSON.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// Rounding applied to converted amounts.
const (
	usdPlaces       = 2
	secondaryPlaces = 0
)

// Convert converts amount between USD and the secondary currency.
//
// Same-currency conversions return amount unchanged and need no rate.
// USD to secondary is rounded to the nearest unit, secondary to USD to the
// cent. A missing or non-positive rate yields *domain.ErrRateUnavailable.
func Convert(amount float64, from, to domain.Currency, rate *domain.ExchangeRate) (float64, error) {
	if err := checkCurrency("from", from); err != nil {
		return 0, err
	}
	if err := checkCurrency("to", to); err != nil {
		return 0, err
	}
	if from == to {
		return amount, nil
	}
	if !rate.Valid() {
		return 0, rateError(rate)
	}

	a := decimal.NewFromFloat(amount)
	r := decimal.NewFromFloat(rate.USDToSecondary)

	if from == domain.CurrencyUSD {
		return a.Mul(r).Round(secondaryPlaces).InexactFloat64(), nil
	}
	return a.Div(r).Round(usdPlaces).InexactFloat64(), nil
}

// ToUSD is Convert(amount, from, USD, rate).
func ToUSD(amount float64, from domain.Currency, rate *domain.ExchangeRate) (float64, error) {
	return Convert(amount, from, domain.CurrencyUSD, rate)
}

// Other returns the currency a payment is mirrored into.
func Other(c domain.Currency) domain.Currency {
	if c == domain.CurrencyUSD {
		return domain.SecondaryCurrency
	}
	return domain.CurrencyUSD
}

func checkCurrency(field string, c domain.Currency) error {
	switch c {
	case domain.CurrencyUSD, domain.SecondaryCurrency:
		return nil
	}
	return &domain.ErrValidation{Field: field, Message: "unsupported currency " + string(c)}
}

func rateError(rate *domain.ExchangeRate) error {
	if rate == nil {
		return &domain.ErrRateUnavailable{}
	}
	return &domain.ErrRateUnavailable{Rate: rate.USDToSecondary}
}

// round2 rounds a float to the cent.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(usdPlaces).InexactFloat64()
}
