package schoolapi

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// rateDTO is the backend representation of the exchange rate.
type rateDTO struct {
	USDToFC   float64   `json:"usdToFc"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetExchangeRate fetches the latest USD -> CDF rate.
func (c *Client) GetExchangeRate(ctx context.Context) (*domain.ExchangeRate, error) {
	var dto rateDTO
	if err := c.get(ctx, "exchange-rate", "/exchange-rate/latest", nil, &dto); err != nil {
		return nil, err
	}
	return &domain.ExchangeRate{USDToSecondary: dto.USDToFC, UpdatedAt: dto.UpdatedAt}, nil
}

// UpdateExchangeRate posts a new rate. When the backend does not echo the
// stored rate, the posted value is returned.
func (c *Client) UpdateExchangeRate(ctx context.Context, usdToSecondary float64) (*domain.ExchangeRate, error) {
	var dto rateDTO
	in := map[string]float64{"usdToFc": usdToSecondary}
	if err := c.send(ctx, "exchange-rate", http.MethodPost, "/exchange-rate", in, &dto, nil); err != nil {
		return nil, err
	}
	if dto.USDToFC <= 0 {
		return &domain.ExchangeRate{USDToSecondary: usdToSecondary, UpdatedAt: time.Now().UTC()}, nil
	}
	return &domain.ExchangeRate{USDToSecondary: dto.USDToFC, UpdatedAt: dto.UpdatedAt}, nil
}
