// Package schoolapi is the HTTP adapter for the school REST backend, which
// owns persistence and business rules. It implements the port interfaces
// used by the services.
package schoolapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var tracer = otel.Tracer("schoolapi")

var _ port.SchoolBackend = (*Client)(nil)

// Client wraps HTTP calls to the school backend.
//
// Reads go through the circuit breaker and are retried with backoff.
// Writes go through the breaker once and are never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a school backend client. baseURL includes the API
// prefix, e.g. http://localhost:5000/api.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		logger:     logger,
	}
}

// Ping checks that the backend answers. Any non-5xx response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/schools/active", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: "school-api", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &domain.ErrExternalService{Service: "school-api", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

// get performs a read with retry and decodes the (optionally enveloped)
// JSON response into out.
func (c *Client) get(ctx context.Context, service, path string, query url.Values, out any) error {
	ctx, span := tracer.Start(ctx, "SchoolAPI.GET "+service)
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path))

	_, err := c.cb.Execute(func() (any, error) {
		err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path, query, nil, nil)
			if err != nil {
				return err
			}
			return decodeData(body, out)
		})
		return nil, abandoned(ctx, err)
	})
	if err != nil {
		span.RecordError(err)
	}
	return c.wrap(service, err)
}

// send performs a single write (POST, PUT, DELETE). out may be nil.
func (c *Client) send(ctx context.Context, service, method, path string, in, out any, headers map[string]string) error {
	ctx, span := tracer.Start(ctx, "SchoolAPI."+method+" "+service)
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path))

	_, err := c.cb.Execute(func() (any, error) {
		body, err := c.doRequest(ctx, method, path, nil, in, headers)
		if err != nil {
			return nil, abandoned(ctx, err)
		}
		if out == nil || len(body) == 0 {
			return nil, nil
		}
		return nil, decodeData(body, out)
	})
	if err != nil {
		span.RecordError(err)
	}
	return c.wrap(service, err)
}

// abandoned marks err permanent when the caller's context ended, so a
// superseded or timed-out request is not held against the backend.
func abandoned(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil && !resilience.IsPermanent(err) {
		return resilience.Permanent(err)
	}
	return err
}

// wrap maps transport and breaker errors to domain errors. Errors the
// backend expressed in business terms (not found, conflict, ...) pass
// through so the handler can answer with the matching status.
func (c *Client) wrap(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: service}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		notFound     *domain.ErrNotFound
		unauthorized *domain.ErrUnauthorized
		forbidden    *domain.ErrForbidden
		conflict     *domain.ErrConflict
		validation   *domain.ErrValidation
	)
	switch {
	case errors.As(err, &notFound):
		return notFound
	case errors.As(err, &unauthorized):
		return unauthorized
	case errors.As(err, &forbidden):
		return forbidden
	case errors.As(err, &conflict):
		return conflict
	case errors.As(err, &validation):
		return validation
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}
