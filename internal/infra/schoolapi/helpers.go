package schoolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/resilience"
)

// ============================================================
// Request plumbing
// ============================================================

type tokenKey struct{}

// WithToken stores the caller's bearer token in ctx. The client forwards it
// on every backend request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// doRequest executes one request against the backend. Non-2xx statuses are
// turned into errors; 4xx errors are marked permanent.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, in any, headers map[string]string) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, resilience.Permanent(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		c.logger.Error("school-api: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("school-api: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("school-api: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("school-api: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body, 512)),
		)
		return nil, statusError(resp.StatusCode, path, body)
	}

	c.logger.Debug("school-api: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// statusError converts a backend status into a typed error.
func statusError(status int, path string, body []byte) error {
	msg := backendMessage(body)
	switch {
	case status == http.StatusNotFound:
		return resilience.Permanent(&domain.ErrNotFound{Resource: "resource", ID: path})
	case status == http.StatusUnauthorized:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
	case status == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrForbidden{Action: path})
	case status == http.StatusConflict:
		return resilience.Permanent(&domain.ErrConflict{Message: msg})
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return resilience.Permanent(&domain.ErrValidation{Field: "body", Message: msg})
	case status >= 400 && status < 500:
		return resilience.Permanent(fmt.Errorf("school api returned %d: %s", status, msg))
	}
	return fmt.Errorf("school api returned %d: %s", status, msg)
}

// backendMessage extracts {"message": "..."} from an error body.
func backendMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return truncate(body, 200)
}

// decodeData decodes body into out, unwrapping a {"data": ...} envelope
// when the backend uses one.
func decodeData(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(body)
	if trimmed[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if data, ok := env["data"]; ok && len(env) <= 3 {
				trimmed = data
			}
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
