// Package recova provides the typed HTTP client for the RECOVA core API
// (the FastAPI backend behind /api/v1). It is the only place that knows the
// wire details: bearer auth, the {"detail": ...} error envelope, and the two
// list shapes the core may return.
package recova

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("recova")

// Client wraps HTTP calls to the core API. One instance is shared by all
// resource gateways; the bearer token is passed per call, never stored.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a core API client. baseURL is the API root without the
// /api/v1 suffix.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// do executes one authenticated request and returns the response body.
// Non-2xx responses come back as typed domain errors; a 401 always maps to
// ErrUnauthorized so callers can force the session clear.
func (c *Client) do(ctx context.Context, resource, op, method, path, token, contentType string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/%s", c.baseURL, strings.TrimLeft(path, "/"))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncrUpstreamError(resource)
		c.logger.Error("recova: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrNetwork{Resource: resource, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrNetwork{Resource: resource, Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("recova: unauthorized",
			zap.String("method", method),
			zap.String("path", path),
		)
		return nil, &domain.ErrUnauthorized{Message: parseDetail(respBody)}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.ErrNotFound{Resource: resource, ID: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncrUpstreamError(resource)
		detail := parseDetail(respBody)
		c.logger.Warn("recova: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return nil, &domain.ErrUpstream{Resource: resource, Op: op, Status: resp.StatusCode, Detail: detail}
	}

	c.logger.Debug("recova: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

// get executes a GET with retry, circuit breaker, and the concurrency cap.
// Only reads are retried: a replayed mutation could duplicate the operation
// upstream.
func (c *Client) get(ctx context.Context, resource, op, path, token string) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.do(ctx, resource, op, http.MethodGet, path, token, "", nil)
			if err != nil {
				if !retryable(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, unwrapExecute(err)
	}
	return body, nil
}

// send executes a mutation (POST/PUT/DELETE) through the breaker without
// retry.
func (c *Client) send(ctx context.Context, resource, op, method, path, token, contentType string, payload []byte) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		b, err := c.do(ctx, resource, op, method, path, token, contentType, payload)
		if err != nil {
			return nil, err
		}
		body = b
		return nil, nil
	})
	if err != nil {
		return nil, unwrapExecute(err)
	}
	return body, nil
}

// sendJSON marshals payload and sends it with a JSON content type.
func (c *Client) sendJSON(ctx context.Context, resource, op, method, path, token string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, resource, op, method, path, token, "application/json", raw)
}

// retryable reports whether a failed read is worth repeating. Only
// transport-level failures qualify; any answered request is final.
func retryable(err error) bool {
	var netErr *domain.ErrNetwork
	return errors.As(err, &netErr)
}

// unwrapExecute maps an open breaker to its own type so handlers can answer
// 503 instead of a generic failure.
func unwrapExecute(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "recova-core"}
	}
	return err
}

// parseDetail extracts the FastAPI {"detail": "..."} message. The detail
// field may also be a structured list on 422s; anything non-string is
// re-serialized so the operator still sees the server's words.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	return string(envelope.Detail)
}

// decodeList normalizes the two list shapes the core may return: a bare
// array, or a wrapper object holding the array under a named key. Neither
// shape matching is an ErrFormat; callers fall back to an empty sequence
// with a warning.
func decodeList[T any](body []byte, resource string, wrapperKeys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err == nil {
			return items, nil
		}
		return nil, &domain.ErrFormat{Resource: resource}
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err == nil {
		for _, key := range wrapperKeys {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			var items []T
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}
	return nil, &domain.ErrFormat{Resource: resource}
}
