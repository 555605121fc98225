// Package api wraps the venue backend REST endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"venue-client/internal/metrics"
)

const (
	// DefaultMarket is the catalog market sent with every search.
	DefaultMarket = "CO"

	defaultTimeout = 15 * time.Second
	userAgent      = "venue-client/1.0"
	requestIDKey   = "X-Request-ID"
)

// Config holds the knobs the client is built from. BaseURL includes the API
// prefix, e.g. http://localhost:4000/api.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Market  string
}

// Client talks to the venue backend.
type Client struct {
	baseURL string
	market  string
	http    *resty.Client
}

// NewClient builds a client for cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	market := strings.TrimSpace(cfg.Market)
	if market == "" {
		market = DefaultMarket
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)

	httpClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(requestIDKey) == "" {
			r.SetHeader(requestIDKey, uuid.NewString())
		}
		return nil
	})

	return &Client{
		baseURL: baseURL,
		market:  market,
		http:    httpClient,
	}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.send(ctx, op, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body any, out any) error {
	if body == nil {
		body = struct{}{}
	}
	return c.send(ctx, op, http.MethodPost, path, nil, body, out)
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	start := time.Now()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.RecordRequest(op, "transport", time.Since(start))
		log.Debug().Err(err).Str("operation", op).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	if resp.IsError() {
		apiErr := newError(resp.StatusCode(), resp.Body())
		metrics.RecordRequest(op, fmt.Sprintf("http_%d", apiErr.Status), time.Since(start))
		log.Debug().
			Str("operation", op).
			Str("path", path).
			Int("status", apiErr.Status).
			Str("code", apiErr.Code).
			Msg("backend returned error")
		return apiErr
	}

	metrics.RecordRequest(op, "ok", time.Since(start))

	raw := resp.Body()
	if out == nil || len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnexpectedResponse, op, err)
	}
	return nil
}
