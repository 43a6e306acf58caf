package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/config"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout             = 10 * time.Second
	errorBodyReadLimit   int64 = 1024
	outcomeSuccess             = "success"
	outcomeError               = "error"
)

var errBaseURLRequired = errors.New("upstream base URL is required")

// Client talks to the marketplace backend. Reads may be retried; writes
// are issued exactly once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	metrics    *metrics.UpstreamMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics attaches request/retry counters.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the marketplace client from config.
func NewClient(cfg config.UpstreamConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logg:       logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// doRead issues a GET and retries dependency failures: the first retry is
// immediate, later ones wait a fixed delay.
func (c *Client) doRead(ctx context.Context, operation, path string, query url.Values, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		if attempt == 1 {
			return 0, false
		}
		return c.retryDelay, false
	}))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			c.metrics.IncRetry(operation)
			if c.logg != nil {
				c.logg.Warn(ctx, fmt.Sprintf("retrying upstream read %s (attempt %d)", operation, attempt+1))
			}
		}
		err := c.do(ctx, operation, http.MethodGet, path, query, nil, dest)
		if err != nil && isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return err
}

// doWrite issues a mutating request exactly once. Callers own any recovery.
func (c *Client) doWrite(ctx context.Context, operation, method, path string, body, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}
	return c.do(ctx, operation, method, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, dest any) error {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.IncRequest(operation, outcomeError)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute upstream %s", operation))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.IncRequest(operation, outcomeError)
		return statusError(operation, resp)
	}

	c.metrics.IncRequest(operation, outcomeSuccess)

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode upstream %s response", operation))
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	wrapped := fmt.Sprintf("upstream %s failed", operation)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, wrapped)
	case resp.StatusCode == http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, wrapped)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, wrapped)
	case resp.StatusCode == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, wrapped)
	case resp.StatusCode == http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, cause, wrapped)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, wrapped)
	}
}

func isRetryable(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeDependency)
}
