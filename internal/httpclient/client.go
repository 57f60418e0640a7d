// Package httpclient wraps outbound JSON requests with a base URL,
// default headers, per-call timeouts, bounded exponential-backoff
// retries, and ordered request/response interceptor chains.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPError is returned for a terminal non-2xx response, carrying the
// parsed body when one was readable.
type HTTPError struct {
	Status     int
	StatusText string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d %s", e.Status, e.StatusText)
}

// NetworkError is returned when every attempt failed without a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when the per-request timeout aborted the
// final attempt.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("request timed out: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// RequestInterceptor may mutate the outgoing request, e.g. inject an auth
// header. A non-nil error aborts the call without retrying.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor inspects a response before status handling, e.g. to
// detect auth expiry. It must not consume the body.
type ResponseInterceptor func(resp *http.Response) error

type Options struct {
	BaseURL        string
	DefaultHeaders http.Header
	Timeout        time.Duration // per attempt, not per retry sequence
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type Client struct {
	baseURL    string
	headers    http.Header
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client

	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		headers:    opts.DefaultHeaders,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.RetryBaseDelay,
		httpClient: &http.Client{},
	}
}

// OnRequest appends a request interceptor. Interceptors run in
// registration order on every attempt.
func (c *Client) OnRequest(fn RequestInterceptor) {
	c.reqInterceptors = append(c.reqInterceptors, fn)
}

// OnResponse appends a response interceptor.
func (c *Client) OnResponse(fn ResponseInterceptor) {
	c.respInterceptors = append(c.respInterceptors, fn)
}

// Do performs a JSON request against baseURL+path, decoding the response
// body into out when out is non-nil. Network failures, 5xx responses and
// 429 are retried with delay baseDelay*2^n for attempt n; any other 4xx
// is terminal.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		done, err := c.attempt(ctx, method, path, payload, out)
		if done {
			return err
		}

		lastErr = err
	}

	return lastErr
}

// attempt runs a single try. done is true when the result is terminal
// (success or a non-retryable failure).
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (done bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return true, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, fn := range c.reqInterceptors {
		if err := fn(req); err != nil {
			return true, fmt.Errorf("request interceptor: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, classifyTransportError(reqCtx, err)
	}
	defer resp.Body.Close()

	for _, fn := range c.respInterceptors {
		if err := fn(resp); err != nil {
			return true, fmt.Errorf("response interceptor: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		httpErr := &HTTPError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       respBody,
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return false, httpErr
		}

		return true, httpErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return true, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return true, fmt.Errorf("decoding response body: %w", err)
	}

	return true, nil
}

func classifyTransportError(reqCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && reqCtx.Err() != nil {
		return &TimeoutError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}

	return &NetworkError{Err: err}
}
