// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/z5labs/mvi/internal/try"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type clientOptions struct {
	timeout    time.Duration
	transport  http.RoundTripper
	logger     *zap.Logger
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// ClientOption configures a [Client].
type ClientOption func(*clientOptions)

// ClientTimeout bounds every single HTTP attempt.
func ClientTimeout(timeout time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.timeout = timeout
	}
}

// WithTransport replaces http.DefaultTransport as the underlying transport.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(co *clientOptions) {
		co.transport = transport
	}
}

// MaxAttempts sets the number of retries after the first attempt.
func MaxAttempts(n int) ClientOption {
	return func(co *clientOptions) {
		co.maxRetries = n
	}
}

// MinWaitDuration sets the smallest backoff between attempts.
func MinWaitDuration(min time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.waitMin = min
	}
}

// MaxWaitDuration sets the largest backoff between attempts.
func MaxWaitDuration(max time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.waitMax = max
	}
}

// RetryAttemptLogger logs every attempt and response.
func RetryAttemptLogger(logger *zap.Logger) ClientOption {
	return func(co *clientOptions) {
		co.logger = logger
	}
}

// Client is a Service backed by an HTTP API.
//
//	POST {base}/login    {"email": "...", "password": "..."}
//	POST {base}/register {"email": "...", "password": "...", "displayName": "..."}
//
// Both endpoints answer 200 with {"success": bool}. 400 and 422 answers are
// reported as [ValidationError], decoded from {"field": "...", "reason": "..."}.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewClient returns a Client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	co := &clientOptions{
		transport:  http.DefaultTransport,
		logger:     zap.NewNop(),
		maxRetries: 2,
		waitMin:    100 * time.Millisecond,
		waitMax:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(co)
	}

	log := co.logger
	rc := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   co.timeout,
			Transport: otelhttp.NewTransport(co.transport),
		},
		Logger:       nil,
		RetryWaitMin: co.waitMin,
		RetryWaitMax: co.waitMax,
		RetryMax:     co.maxRetries,
		RequestLogHook: func(l retryablehttp.Logger, req *http.Request, i int) {
			log.Info("sending http request", zap.String("url", req.URL.String()), zap.Int("request_attempt_count", i))
		},
		ResponseLogHook: func(l retryablehttp.Logger, resp *http.Response) {
			log.Info("received http response", zap.String("url", resp.Request.URL.String()), zap.Int("http_status_code", resp.StatusCode))
		},
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    rc,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type resultResponse struct {
	Success bool `json:"success"`
}

type validationResponse struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Login implements the [Service] interface.
func (c *Client) Login(ctx context.Context, email, password string) (bool, error) {
	return c.post(ctx, "/login", loginRequest{
		Email:    email,
		Password: password,
	})
}

// Register implements the [Service] interface.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (bool, error) {
	return c.post(ctx, "/register", registerRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (_ bool, err error) {
	b, err := json.Marshal(body)
	if err != nil {
		return false, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer try.Close(&err, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var res resultResponse
		err = json.NewDecoder(resp.Body).Decode(&res)
		if err != nil {
			return false, err
		}
		return res.Success, nil
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		var res validationResponse
		decErr := json.NewDecoder(resp.Body).Decode(&res)
		if decErr != nil && !errors.Is(decErr, io.EOF) {
			res = validationResponse{
				Reason: fmt.Sprintf("%s (unreadable body: %s)", http.StatusText(resp.StatusCode), decErr),
			}
		}
		if res.Field == "" {
			res.Field = "request"
		}
		if res.Reason == "" {
			res.Reason = http.StatusText(resp.StatusCode)
		}
		return false, ValidationError{Field: res.Field, Reason: res.Reason}
	default:
		return false, StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
}
