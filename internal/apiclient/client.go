// Package apiclient is the HTTP client for the campaign backend. It owns
// request encoding, Basic-Auth, and the mapping of failures onto
// ConnectionError, HTTPError, and ErrUnauthenticated.
package apiclient

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

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Credentials is a Basic-Auth identity and secret.
type Credentials struct {
	Identity string
	Secret   string
}

// CredentialSource supplies credentials at request time. ok is false when
// no one is signed in.
type CredentialSource interface {
	Credentials() (creds Credentials, ok bool)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() (Credentials, bool)

// Credentials calls f.
func (f CredentialFunc) Credentials() (Credentials, bool) { return f() }

type staticCredentials Credentials

func (s staticCredentials) Credentials() (Credentials, bool) {
	return Credentials(s), s.Secret != ""
}

// Call describes one request. Path is relative to the base URL.
type Call struct {
	Method       string
	Path         string
	Query        url.Values
	Body         any
	RequiresAuth bool
}

// Result is a successful response. NoContent is set for 204, which is
// distinct from a JSON null body.
type Result struct {
	Status    int
	NoContent bool
	Body      json.RawMessage
}

// Decode unmarshals the body into v. It leaves v untouched when the
// response had no content.
func (r Result) Decode(v any) error {
	if r.NoContent || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("apiclient: decoding response: %w", err)
	}
	return nil
}

// Client talks to one backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	creds      CredentialSource
	logger     *zap.Logger
	breakerCfg BreakerSettings
	breaker    *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCredentialSource sets where auth-required calls get credentials.
func WithCredentialSource(src CredentialSource) Option {
	return func(c *Client) { c.creds = src }
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) { c.breakerCfg = s }
}

// New creates a client for baseURL, which must be an absolute http or
// https URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    defaultTimeout,
		logger:     zap.NewNop(),
		breakerCfg: DefaultBreakerSettings(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	c.breaker = newBreaker(c.breakerCfg, c.logger)
	return c, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// WithCredentials returns a client that authenticates with creds instead
// of the configured source. The copy shares transport and breaker.
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = staticCredentials(creds)
	return &cp
}

func (c *Client) credentials() (Credentials, bool) {
	if c.creds == nil {
		return Credentials{}, false
	}
	creds, ok := c.creds.Credentials()
	if !ok || creds.Secret == "" {
		return Credentials{}, false
	}
	return creds, true
}

// Do sends call and returns the response. Failures are *ConnectionError,
// *HTTPError, or ErrUnauthenticated; the last is returned before any I/O.
func (c *Client) Do(ctx context.Context, call Call) (Result, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var creds Credentials
	if call.RequiresAuth {
		var ok bool
		if creds, ok = c.credentials(); !ok {
			return Result{}, ErrUnauthenticated
		}
	}

	target := c.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return Result{}, fmt.Errorf("apiclient: encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{}, fmt.Errorf("apiclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if call.RequiresAuth {
		req.SetBasicAuth(creds.Identity, creds.Secret)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &ConnectionError{Op: method, URL: target, Err: err}
	}
	res, _ := out.(Result)

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", call.Path),
		zap.Int("status", res.Status),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	return res, err
}

func (c *Client) roundTrip(req *http.Request) (Result, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &ConnectionError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Status: resp.StatusCode}, &ConnectionError{Op: req.Method, URL: req.URL.String(), Err: err}
	}

	switch {
	case resp.StatusCode >= 400:
		return Result{Status: resp.StatusCode}, &HTTPError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       parseErrorBody(resp.Header.Get("Content-Type"), raw),
		}
	case resp.StatusCode == http.StatusNoContent:
		return Result{Status: resp.StatusCode, NoContent: true}, nil
	default:
		return Result{Status: resp.StatusCode, Body: raw}, nil
	}
}
