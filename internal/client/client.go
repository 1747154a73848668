// Package client talks to the project-tracking REST backend. Every call
// decodes the {status, message, data} envelope and returns either the data
// or an *Error classified by ErrorKind.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

const maxResponseBytes = 8 << 20

// Session supplies the bearer credential and receives invalidation signals.
// The client never navigates or clears storage itself.
type Session interface {
	Token() (string, bool)
	Invalidate(cause *Error)
}

// Client performs envelope-decoding HTTP calls against the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session Session
	limiter *rate.Limiter
	agent   string
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithSession injects the session context used for credentials and
// invalidation signals.
func WithSession(s Session) Option {
	return func(c *Client) { c.session = s }
}

// WithRateLimit paces outgoing requests. A zero rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.agent = ua }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "client").Logger() }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetSession replaces the session context.
func (c *Client) SetSession(s Session) {
	c.session = s
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// envelope is the backend's response wrapper. A missing status is treated as success.
type envelope struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        any
	rawBody     io.Reader
	contentType string
	anonymous   bool
	token       string // overrides the session credential
}

// do performs req and decodes the envelope's data into out (when non-nil).
// It returns the envelope message.
func (c *Client) do(ctx context.Context, req request, out any) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", networkError(req.op, err)
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", req.op, err)
	}

	start := time.Now()
	metrics.ClientRequestsInFlight.Inc()
	resp, err := c.http.Do(httpReq)
	metrics.ClientRequestsInFlight.Dec()
	metrics.ClientRequestDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())

	if err != nil {
		ce := networkError(req.op, err)
		c.record(req, ce, time.Since(start))
		return "", ce
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		ce := networkError(req.op, err)
		c.record(req, ce, time.Since(start))
		return "", ce
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ce := statusError(req.op, resp.StatusCode, env.Message)
		c.record(req, ce, time.Since(start))
		if ce.SessionEnding() && c.session != nil && !req.anonymous {
			c.session.Invalidate(ce)
		}
		return "", ce
	}

	if decodeErr != nil {
		if len(bytes.TrimSpace(raw)) == 0 && out == nil {
			c.record(req, nil, time.Since(start))
			return "", nil
		}
		ce := &Error{Kind: KindServerError, Op: req.op, Status: resp.StatusCode, Message: MsgServerError, Err: decodeErr}
		c.record(req, ce, time.Since(start))
		return "", ce
	}

	if env.Status != nil && !*env.Status {
		ce := &Error{Kind: KindValidation, Op: req.op, Status: resp.StatusCode, Message: orDefault(env.Message, MsgRejected)}
		c.record(req, ce, time.Since(start))
		return "", ce
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			ce := &Error{Kind: KindServerError, Op: req.op, Status: resp.StatusCode, Message: MsgServerError, Err: err}
			c.record(req, ce, time.Since(start))
			return "", ce
		}
	}

	c.record(req, nil, time.Since(start))
	return env.Message, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = req.rawBody
	case req.body != nil:
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.agent != "" {
		httpReq.Header.Set("User-Agent", c.agent)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	} else if !req.anonymous && c.session != nil {
		if token, ok := c.session.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) record(req request, err *Error, took time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = string(err.Kind)
	}
	metrics.ClientRequestsTotal.WithLabelValues(req.op, outcome).Inc()

	if err == nil {
		c.logger.Debug().Str("op", req.op).Str("method", req.method).Str("path", req.path).Dur("took", took).Msg("request ok")
		return
	}
	c.logger.Warn().Str("op", req.op).Str("method", req.method).Str("path", req.path).
		Str("kind", string(err.Kind)).Int("status", err.Status).Err(err.Err).Dur("took", took).
		Msg(err.Message)
}
