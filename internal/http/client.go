package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/hashicorp/go-cleanhttp"
)

// Client is the default fetch transport: a pooled net/http client with
// optional request/response logging.
type Client struct {
	httpClient *http.Client
	logger     hac.Logger
	debug      bool
	userAgent  string
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger hac.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent when the caller sets none.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates the default transport.
func NewClient(opts ...Option) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		httpClient: httpClient,
		logger:     hac.NopLogger{},
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// RoundTrip implements hac.Transport. The response is returned without being
// read or checked.
func (c *Client) RoundTrip(ctx context.Context, rawURL string, init *hac.FetchInit) (*http.Response, error) {
	if init.RawBody != nil && init.Body == nil {
		return nil, hac.ErrRawBodyUnsupported
	}

	req, err := http.NewRequestWithContext(ctx, init.Method, rawURL, init.Body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if init.Header != nil {
		req.Header = init.Header.Clone()
	}

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
		})
	}

	return resp, nil
}
