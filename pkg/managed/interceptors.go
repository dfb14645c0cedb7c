package managed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// Request is the outgoing request as seen by interceptors. Interceptors may
// modify it before it is sent.
type Request struct {
	Method  hac.Method
	URL     string
	Headers http.Header
	Body    []byte
	Name    string
	Meta    map[string]any
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a response is received and before it
// is cached.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *hac.Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request %w: %w", ErrInterceptorFailed, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *hac.Response) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response %w: %w", ErrInterceptorFailed, err)
		}
	}

	return nil
}

// withLogging returns a copy of chain that logs every request first and
// every response last.
func withLogging(chain *InterceptorChain, logger hac.Logger) *InterceptorChain {
	logged := NewInterceptorChain()
	logged.AddRequestInterceptor(LoggingInterceptor(logger))

	if chain != nil {
		logged.requestInterceptors = append(logged.requestInterceptors, chain.requestInterceptors...)
		logged.responseInterceptors = append(logged.responseInterceptors, chain.responseInterceptors...)
	}

	logged.AddResponseInterceptor(LoggingResponseInterceptor(logger))

	return logged
}

// Common Interceptors

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger hac.Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("Managed Request", map[string]interface{}{
			"method": req.Method.String(),
			"url":    req.URL,
			"name":   req.Name,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger hac.Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *hac.Response) error {
		fields := map[string]interface{}{
			"method":      req.Method.String(),
			"url":         req.URL,
			"status_code": resp.StatusCode,
		}

		if resp.StatusCode >= http.StatusBadRequest {
			logger.Warn("Managed Response Error", fields)
		} else {
			logger.Debug("Managed Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor sets a header on every request that does not carry it.
func HeaderInterceptor(key, value string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers.Get(key) == "" {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// StatusErrorInterceptor turns 4xx and 5xx responses into errors so they are
// never cached.
func StatusErrorInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *hac.Response) error {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, req.URL)
		}

		return nil
	}
}
