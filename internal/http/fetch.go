// Package http holds the Fetch Executor and its default net/http transport.
package http

import (
	"context"
	"net/http"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// FetchExecutor sends exactly one request per Execute through a Transport.
// It does not retry, cache or inspect responses.
type FetchExecutor struct {
	transport hac.Transport
	encoder   hac.BodyEncoder
}

// NewFetchExecutor creates an executor. The encoder is fixed for the life of
// the executor.
func NewFetchExecutor(transport hac.Transport, encoder hac.BodyEncoder) *FetchExecutor {
	return &FetchExecutor{
		transport: transport,
		encoder:   encoder,
	}
}

// Execute sends desc to rawURL. Bodies are omitted for GET, HEAD and OPTIONS.
// Fields of cfg.Init override the computed init. Transport errors are
// returned unmodified.
func (e *FetchExecutor) Execute(ctx context.Context, rawURL string, desc *hac.Description, cfg *hac.CallConfig) (*http.Response, error) {
	init := &hac.FetchInit{
		Method: string(desc.Method),
		Header: desc.Headers.Clone(),
	}

	if init.Header == nil {
		init.Header = make(http.Header)
	}

	if desc.Method.HasBody() && !desc.Body.IsZero() {
		encoded, err := e.encoder.Encode(&desc.Body)
		if err != nil {
			return nil, err
		}

		init.Body = encoded.Reader
		init.RawBody = encoded.Raw

		if encoded.ContentType != "" && init.Header.Get("Content-Type") == "" {
			init.Header.Set("Content-Type", encoded.ContentType)
		}
	}

	transport := e.transport

	if cfg != nil {
		applyInit(init, cfg.Init)

		if cfg.Transport != nil {
			transport = cfg.Transport
		}
	}

	return transport.RoundTrip(ctx, rawURL, init)
}

func applyInit(init *hac.FetchInit, override *hac.FetchInit) {
	if override == nil {
		return
	}

	if override.Method != "" {
		init.Method = override.Method
	}

	if override.Header != nil {
		init.Header = override.Header.Clone()
	}

	if override.Body != nil {
		init.Body = override.Body
	}

	if override.RawBody != nil {
		init.RawBody = override.RawBody
	}

	if override.Extra != nil {
		init.Extra = hac.DeepMerge(init.Extra, override.Extra)
	}
}
