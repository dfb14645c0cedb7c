// Package hacclient provides the main entry point for creating route-chain
// clients.
package hacclient

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/hac/internal/auth"
	"github.com/fivetwenty-io/hac/internal/chain"
	hachttp "github.com/fivetwenty-io/hac/internal/http"
	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/fivetwenty-io/hac/internal/normalize"
	"github.com/fivetwenty-io/hac/pkg/hac"
)

// New creates the root node of a client dispatching managed calls to engine.
// engine may be nil; managed calls then fail with hac.ErrNoEngine.
func New(engine hac.Engine, config *hac.Config) (hac.Node, error) {
	if config == nil {
		return nil, hac.ErrConfigRequired
	}

	recorder, err := metrics.New(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	executor := hachttp.NewFetchExecutor(defaultTransport(config), defaultEncoder(config))

	return chain.NewDispatcher(engine, config, executor, recorder).Root(), nil
}

// NewFetchOnly creates a client without a managed engine.
func NewFetchOnly(config *hac.Config) (hac.Node, error) {
	return New(nil, config)
}

// NewWithToken creates a client that sends token as a bearer Authorization
// header on every call.
func NewWithToken(engine hac.Engine, baseURL, token string) (hac.Node, error) {
	return New(engine, &hac.Config{
		BaseURL:        baseURL,
		HeaderResolver: auth.BearerResolver(auth.NewStaticTokenManager(token, time.Time{})),
	})
}

func defaultTransport(config *hac.Config) hac.Transport {
	if config.Transport != nil {
		return config.Transport
	}

	opts := []hachttp.Option{hachttp.WithDebug(config.Debug)}

	if config.Logger != nil {
		opts = append(opts, hachttp.WithLogger(config.Logger))
	}

	if config.Timeout > 0 {
		opts = append(opts, hachttp.WithTimeout(config.Timeout))
	}

	if config.UserAgent != "" {
		opts = append(opts, hachttp.WithUserAgent(config.UserAgent))
	}

	return hachttp.NewClient(opts...)
}

func defaultEncoder(config *hac.Config) hac.BodyEncoder {
	if config.BodyEncoder != nil {
		return config.BodyEncoder
	}

	return normalize.StandardEncoder{}
}
