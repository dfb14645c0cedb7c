// Package chain interprets route chains and dispatches them to the fetch
// executor or the managed engine.
package chain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/hac/internal/constants"
	hachttp "github.com/fivetwenty-io/hac/internal/http"
	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/fivetwenty-io/hac/internal/normalize"
	"github.com/fivetwenty-io/hac/internal/urlpath"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/samber/lo"
)

// Dispatcher holds the adapter-wide state shared by every node of a chain.
// It is read-only after NewDispatcher.
type Dispatcher struct {
	engine   hac.Engine
	config   *hac.Config
	baseURL  string
	fetch    *hachttp.FetchExecutor
	recorder *metrics.Recorder
	logger   hac.Logger
}

// NewDispatcher creates a dispatcher. engine may be nil, in which case
// managed calls fail with hac.ErrNoEngine.
func NewDispatcher(engine hac.Engine, config *hac.Config, fetch *hachttp.FetchExecutor, recorder *metrics.Recorder) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = hac.NopLogger{}
	}

	return &Dispatcher{
		engine:   engine,
		config:   config,
		baseURL:  resolveBaseURL(engine, config),
		fetch:    fetch,
		recorder: recorder,
		logger:   logger,
	}
}

// Root returns the empty chain.
func (d *Dispatcher) Root() hac.Node {
	return &node{dispatcher: d}
}

// BaseURL returns the base URL fetch calls are resolved against.
func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

func resolveBaseURL(engine hac.Engine, config *hac.Config) string {
	if config.BaseURL != "" {
		return config.BaseURL
	}

	if engine != nil && engine.BaseURL() != "" {
		return engine.BaseURL()
	}

	return constants.DefaultBaseURL
}

// dispatch resolves one invocation of segments.
func (d *Dispatcher) dispatch(ctx context.Context, segments []string, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	parts := append([]string(nil), segments...)

	// fromEnd(1) is the last segment; missing positions are "".
	fromEnd := func(n int) string {
		segment, _ := lo.Nth(segments, -n)

		return segment
	}

	last := fromEnd(1)
	if last == hac.ToStringSegment || last == hac.ValueOfSegment {
		if fromEnd(2) == hac.NameSegment {
			return &hac.Result{Kind: hac.KindName, Text: fromEnd(3)}, nil
		}

		self := &node{dispatcher: d, segments: parts[:len(parts)-1]}

		return &hac.Result{Kind: hac.KindDescription, Text: self.String(), Node: self}, nil
	}

	method := ""
	if strings.HasPrefix(last, hac.VerbPrefix) {
		method = strings.TrimPrefix(last, hac.VerbPrefix)
		parts = parts[:len(parts)-1]
	}

	merged := hac.MergeCallConfig(d.config.Defaults, cfg)

	if fromEnd(2) == hac.BackendMarker && method != "" {
		path := strings.Join(parts[:len(parts)-1], "/")

		return d.managed(ctx, path, method, args, merged)
	}

	target := urlpath.MergePath(d.baseURL, strings.Join(parts, "/"))

	switch {
	case method == hac.URLCommand:
		d.recorder.Dispatch(metrics.BackendURL, strings.ToUpper(method))

		built, err := buildURL(target, args)
		if err != nil {
			return nil, err
		}

		return &hac.Result{Kind: hac.KindURL, URL: built}, nil
	case method != "":
		resp, err := d.send(ctx, target, hac.ParseMethod(method), args, merged)
		if err != nil {
			return nil, err
		}

		return &hac.Result{Kind: hac.KindResponse, Response: resp}, nil
	default:
		return &hac.Result{Kind: hac.KindRequest, Request: &pendingRequest{dispatcher: d, url: target}}, nil
	}
}

// send normalizes args and hands the request to the fetch executor.
func (d *Dispatcher) send(ctx context.Context, target string, method hac.Method, args *hac.Args, cfg *hac.CallConfig) (*http.Response, error) {
	desc, err := d.normalize(ctx, args, cfg)
	if err != nil {
		return nil, err
	}

	desc.Method = method
	desc.Path = target

	target = urlpath.RemoveIndexString(target)
	target = urlpath.ReplaceURLParam(target, desc.PathParams)
	target = urlpath.AppendQuery(target, desc.Query)

	d.recorder.Dispatch(metrics.BackendFetch, method.String())
	d.logger.Debug("Dispatching fetch", map[string]interface{}{
		"method": method.String(),
		"url":    target,
	})

	return d.fetch.Execute(ctx, target, desc, cfg)
}

func (d *Dispatcher) normalize(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Description, error) {
	layers := normalize.HeaderLayers{
		Static:   d.config.Headers,
		Resolver: d.config.HeaderResolver,
		Call:     cfg.Headers,
	}

	return normalize.Normalize(ctx, args, layers, normalize.Options{StrictBody: d.config.StrictBody})
}

// buildURL computes the "$url" result without any network access.
func buildURL(target string, args *hac.Args) (*url.URL, error) {
	target = urlpath.RemoveIndexString(target)

	if args != nil {
		target = urlpath.ReplaceURLParam(target, args.Param)

		if args.Query != nil {
			target = urlpath.AppendQuery(target, normalize.BuildQuery(args.Query))
		}
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", target, err)
	}

	return parsed, nil
}
