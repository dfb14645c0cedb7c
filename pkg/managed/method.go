package managed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/fivetwenty-io/hac/internal/normalize"
	"github.com/fivetwenty-io/hac/internal/urlpath"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"
)

// Method is a deferred request created by an Engine constructor. Nothing is
// sent before Send or Await.
type Method struct {
	engine *Engine
	id     string
	verb   hac.Method
	url    string
	body   *hac.Body
	config *hac.CallConfig
	key    string
}

var _ hac.Handle = (*Method)(nil)

func newMethod(engine *Engine, verb hac.Method, url string, body *hac.Body, cfg *hac.CallConfig) *Method {
	method := &Method{
		engine: engine,
		id:     uuid.NewString(),
		verb:   verb,
		url:    url,
		body:   body,
		config: cfg,
	}
	method.key = method.buildKey()

	return method
}

// ID returns the unique id of this handle.
func (m *Method) ID() string { return m.id }

// Name implements hac.Handle.
func (m *Method) Name() string { return m.config.Name }

// Verb returns the HTTP method.
func (m *Method) Verb() hac.Method { return m.verb }

// URL returns the URL as given to the constructor.
func (m *Method) URL() string { return m.url }

// Body returns the request body, or nil.
func (m *Method) Body() *hac.Body { return m.body }

// Config implements hac.Handle.
func (m *Method) Config() *hac.CallConfig { return m.config }

// Key identifies equivalent requests for caching and deduplication.
func (m *Method) Key() string { return m.key }

// buildKey identifies a request by verb, URL, headers and body. Requests that
// differ in any header never share a cache entry or a round-trip.
func (m *Method) buildKey() string {
	key := m.verb.String() + " " + m.fullURL()

	if len(m.config.Headers) > 0 {
		headers := make(map[string]string, len(m.config.Headers))
		for name, value := range m.config.Headers {
			headers[http.CanonicalHeaderKey(name)] = value
		}

		names := lo.Keys(headers)
		sort.Strings(names)

		hash := sha256.New()
		for _, name := range names {
			fmt.Fprintf(hash, "%s:%s\n", name, headers[name])
		}

		key += "|" + hex.EncodeToString(hash.Sum(nil))[:16]
	}

	if m.body != nil && !m.body.IsZero() {
		hash := sha256.New()
		hash.Write(m.body.JSON)

		fields := lo.Keys(m.body.Form)
		sort.Strings(fields)

		for _, field := range fields {
			fmt.Fprintf(hash, "%s=%v&", field, m.body.Form[field])
		}

		key += "#" + hex.EncodeToString(hash.Sum(nil))[:16]
	}

	return key
}

func (m *Method) fullURL() string {
	if strings.Contains(m.url, "://") {
		return m.url
	}

	return urlpath.MergePath(m.engine.config.BaseURL, m.url)
}

// directive resolves the effective cache directive. Only GET responses are
// cached.
func (m *Method) directive() (hac.CacheDirective, bool) {
	if m.verb != hac.MethodGet {
		return hac.CacheDirective{}, false
	}

	directive := hac.CacheDirective{Mode: hac.CacheModeMemory, Expire: m.config.CacheFor}

	if m.config.Cache != nil {
		if m.config.Cache.Mode != "" {
			directive.Mode = m.config.Cache.Mode
		}

		if m.config.Cache.Expire != 0 {
			directive.Expire = m.config.Cache.Expire
		}

		if directive.Expire == 0 {
			directive.Expire = constants.DefaultCacheTTL
		}

		directive.Tag = m.config.Cache.Tag
	}

	if directive.Mode == hac.CacheModeOff || directive.Expire <= 0 {
		return hac.CacheDirective{}, false
	}

	return directive, true
}

// Send implements hac.Handle. Cached GET responses are served without a
// round-trip; concurrent sends of the same key share one round-trip.
// Returned responses are shared and must not be modified.
func (m *Method) Send(ctx context.Context) (*hac.Response, error) {
	directive, cacheable := m.directive()
	cache := m.engine.cacheFor(directive.Mode)

	if cacheable {
		entry, err := cache.Get(ctx, m.key)
		if err == nil {
			m.engine.recorder.Cache(metrics.CacheHit)

			return entry.Response(), nil
		}

		m.engine.recorder.Cache(metrics.CacheMiss)
	}

	value, err, _ := m.engine.group.Do(m.key, func() (interface{}, error) {
		return m.roundTrip(ctx)
	})
	if err != nil {
		return nil, err
	}

	resp, _ := value.(*hac.Response)

	if cacheable && resp.StatusCode < http.StatusBadRequest {
		m.store(ctx, cache, directive, resp)
	}

	return resp, nil
}

// Await implements hac.Handle.
func (m *Method) Await(ctx context.Context) (*hac.Response, error) {
	return m.Send(ctx)
}

func (m *Method) store(ctx context.Context, cache Cache, directive hac.CacheDirective, resp *hac.Response) {
	err := cache.Set(ctx, m.key, &CacheEntry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       resp.Body,
		ExpiresAt:  time.Now().Add(directive.Expire),
		Tag:        directive.Tag,
	})
	if err != nil {
		m.engine.recorder.Cache(metrics.CacheError)
		m.engine.logger.Warn("Failed to cache response", map[string]interface{}{
			"key":   m.key,
			"error": err.Error(),
		})

		return
	}

	m.engine.recorder.Cache(metrics.CacheStore)
	m.engine.tag(directive.Tag, m.key)
}

func (m *Method) roundTrip(ctx context.Context) (*hac.Response, error) {
	req := &Request{
		Method:  m.verb,
		URL:     m.fullURL(),
		Headers: make(http.Header),
		Name:    m.config.Name,
		Meta:    m.config.Meta,
	}

	for key, value := range m.config.Headers {
		req.Headers.Set(key, value)
	}

	if m.verb.HasBody() && m.body != nil && !m.body.IsZero() {
		encoded, err := normalize.StandardEncoder{}.Encode(m.body)
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(encoded.Reader)
		if err != nil {
			return nil, err
		}

		req.Body = data

		if req.Headers.Get("Content-Type") == "" {
			req.Headers.Set("Content-Type", encoded.ContentType)
		}
	}

	if req.Headers.Get("User-Agent") == "" {
		req.Headers.Set("User-Agent", m.engine.config.UserAgent)
	}

	err := m.engine.config.Interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method.String(), req.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = req.Headers

	start := time.Now()

	httpResp, err := m.engine.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	data, err := drain(httpResp)
	if err != nil {
		return nil, err
	}

	m.engine.recorder.Observe(req.Method.String(), time.Since(start))

	resp := &hac.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}

	err = m.engine.config.Interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	return resp, nil
}
