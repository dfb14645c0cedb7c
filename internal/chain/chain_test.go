package chain_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/hac/internal/chain"
	hachttp "github.com/fivetwenty-io/hac/internal/http"
	"github.com/fivetwenty-io/hac/internal/normalize"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errResolver = errors.New("resolver failed")

type fetchCall struct {
	url  string
	init *hac.FetchInit
	body string
}

type fakeTransport struct {
	mutex sync.Mutex
	calls []fetchCall
}

func (f *fakeTransport) RoundTrip(ctx context.Context, url string, init *hac.FetchInit) (*http.Response, error) {
	call := fetchCall{url: url, init: init}

	if init.Body != nil {
		data, _ := io.ReadAll(init.Body)
		call.body = string(data)
	}

	f.mutex.Lock()
	f.calls = append(f.calls, call)
	f.mutex.Unlock()

	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

type engineCall struct {
	method hac.Method
	url    string
	body   *hac.Body
	cfg    *hac.CallConfig
}

type fakeEngine struct {
	baseURL string
	calls   []engineCall
	handles []*fakeHandle
}

func (e *fakeEngine) record(method hac.Method, url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	e.calls = append(e.calls, engineCall{method: method, url: url, body: body, cfg: cfg})
	handle := &fakeHandle{cfg: cfg}
	e.handles = append(e.handles, handle)

	return handle
}

func (e *fakeEngine) BaseURL() string { return e.baseURL }

func (e *fakeEngine) Get(url string, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodGet, url, nil, cfg)
}

func (e *fakeEngine) Head(url string, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodHead, url, nil, cfg)
}

func (e *fakeEngine) Options(url string, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodOptions, url, nil, cfg)
}

func (e *fakeEngine) Post(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodPost, url, body, cfg)
}

func (e *fakeEngine) Put(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodPut, url, body, cfg)
}

func (e *fakeEngine) Patch(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodPatch, url, body, cfg)
}

func (e *fakeEngine) Delete(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.record(hac.MethodDelete, url, body, cfg)
}

type fakeHandle struct {
	cfg   *hac.CallConfig
	sends int
}

func (h *fakeHandle) Send(ctx context.Context) (*hac.Response, error) {
	h.sends++

	return &hac.Response{StatusCode: http.StatusOK}, nil
}

func (h *fakeHandle) Await(ctx context.Context) (*hac.Response, error) { return h.Send(ctx) }
func (h *fakeHandle) Config() *hac.CallConfig                         { return h.cfg }
func (h *fakeHandle) Name() string                                    { return h.cfg.Name }

func newRoot(engine hac.Engine, config *hac.Config) (hac.Node, *fakeTransport) {
	transport := &fakeTransport{}
	executor := hachttp.NewFetchExecutor(transport, normalize.StandardEncoder{})

	return chain.NewDispatcher(engine, config, executor, nil).Root(), transport
}

func TestManagedDispatch(t *testing.T) {
	t.Parallel()

	t.Run("users $alova $get", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{baseURL: "http://api.test"}
		root, transport := newRoot(engine, &hac.Config{})

		result, err := root.At("users", "$alova", "$get").Invoke(context.Background(), &hac.Args{}, nil)
		require.NoError(t, err)

		assert.Equal(t, hac.KindHandle, result.Kind)
		require.Len(t, engine.calls, 1)
		assert.Equal(t, hac.MethodGet, engine.calls[0].method)
		assert.Equal(t, "users", engine.calls[0].url)
		assert.Nil(t, engine.calls[0].body)
		assert.Empty(t, transport.calls)
	})

	t.Run("path params are substituted", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		root, _ := newRoot(engine, &hac.Config{})

		_, err := root.At("users", ":id").Managed().Get(context.Background(), &hac.Args{
			Param: map[string]string{"id": "1"},
		}, nil)
		require.NoError(t, err)

		require.Len(t, engine.calls, 1)
		assert.Equal(t, "users/1", engine.calls[0].url)
	})

	t.Run("index and query", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		root, _ := newRoot(engine, &hac.Config{})

		_, err := root.At("users", "index").Managed().Get(context.Background(), &hac.Args{
			Query: map[string]any{"page": 2},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "users?page=2", engine.calls[0].url)
	})

	t.Run("body and merged headers", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		root, _ := newRoot(engine, &hac.Config{
			Headers:  map[string]string{"X-Static": "s"},
			Defaults: &hac.CallConfig{Name: "default", Headers: map[string]string{"X-Default": "d"}},
		})

		_, err := root.At("users").Managed().Post(context.Background(), &hac.Args{
			JSON:   map[string]any{"name": "a"},
			Cookie: map[string]string{"session": "abc"},
		}, &hac.CallConfig{Name: "createUser"})
		require.NoError(t, err)

		require.Len(t, engine.calls, 1)
		call := engine.calls[0]
		assert.Equal(t, hac.MethodPost, call.method)
		require.NotNil(t, call.body)
		assert.Equal(t, hac.BodyJSON, call.body.Kind)
		assert.JSONEq(t, `{"name":"a"}`, string(call.body.JSON))
		assert.Equal(t, "createUser", call.cfg.Name)
		assert.Equal(t, "application/json", call.cfg.Headers["Content-Type"])
		assert.Equal(t, "session=abc; Path=/", call.cfg.Headers["Cookie"])
		assert.Equal(t, "s", call.cfg.Headers["X-Static"])
		assert.Equal(t, "d", call.cfg.Headers["X-Default"])
	})

	t.Run("handle is not sent until awaited", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		root, transport := newRoot(engine, &hac.Config{})

		result, err := root.At("users").Managed().Get(context.Background(), nil, nil)
		require.NoError(t, err)

		handle, ok := result.AsHandle()
		require.True(t, ok)
		assert.Equal(t, 0, engine.handles[0].sends)
		assert.Empty(t, transport.calls)

		_, err = handle.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, engine.handles[0].sends)
	})

	t.Run("every verb selects its constructor", func(t *testing.T) {
		t.Parallel()

		engine := &fakeEngine{}
		root, _ := newRoot(engine, &hac.Config{})

		verbs := []hac.Method{
			hac.MethodGet, hac.MethodPost, hac.MethodPut, hac.MethodDelete,
			hac.MethodHead, hac.MethodOptions, hac.MethodPatch,
		}

		for _, verb := range verbs {
			_, err := root.At("items", "$alova", "$"+strings.ToLower(verb.String())).Invoke(context.Background(), nil, nil)
			require.NoError(t, err)
		}

		require.Len(t, engine.calls, len(verbs))

		for i, verb := range verbs {
			assert.Equal(t, verb, engine.calls[i].method)
		}
	})

	t.Run("no engine", func(t *testing.T) {
		t.Parallel()

		root, _ := newRoot(nil, &hac.Config{})

		_, err := root.At("users").Managed().Get(context.Background(), nil, nil)
		require.ErrorIs(t, err, hac.ErrNoEngine)
	})

	t.Run("unsupported verb", func(t *testing.T) {
		t.Parallel()

		root, _ := newRoot(&fakeEngine{}, &hac.Config{})

		_, err := root.At("users", "$alova", "$fetchAll").Invoke(context.Background(), nil, nil)
		require.ErrorIs(t, err, hac.ErrUnsupportedMethod)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestFetchDispatch(t *testing.T) {
	t.Parallel()

	t.Run("post json", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{BaseURL: "http://api.test"})

		result, err := root.At("users", "$post").Invoke(context.Background(), &hac.Args{
			JSON: map[string]any{"name": "a"},
		}, nil)
		require.NoError(t, err)

		resp, ok := result.AsResponse()
		require.True(t, ok)

		_ = resp.Body.Close()

		require.Len(t, transport.calls, 1)
		assert.Equal(t, "http://api.test/users", transport.calls[0].url)
		assert.Equal(t, "POST", transport.calls[0].init.Method)
		assert.Equal(t, "application/json", transport.calls[0].init.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"a"}`, transport.calls[0].body)
	})

	t.Run("get and head omit the body", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{BaseURL: "http://api.test"})

		for _, verb := range []string{"$get", "$head"} {
			_, err := root.At("users", verb).Invoke(context.Background(), &hac.Args{
				JSON: map[string]any{"name": "a"},
			}, nil)
			require.NoError(t, err)
		}

		require.Len(t, transport.calls, 2)

		for _, call := range transport.calls {
			assert.Nil(t, call.init.Body)
			assert.Empty(t, call.body)
		}
	})

	t.Run("params query and index", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{BaseURL: "http://api.test/"})

		_, err := root.At("users", ":id", "index").Get(context.Background(), &hac.Args{
			Param: map[string]string{"id": "7"},
			Query: map[string]any{"tag": []string{"a", "b"}},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "http://api.test/users/7?tag=a&tag=b", transport.calls[0].url)
	})

	t.Run("malformed verb is sent literally", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{BaseURL: "http://api.test"})

		_, err := root.At("users", "$purge").Invoke(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "PURGE", transport.calls[0].init.Method)
	})

	t.Run("header precedence", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{
			BaseURL: "http://api.test",
			Headers: map[string]string{"X-A": "static", "X-B": "static"},
			HeaderResolver: func(ctx context.Context) (map[string]string, error) {
				return map[string]string{"X-B": "resolver", "X-C": "resolver"}, nil
			},
			Defaults: &hac.CallConfig{Headers: map[string]string{"X-D": "default"}},
		})

		_, err := root.At("users").Get(context.Background(), &hac.Args{
			Header: map[string]string{"X-A": "args", "X-E": "args"},
		}, &hac.CallConfig{Headers: map[string]string{"X-C": "call"}})
		require.NoError(t, err)

		header := transport.calls[0].init.Header
		assert.Equal(t, "static", header.Get("X-A"))
		assert.Equal(t, "resolver", header.Get("X-B"))
		assert.Equal(t, "call", header.Get("X-C"))
		assert.Equal(t, "default", header.Get("X-D"))
		assert.Equal(t, "args", header.Get("X-E"))
	})

	t.Run("resolver errors are returned unmodified", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{
			HeaderResolver: func(ctx context.Context) (map[string]string, error) {
				return nil, errResolver
			},
		})

		_, err := root.At("users").Get(context.Background(), nil, nil)
		assert.Same(t, errResolver, err)
		assert.Empty(t, transport.calls)
	})

	t.Run("per-call transport", func(t *testing.T) {
		t.Parallel()

		root, transport := newRoot(nil, &hac.Config{BaseURL: "http://api.test"})
		override := &fakeTransport{}

		_, err := root.At("users").Delete(context.Background(), nil, &hac.CallConfig{Transport: override})
		require.NoError(t, err)

		assert.Empty(t, transport.calls)
		require.Len(t, override.calls, 1)
		assert.Equal(t, "DELETE", override.calls[0].init.Method)
	})
}

func TestURLCommand(t *testing.T) {
	t.Parallel()

	root, transport := newRoot(&fakeEngine{baseURL: "http://api.test"}, &hac.Config{})

	built, err := root.At("users", ":id").URL(&hac.Args{
		Param: map[string]string{"id": "1"},
		Query: map[string]any{"page": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/users/1?page=2", built.String())

	built, err = root.At("users", "index").URL(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/users", built.String())

	assert.Empty(t, transport.calls)
}

func TestBaseURLResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		engine   hac.Engine
		config   *hac.Config
		expected string
	}{
		{name: "config wins", engine: &fakeEngine{baseURL: "http://engine"}, config: &hac.Config{BaseURL: "http://config"}, expected: "http://config/users"},
		{name: "engine base", engine: &fakeEngine{baseURL: "http://engine"}, config: &hac.Config{}, expected: "http://engine/users"},
		{name: "root fallback", engine: nil, config: &hac.Config{}, expected: "/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, _ := newRoot(tt.engine, tt.config)

			built, err := root.Extend("users").URL(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, built.String())
		})
	}
}

func TestReflection(t *testing.T) {
	t.Parallel()

	root, _ := newRoot(nil, &hac.Config{})

	assert.Equal(t, "users", root.Extend("users").Name())
	assert.Empty(t, root.Name())

	result, err := root.At("users", "name", "valueOf").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, hac.KindName, result.Kind)
	assert.Equal(t, "users", result.Text)

	result, err = root.At("users", ":id", "toString").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, hac.KindDescription, result.Kind)
	assert.Equal(t, "/users/:id", result.Text)
	assert.Equal(t, []string{"users", ":id"}, result.Node.Path())
}

func TestUncalledRequest(t *testing.T) {
	t.Parallel()

	root, transport := newRoot(nil, &hac.Config{
		BaseURL:  "http://api.test",
		Defaults: &hac.CallConfig{Headers: map[string]string{"X-Default": "d"}},
	})

	result, err := root.Extend("users").Invoke(context.Background(), nil, nil)
	require.NoError(t, err)

	request, ok := result.AsRequest()
	require.True(t, ok)
	assert.Equal(t, "http://api.test/users", request.URL())
	assert.Empty(t, transport.calls)

	resp, err := request.Send(context.Background(), &hac.Args{Query: map[string]any{"q": "x"}}, nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	require.Len(t, transport.calls, 1)
	assert.Equal(t, "GET", transport.calls[0].init.Method)
	assert.Equal(t, "http://api.test/users?q=x", transport.calls[0].url)
	assert.Equal(t, "d", transport.calls[0].init.Header.Get("X-Default"))
}

func TestChainIsolation(t *testing.T) {
	t.Parallel()

	root, _ := newRoot(nil, &hac.Config{})

	base := root.At("api", "v1", "users")
	first := base.Extend("a")
	second := base.Extend("b")

	assert.Equal(t, []string{"api", "v1", "users"}, base.Path())
	assert.Equal(t, []string{"api", "v1", "users", "a"}, first.Path())
	assert.Equal(t, []string{"api", "v1", "users", "b"}, second.Path())
	assert.Empty(t, root.Path())

	path := first.Path()
	path[0] = "mutated"
	assert.Equal(t, "api", first.Path()[0])
}

func TestProperty(t *testing.T) {
	t.Parallel()

	root, _ := newRoot(nil, &hac.Config{})

	users, ok := root.Property("users")
	require.True(t, ok)
	assert.Equal(t, []string{"users"}, users.Path())

	_, ok = root.Property(42)
	assert.False(t, ok)

	_, ok = users.Property(hac.ThenProbe)
	assert.False(t, ok)
}
