package hac

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Node is one position in a route chain. Every Extend returns a new Node;
// Nodes are immutable and safe to share between goroutines.
type Node interface {
	// Extend returns a node with segment appended to the chain.
	Extend(segment string) Node
	// Property is the dynamic-access layer over Extend. Non-string keys and
	// the "then" probe yield false.
	Property(key any) (Node, bool)
	// At extends the chain by several segments.
	At(segments ...string) Node
	// Managed appends the backend marker.
	Managed() Node
	// Invoke resolves the chain.
	Invoke(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)

	Get(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Post(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Put(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Delete(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Head(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Options(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)
	Patch(ctx context.Context, args *Args, cfg *CallConfig) (*Result, error)

	// URL is shorthand for invoking the "$url" command.
	URL(args *Args) (*url.URL, error)
	// Name is shorthand for the name.toString reflection.
	Name() string
	// Path returns a copy of the accumulated segments.
	Path() []string
	String() string
}

// Handle is a deferred managed request. Nothing is sent before Send or Await.
type Handle interface {
	Send(ctx context.Context) (*Response, error)
	// Await sends the request if needed and waits for the response.
	Await(ctx context.Context) (*Response, error)
	Config() *CallConfig
	Name() string
}

// Engine is the managed request/caching engine. The interpreter selects the
// constructor named after the HTTP method.
type Engine interface {
	BaseURL() string
	Get(url string, cfg *CallConfig) Handle
	Head(url string, cfg *CallConfig) Handle
	Options(url string, cfg *CallConfig) Handle
	Post(url string, body *Body, cfg *CallConfig) Handle
	Put(url string, body *Body, cfg *CallConfig) Handle
	Patch(url string, body *Body, cfg *CallConfig) Handle
	Delete(url string, body *Body, cfg *CallConfig) Handle
}

// Transport sends one request described by url and init.
type Transport interface {
	RoundTrip(ctx context.Context, url string, init *FetchInit) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string, init *FetchInit) (*http.Response, error)

// RoundTrip calls f.
func (f TransportFunc) RoundTrip(ctx context.Context, url string, init *FetchInit) (*http.Response, error) {
	return f(ctx, url, init)
}

// EncodedBody is the output of a BodyEncoder.
type EncodedBody struct {
	Reader      io.Reader
	ContentType string
	// Raw is set instead of Reader when the runtime encodes the body itself.
	Raw any
}

// BodyEncoder turns a normalized Body into what the transport sends.
type BodyEncoder interface {
	Encode(body *Body) (*EncodedBody, error)
}

// HeaderResolver computes adapter-level headers at call time.
type HeaderResolver func(ctx context.Context) (map[string]string, error)

// PendingRequest is returned for chains invoked without a verb marker.
type PendingRequest interface {
	URL() string
	// Send issues the request; an empty method sends GET.
	Send(ctx context.Context, args *Args, cfg *CallConfig) (*http.Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// Config is the adapter-wide configuration. It is read-only once passed to
// hacclient.New.
type Config struct {
	// BaseURL overrides the engine's base URL. Defaults to "/" when neither
	// is set.
	BaseURL string

	// Headers are static adapter-level headers.
	Headers map[string]string
	// HeaderResolver is evaluated on every call after Headers.
	HeaderResolver HeaderResolver

	// Defaults is merged under every call's CallConfig.
	Defaults *CallConfig

	// Transport is the default fetch transport. If nil, a pooled net/http
	// client is used.
	Transport Transport
	// BodyEncoder selects how bodies are encoded. If nil, StandardEncoder.
	BodyEncoder BodyEncoder

	// StrictBody rejects calls that supply both json and form.
	StrictBody bool

	// Timeout applies to the default transport only.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent of the default transport.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger.
	Logger Logger

	// Registerer receives dispatch metrics when set.
	Registerer prometheus.Registerer
}
