package hac

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Method is an upper-case HTTP verb.
type Method string

// Supported HTTP methods.
const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
	MethodPatch   Method = http.MethodPatch
)

// Reserved chain segments.
const (
	// VerbPrefix marks a segment as the terminal HTTP verb (e.g. "$get").
	VerbPrefix = "$"

	// BackendMarker selects the managed engine when it precedes the verb marker.
	BackendMarker = "$alova"

	// URLCommand is the verb that computes a URL without sending anything.
	URLCommand = "url"

	// IndexSegment represents the root route and is stripped from output paths.
	IndexSegment = "index"

	// NameSegment is the metadata key used by the reflection calls.
	NameSegment = "name"

	// ToStringSegment and ValueOfSegment are the reflection calls.
	ToStringSegment = "toString"
	ValueOfSegment  = "valueOf"

	// ThenProbe is never turned into a segment by Node.Property.
	ThenProbe = "then"
)

// ParseMethod upper-cases a verb name. Unknown verbs are returned as-is so the
// transport can reject them.
func ParseMethod(verb string) Method {
	return Method(strings.ToUpper(verb))
}

// HasBody reports whether requests with this method carry a body.
func (m Method) HasBody() bool {
	switch m {
	case MethodGet, MethodHead, MethodOptions:
		return false
	default:
		return true
	}
}

// Valid reports whether m is one of the seven supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodOptions, MethodPatch:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// Args holds the call-time arguments of a chain invocation. Exactly these six
// keys are recognized.
type Args struct {
	// Param substitutes ":name" placeholders in the path.
	Param map[string]string `json:"param,omitempty"  mapstructure:"param"  yaml:"param,omitempty"`
	// Query values may be strings, slices (repeated keys) or any scalar.
	Query map[string]any `json:"query,omitempty"  mapstructure:"query"  yaml:"query,omitempty"`
	// JSON is serialized with encoding/json and sent as application/json.
	JSON any `json:"json,omitempty"   mapstructure:"json"   yaml:"json,omitempty"`
	// Form values may be strings, slices, *FormFile or io.Reader.
	Form map[string]any `json:"form,omitempty"   mapstructure:"form"   yaml:"form,omitempty"`
	// Header is the lowest-precedence header layer.
	Header map[string]string `json:"header,omitempty" mapstructure:"header" yaml:"header,omitempty"`
	// Cookie entries are folded into a single Cookie header.
	Cookie map[string]string `json:"cookie,omitempty" mapstructure:"cookie" yaml:"cookie,omitempty"`
}

// DecodeArgs decodes a loosely typed argument map (for example parsed JSON)
// into Args. Unrecognized keys are ignored and scalar values are converted to
// strings where Args expects them.
func DecodeArgs(raw map[string]any) (*Args, error) {
	args := &Args{}
	if raw == nil {
		return args, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           args,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating args decoder: %w", err)
	}

	err = decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	return args, nil
}

// FormFile is a blob-like form value. Its presence forces multipart encoding.
type FormFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// BodyKind identifies which body representation is populated.
type BodyKind int

// Body kinds.
const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyForm
)

// String implements fmt.Stringer.
func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	default:
		return "none"
	}
}

// Body is a normalized, not yet encoded request body.
type Body struct {
	Kind BodyKind
	JSON []byte
	Form map[string]any
}

// IsZero reports whether no body was supplied.
func (b *Body) IsZero() bool {
	return b == nil || b.Kind == BodyNone
}

// Description is the transport-agnostic representation of one outgoing call.
type Description struct {
	Path        string
	Method      Method
	PathParams  map[string]string
	Query       url.Values
	Body        Body
	ContentType string
	Headers     http.Header
	Cookies     map[string]string
}

// FetchInit is the init object handed to a Transport together with the URL.
type FetchInit struct {
	Method string
	Header http.Header
	Body   io.Reader
	// RawBody carries an unencoded form for runtimes that encode it themselves.
	RawBody any
	// Extra is passed through to the transport untouched.
	Extra map[string]any
}

// CacheMode selects how the managed engine caches a response.
type CacheMode string

// Cache modes understood by the reference engine.
const (
	CacheModeMemory  CacheMode = "memory"
	CacheModeRestore CacheMode = "restore"
	CacheModeOff     CacheMode = "off"
)

// CacheDirective is the structured form of a cache setting.
type CacheDirective struct {
	Mode   CacheMode     `json:"mode,omitempty"   mapstructure:"mode"   yaml:"mode,omitempty"`
	Expire time.Duration `json:"expire,omitempty" mapstructure:"expire" yaml:"expire,omitempty"`
	Tag    string        `json:"tag,omitempty"    mapstructure:"tag"    yaml:"tag,omitempty"`
}

// CallConfig is the per-call execution config. Adapter-wide defaults use the
// same shape and are merged under it with MergeCallConfig.
type CallConfig struct {
	// Headers win over every other header layer.
	Headers map[string]string
	// Name identifies a managed method.
	Name string
	// CacheFor is shorthand for a memory cache directive with this expiry.
	CacheFor time.Duration
	// Cache is the structured cache directive; it wins over CacheFor.
	Cache *CacheDirective
	// Meta is arbitrary metadata carried on managed methods.
	Meta map[string]any
	// Transport overrides the fetch transport for this call.
	Transport Transport
	// Init fields override the computed fetch init, as a spread would.
	Init *FetchInit
}

// Response is what a managed Handle resolves to.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FromCache  bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}
