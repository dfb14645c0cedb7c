package chain

import (
	"context"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// node is an immutable chain position. segments is never appended to in
// place.
type node struct {
	dispatcher *Dispatcher
	segments   []string
}

var _ hac.Node = (*node)(nil)

func (n *node) Extend(segment string) hac.Node {
	segments := make([]string, len(n.segments), len(n.segments)+1)
	copy(segments, n.segments)

	return &node{dispatcher: n.dispatcher, segments: append(segments, segment)}
}

func (n *node) Property(key any) (hac.Node, bool) {
	segment, ok := key.(string)
	if !ok || segment == hac.ThenProbe {
		return nil, false
	}

	return n.Extend(segment), true
}

func (n *node) At(segments ...string) hac.Node {
	var current hac.Node = n
	for _, segment := range segments {
		current = current.Extend(segment)
	}

	return current
}

func (n *node) Managed() hac.Node {
	return n.Extend(hac.BackendMarker)
}

func (n *node) Invoke(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.dispatcher.dispatch(ctx, n.segments, args, cfg)
}

func (n *node) verb(ctx context.Context, method hac.Method, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.Extend(hac.VerbPrefix+strings.ToLower(method.String())).Invoke(ctx, args, cfg)
}

func (n *node) Get(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodGet, args, cfg)
}

func (n *node) Post(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodPost, args, cfg)
}

func (n *node) Put(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodPut, args, cfg)
}

func (n *node) Delete(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodDelete, args, cfg)
}

func (n *node) Head(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodHead, args, cfg)
}

func (n *node) Options(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodOptions, args, cfg)
}

func (n *node) Patch(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	return n.verb(ctx, hac.MethodPatch, args, cfg)
}

func (n *node) URL(args *hac.Args) (*url.URL, error) {
	result, err := n.Extend(hac.VerbPrefix+hac.URLCommand).Invoke(context.Background(), args, nil)
	if err != nil {
		return nil, err
	}

	built, ok := result.AsURL()
	if !ok {
		return nil, hac.ErrNotURL
	}

	return built, nil
}

func (n *node) Name() string {
	result, err := n.At(hac.NameSegment, hac.ToStringSegment).Invoke(context.Background(), nil, nil)
	if err != nil {
		return ""
	}

	text, _ := result.AsText()

	return text
}

func (n *node) Path() []string {
	return append([]string(nil), n.segments...)
}

// String renders the chain as a slash-separated path.
func (n *node) String() string {
	return "/" + strings.Join(n.segments, "/")
}
