package chain

import (
	"context"
	"net/http"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// pendingRequest is the result of invoking a chain without a verb marker.
type pendingRequest struct {
	dispatcher *Dispatcher
	url        string
}

func (r *pendingRequest) URL() string {
	return r.url
}

// Send issues a GET through the fetch executor. Adapter defaults are merged
// under cfg as for a verb call.
func (r *pendingRequest) Send(ctx context.Context, args *hac.Args, cfg *hac.CallConfig) (*http.Response, error) {
	return r.dispatcher.send(ctx, r.url, hac.MethodGet, args, hac.MergeCallConfig(r.dispatcher.config.Defaults, cfg))
}
