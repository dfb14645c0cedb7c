package chain

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/fivetwenty-io/hac/internal/urlpath"
	"github.com/fivetwenty-io/hac/pkg/hac"
)

// managed builds an unexecuted engine handle for path. The URL stays relative
// to the engine's own base URL.
func (d *Dispatcher) managed(ctx context.Context, path, method string, args *hac.Args, cfg *hac.CallConfig) (*hac.Result, error) {
	if d.engine == nil {
		return nil, hac.ErrNoEngine
	}

	verb := hac.ParseMethod(method)
	if !verb.Valid() {
		return nil, fmt.Errorf("%w: %s", hac.ErrUnsupportedMethod, method)
	}

	desc, err := d.normalize(ctx, args, cfg)
	if err != nil {
		return nil, err
	}

	desc.Method = verb
	desc.Path = path

	target := urlpath.RemoveIndexString(path)
	target = urlpath.ReplaceURLParam(target, desc.PathParams)
	target = urlpath.AppendQuery(target, desc.Query)

	final := hac.MergeCallConfig(cfg, &hac.CallConfig{Headers: flattenHeaders(desc.Headers)})

	var body *hac.Body
	if !desc.Body.IsZero() {
		body = &desc.Body
	}

	d.recorder.Dispatch(metrics.BackendManaged, verb.String())
	d.logger.Debug("Creating managed method", map[string]interface{}{
		"method": verb.String(),
		"url":    target,
		"name":   final.Name,
	})

	var handle hac.Handle

	switch verb {
	case hac.MethodGet:
		handle = d.engine.Get(target, final)
	case hac.MethodHead:
		handle = d.engine.Head(target, final)
	case hac.MethodOptions:
		handle = d.engine.Options(target, final)
	case hac.MethodPost:
		handle = d.engine.Post(target, body, final)
	case hac.MethodPut:
		handle = d.engine.Put(target, body, final)
	case hac.MethodPatch:
		handle = d.engine.Patch(target, body, final)
	case hac.MethodDelete:
		handle = d.engine.Delete(target, body, final)
	}

	return &hac.Result{Kind: hac.KindHandle, Handle: handle}, nil
}

// flattenHeaders keeps the first value of every header.
func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))

	for key, values := range header {
		if len(values) > 0 {
			flat[key] = values[0]
		}
	}

	return flat
}
