package hac

import (
	"maps"
	"net/http"

	"github.com/samber/lo"
)

// DeepMerge combines layers in order. Later layers override earlier ones key
// by key, nested maps are merged recursively and every other value (slices
// included) is replaced wholesale. Inputs are never modified.
func DeepMerge(layers ...map[string]any) map[string]any {
	var merged map[string]any

	for _, layer := range layers {
		if layer == nil {
			continue
		}

		merged = mergeMaps(merged, layer)
	}

	return merged
}

func mergeMaps(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, dst)

	for key, value := range src {
		srcMap, ok := value.(map[string]any)
		if !ok {
			out[key] = value

			continue
		}

		dstMap, _ := out[key].(map[string]any)
		out[key] = mergeMaps(dstMap, srcMap)
	}

	return out
}

// MergeCallConfig combines config layers, most specific last. Scalars are
// overridden when set, Headers are merged, Meta and Init.Extra are deep
// merged and the Cache directive is merged field by field.
func MergeCallConfig(layers ...*CallConfig) *CallConfig {
	merged := &CallConfig{}

	for _, layer := range layers {
		if layer == nil {
			continue
		}

		if layer.Headers != nil {
			merged.Headers = lo.Assign(merged.Headers, layer.Headers)
		}

		if layer.Name != "" {
			merged.Name = layer.Name
		}

		if layer.CacheFor != 0 {
			merged.CacheFor = layer.CacheFor
		}

		if layer.Cache != nil {
			merged.Cache = mergeCacheDirective(merged.Cache, layer.Cache)
		}

		if layer.Meta != nil {
			merged.Meta = DeepMerge(merged.Meta, layer.Meta)
		}

		if layer.Transport != nil {
			merged.Transport = layer.Transport
		}

		if layer.Init != nil {
			merged.Init = mergeFetchInit(merged.Init, layer.Init)
		}
	}

	return merged
}

func mergeCacheDirective(dst, src *CacheDirective) *CacheDirective {
	out := &CacheDirective{}
	if dst != nil {
		*out = *dst
	}

	if src.Mode != "" {
		out.Mode = src.Mode
	}

	if src.Expire != 0 {
		out.Expire = src.Expire
	}

	if src.Tag != "" {
		out.Tag = src.Tag
	}

	return out
}

func mergeFetchInit(dst, src *FetchInit) *FetchInit {
	out := &FetchInit{}
	if dst != nil {
		*out = *dst
	}

	if src.Method != "" {
		out.Method = src.Method
	}

	if src.Header != nil {
		header := make(http.Header)
		for key, values := range out.Header {
			header[key] = append([]string(nil), values...)
		}

		for key, values := range src.Header {
			header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}

		out.Header = header
	}

	if src.Body != nil {
		out.Body = src.Body
	}

	if src.RawBody != nil {
		out.RawBody = src.RawBody
	}

	if src.Extra != nil {
		out.Extra = DeepMerge(out.Extra, src.Extra)
	}

	return out
}
