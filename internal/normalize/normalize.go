// Package normalize turns call-time arguments into a hac.Description.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// ContentTypeJSON is forced when a json argument is present.
const ContentTypeJSON = "application/json"

// HeaderLayers are the header sources below the per-call arguments, lowest
// precedence first after Args.Header.
type HeaderLayers struct {
	Static   map[string]string
	Resolver hac.HeaderResolver
	Call     map[string]string
}

// Options tune normalization.
type Options struct {
	// StrictBody rejects json and form supplied together. Otherwise json,
	// which is applied last, wins.
	StrictBody bool
}

// Normalize builds a Description from args. Path and Method are left for the
// caller. Errors from the header resolver are returned unmodified.
func Normalize(ctx context.Context, args *hac.Args, layers HeaderLayers, opts Options) (*hac.Description, error) {
	desc := &hac.Description{
		PathParams: map[string]string{},
		Headers:    make(http.Header),
	}

	if args == nil {
		args = &hac.Args{}
	}

	if args.Query != nil {
		desc.Query = BuildQuery(args.Query)
	}

	if args.Form != nil && args.JSON != nil && opts.StrictBody {
		return nil, hac.ErrAmbiguousBody
	}

	if args.Form != nil {
		desc.Body = hac.Body{Kind: hac.BodyForm, Form: args.Form}
	}

	if args.JSON != nil {
		data, err := json.Marshal(args.JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: json: %w", hac.ErrInvalidArgs, err)
		}

		desc.Body = hac.Body{Kind: hac.BodyJSON, JSON: data}
		desc.ContentType = ContentTypeJSON
	}

	if args.Param != nil {
		desc.PathParams = args.Param
	}

	err := mergeHeaders(ctx, desc.Headers, args.Header, layers)
	if err != nil {
		return nil, err
	}

	if len(args.Cookie) > 0 {
		cookie, err := SerializeCookies(args.Cookie)
		if err != nil {
			return nil, err
		}

		desc.Cookies = args.Cookie
		desc.Headers.Set("Cookie", cookie)
	}

	if desc.ContentType != "" {
		desc.Headers.Set("Content-Type", desc.ContentType)
	}

	return desc, nil
}

func mergeHeaders(ctx context.Context, dst http.Header, callArgs map[string]string, layers HeaderLayers) error {
	setAll(dst, callArgs)
	setAll(dst, layers.Static)

	if layers.Resolver != nil {
		resolved, err := layers.Resolver(ctx)
		if err != nil {
			return err
		}

		setAll(dst, resolved)
	}

	setAll(dst, layers.Call)

	return nil
}

func setAll(dst http.Header, values map[string]string) {
	for key, value := range values {
		dst.Set(key, value)
	}
}

// BuildQuery encodes a query object. Slices become repeated keys and nil
// values are skipped.
func BuildQuery(query map[string]any) url.Values {
	values := url.Values{}

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		switch value := query[key].(type) {
		case nil:
			continue
		case []string:
			for _, item := range value {
				values.Add(key, item)
			}
		case []any:
			for _, item := range value {
				if item != nil {
					values.Add(key, fmt.Sprint(item))
				}
			}
		case []byte:
			values.Set(key, string(value))
		default:
			items, ok := sliceItems(value)
			if !ok {
				values.Set(key, fmt.Sprint(value))

				continue
			}

			for _, item := range items {
				if item != nil {
					values.Add(key, fmt.Sprint(item))
				}
			}
		}
	}

	return values
}

// sliceItems returns the elements of any slice or array other than a byte
// slice.
func sliceItems(value any) ([]any, bool) {
	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		return nil, false
	}

	if reflected.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	items := make([]any, reflected.Len())
	for index := range items {
		items[index] = reflected.Index(index).Interface()
	}

	return items, true
}
