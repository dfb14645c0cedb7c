package normalize_test

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/fivetwenty-io/hac/internal/normalize"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errResolver = errors.New("resolver exploded")

func TestNormalize_Query(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), &hac.Args{
		Query: map[string]any{
			"page":  2,
			"tag":   []string{"a", "b"},
			"mixed": []any{"x", nil, 3},
			"skip":  nil,
			"id":    []int{1, 2},
			"flag":  [2]bool{true, false},
			"raw":   []byte("bytes"),
		},
	}, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)

	assert.Equal(t, "2", desc.Query.Get("page"))
	assert.Equal(t, []string{"a", "b"}, desc.Query["tag"])
	assert.Equal(t, []string{"x", "3"}, desc.Query["mixed"])
	assert.NotContains(t, desc.Query, "skip")
	assert.Equal(t, []string{"1", "2"}, desc.Query["id"])
	assert.Equal(t, []string{"true", "false"}, desc.Query["flag"])
	assert.Equal(t, []string{"bytes"}, desc.Query["raw"])
}

func TestNormalize_JSON(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), &hac.Args{
		JSON: map[string]string{"name": "a"},
	}, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)

	assert.Equal(t, hac.BodyJSON, desc.Body.Kind)
	assert.JSONEq(t, `{"name":"a"}`, string(desc.Body.JSON))
	assert.Equal(t, "application/json", desc.Headers.Get("Content-Type"))
}

func TestNormalize_JSONWinsOverForm(t *testing.T) {
	t.Parallel()

	args := &hac.Args{
		Form: map[string]any{"name": "form"},
		JSON: map[string]string{"name": "json"},
	}

	desc, err := normalize.Normalize(context.Background(), args, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, hac.BodyJSON, desc.Body.Kind)
	assert.Nil(t, desc.Body.Form)

	_, err = normalize.Normalize(context.Background(), args, normalize.HeaderLayers{}, normalize.Options{StrictBody: true})
	require.ErrorIs(t, err, hac.ErrAmbiguousBody)
}

func TestNormalize_HeaderPrecedence(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), &hac.Args{
		Header: map[string]string{"x-a": "args", "X-B": "args", "X-C": "args", "X-D": "args"},
	}, normalize.HeaderLayers{
		Static: map[string]string{"X-B": "static", "X-C": "static"},
		Resolver: func(ctx context.Context) (map[string]string, error) {
			return map[string]string{"x-c": "resolver", "X-D": "resolver"}, nil
		},
		Call: map[string]string{"X-D": "call"},
	}, normalize.Options{})
	require.NoError(t, err)

	assert.Equal(t, "args", desc.Headers.Get("X-A"))
	assert.Equal(t, "static", desc.Headers.Get("X-B"))
	assert.Equal(t, "resolver", desc.Headers.Get("X-C"))
	assert.Equal(t, "call", desc.Headers.Get("X-D"))
}

func TestNormalize_ContentTypeBeatsHeaders(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), &hac.Args{
		JSON: []int{1},
	}, normalize.HeaderLayers{
		Call: map[string]string{"Content-Type": "text/plain"},
	}, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, "application/json", desc.Headers.Get("Content-Type"))
}

func TestNormalize_ResolverErrorPropagates(t *testing.T) {
	t.Parallel()

	_, err := normalize.Normalize(context.Background(), nil, normalize.HeaderLayers{
		Resolver: func(ctx context.Context) (map[string]string, error) {
			return nil, errResolver
		},
	}, normalize.Options{})
	assert.Same(t, errResolver, err)
}

func TestNormalize_Cookies(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), &hac.Args{
		Cookie: map[string]string{"session": "abc", "lang": "en"},
	}, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)

	assert.Equal(t, "lang=en; Path=/,session=abc; Path=/", desc.Headers.Get("Cookie"))

	desc, err = normalize.Normalize(context.Background(), &hac.Args{
		Cookie: map[string]string{"prefs": "a b,c;d"},
	}, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)

	assert.Equal(t, "prefs=a%20b%2Cc%3Bd; Path=/", desc.Headers.Get("Cookie"))

	for _, name := range []string{"", "bad name", "semi;colon"} {
		_, err = normalize.Normalize(context.Background(), &hac.Args{
			Cookie: map[string]string{name: "v"},
		}, normalize.HeaderLayers{}, normalize.Options{})
		require.ErrorIs(t, err, hac.ErrInvalidCookie, name)
	}
}

func TestNormalize_ParamsAndNilArgs(t *testing.T) {
	t.Parallel()

	desc, err := normalize.Normalize(context.Background(), nil, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)
	assert.Empty(t, desc.PathParams)
	assert.True(t, desc.Body.IsZero())

	desc, err = normalize.Normalize(context.Background(), &hac.Args{Param: map[string]string{"id": "1"}}, normalize.HeaderLayers{}, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, "1", desc.PathParams["id"])
}

func TestStandardEncoder(t *testing.T) {
	t.Parallel()

	t.Run("urlencoded form", func(t *testing.T) {
		t.Parallel()

		encoded, err := normalize.StandardEncoder{}.Encode(&hac.Body{
			Kind: hac.BodyForm,
			Form: map[string]any{"name": "a b", "tags": []string{"x", "y"}, "ids": []int{1, 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", encoded.ContentType)

		data, err := io.ReadAll(encoded.Reader)
		require.NoError(t, err)
		assert.Equal(t, "ids=1&ids=2&name=a+b&tags=x&tags=y", string(data))
	})

	t.Run("multipart form with file", func(t *testing.T) {
		t.Parallel()

		encoded, err := normalize.StandardEncoder{}.Encode(&hac.Body{
			Kind: hac.BodyForm,
			Form: map[string]any{
				"name":   "avatar",
				"upload": &hac.FormFile{Filename: "a.txt", ContentType: "text/plain", Content: strings.NewReader("hello")},
			},
		})
		require.NoError(t, err)

		mediaType, params, err := mime.ParseMediaType(encoded.ContentType)
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(encoded.Reader, params["boundary"])
		form, err := reader.ReadForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"avatar"}, form.Value["name"])
		require.Len(t, form.File["upload"], 1)
		assert.Equal(t, "a.txt", form.File["upload"][0].Filename)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		encoded, err := normalize.StandardEncoder{}.Encode(&hac.Body{Kind: hac.BodyJSON, JSON: []byte(`{"a":1}`)})
		require.NoError(t, err)
		assert.Equal(t, "application/json", encoded.ContentType)
	})

	t.Run("nested map rejected", func(t *testing.T) {
		t.Parallel()

		_, err := normalize.StandardEncoder{}.Encode(&hac.Body{
			Kind: hac.BodyForm,
			Form: map[string]any{"nested": map[string]any{"a": 1}},
		})
		require.ErrorIs(t, err, hac.ErrUnsupportedFormType)
	})

	t.Run("no body", func(t *testing.T) {
		t.Parallel()

		encoded, err := normalize.StandardEncoder{}.Encode(&hac.Body{})
		require.NoError(t, err)
		assert.Nil(t, encoded.Reader)
	})
}

func TestRawFormEncoder(t *testing.T) {
	t.Parallel()

	form := map[string]any{"name": "a"}

	encoded, err := normalize.RawFormEncoder{}.Encode(&hac.Body{Kind: hac.BodyForm, Form: form})
	require.NoError(t, err)
	assert.Nil(t, encoded.Reader)
	assert.Equal(t, form, encoded.Raw)

	encoded, err = normalize.RawFormEncoder{}.Encode(&hac.Body{Kind: hac.BodyJSON, JSON: []byte(`1`)})
	require.NoError(t, err)
	assert.NotNil(t, encoded.Reader)
	assert.Nil(t, encoded.Raw)
}
