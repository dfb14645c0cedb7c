package normalize

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// ContentTypeForm is used for forms without file values.
const ContentTypeForm = "application/x-www-form-urlencoded"

// StandardEncoder encodes JSON bodies as-is, forms with file values as
// multipart and all other forms as urlencoded.
type StandardEncoder struct{}

// Encode implements hac.BodyEncoder.
func (StandardEncoder) Encode(body *hac.Body) (*hac.EncodedBody, error) {
	if body.IsZero() {
		return &hac.EncodedBody{}, nil
	}

	switch body.Kind {
	case hac.BodyJSON:
		return &hac.EncodedBody{Reader: bytes.NewReader(body.JSON), ContentType: ContentTypeJSON}, nil
	case hac.BodyForm:
		if hasFile(body.Form) {
			return encodeMultipart(body.Form)
		}

		return encodeURLForm(body.Form)
	default:
		return &hac.EncodedBody{}, nil
	}
}

// RawFormEncoder hands form bodies to the transport unencoded, for runtimes
// whose request API builds the form itself. Other bodies are encoded by
// StandardEncoder.
type RawFormEncoder struct{}

// Encode implements hac.BodyEncoder.
func (RawFormEncoder) Encode(body *hac.Body) (*hac.EncodedBody, error) {
	if !body.IsZero() && body.Kind == hac.BodyForm {
		return &hac.EncodedBody{Raw: body.Form}, nil
	}

	return StandardEncoder{}.Encode(body)
}

func hasFile(form map[string]any) bool {
	for _, value := range form {
		switch typed := value.(type) {
		case *hac.FormFile, io.Reader:
			return true
		case []any:
			for _, item := range typed {
				switch item.(type) {
				case *hac.FormFile, io.Reader:
					return true
				}
			}
		}
	}

	return false
}

func sortedKeys(form map[string]any) []string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func encodeURLForm(form map[string]any) (*hac.EncodedBody, error) {
	values := url.Values{}

	for _, key := range sortedKeys(form) {
		items, err := formItems(key, form[key])
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			text, ok := item.(string)
			if !ok {
				return encodeMultipart(form)
			}

			values.Add(key, text)
		}
	}

	return &hac.EncodedBody{
		Reader:      bytes.NewReader([]byte(values.Encode())),
		ContentType: ContentTypeForm,
	}, nil
}

func encodeMultipart(form map[string]any) (*hac.EncodedBody, error) {
	buffer := &bytes.Buffer{}
	writer := multipart.NewWriter(buffer)

	for _, key := range sortedKeys(form) {
		items, err := formItems(key, form[key])
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			err = writeMultipartItem(writer, key, item)
			if err != nil {
				return nil, err
			}
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	return &hac.EncodedBody{Reader: buffer, ContentType: writer.FormDataContentType()}, nil
}

// formItems flattens a form value into strings, *hac.FormFile and io.Reader
// items. Slices become repeated fields.
func formItems(key string, value any) ([]any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case string, *hac.FormFile, io.Reader:
		return []any{typed}, nil
	case []string:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			items = append(items, item)
		}

		return items, nil
	case []any:
		items := make([]any, 0, len(typed))

		for _, item := range typed {
			flat, err := formItems(key, item)
			if err != nil {
				return nil, err
			}

			items = append(items, flat...)
		}

		return items, nil
	case map[string]any:
		return nil, fmt.Errorf("%w: %s is %T", hac.ErrUnsupportedFormType, key, value)
	case []byte:
		return []any{string(typed)}, nil
	default:
		items, ok := sliceItems(typed)
		if !ok {
			return []any{fmt.Sprint(typed)}, nil
		}

		return formItems(key, items)
	}
}

func writeMultipartItem(writer *multipart.Writer, key string, item any) error {
	switch typed := item.(type) {
	case string:
		err := writer.WriteField(key, typed)
		if err != nil {
			return fmt.Errorf("writing form field %s: %w", key, err)
		}

		return nil
	case *hac.FormFile:
		return writeFile(writer, key, typed.Filename, typed.ContentType, typed.Content)
	case io.Reader:
		return writeFile(writer, key, key, "", typed)
	default:
		return fmt.Errorf("%w: %s is %T", hac.ErrUnsupportedFormType, key, item)
	}
}

func writeFile(writer *multipart.Writer, key, filename, contentType string, content io.Reader) error {
	if filename == "" {
		filename = "blob"
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form part %s: %w", key, err)
	}

	if content == nil {
		return nil
	}

	_, err = io.Copy(part, content)
	if err != nil {
		return fmt.Errorf("copying form file %s: %w", key, err)
	}

	return nil
}
