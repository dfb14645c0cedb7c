package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/samber/lo"
)

// argFlags are the request-argument flags shared by call and url.
type argFlags struct {
	raw    string
	json   string
	param  []string
	query  []string
	form   []string
	header []string
	cookie []string
}

// parseKeyValues parses repeated key=value flags. Later keys win.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		values[key] = value
	}

	return values, nil
}

// parseQuery parses repeated key=value flags; repeated keys become lists.
func parseQuery(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	query := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		switch existing := query[key].(type) {
		case nil:
			query[key] = value
		case string:
			query[key] = []string{existing, value}
		case []string:
			query[key] = append(existing, value)
		}
	}

	return query, nil
}

// build assembles call arguments. --args is decoded first and the individual
// flags are layered on top.
func (f *argFlags) build() (*hac.Args, error) {
	args := &hac.Args{}

	if f.raw != "" {
		var raw map[string]any

		err := json.Unmarshal([]byte(f.raw), &raw)
		if err != nil {
			return nil, fmt.Errorf("%w: --args: %w", hac.ErrInvalidArgs, err)
		}

		args, err = hac.DecodeArgs(raw)
		if err != nil {
			return nil, err
		}
	}

	if f.json != "" {
		var body any

		err := json.Unmarshal([]byte(f.json), &body)
		if err != nil {
			return nil, fmt.Errorf("%w: --json: %w", hac.ErrInvalidArgs, err)
		}

		args.JSON = body
	}

	param, err := parseKeyValues(f.param)
	if err != nil {
		return nil, err
	}

	query, err := parseQuery(f.query)
	if err != nil {
		return nil, err
	}

	form, err := parseKeyValues(f.form)
	if err != nil {
		return nil, err
	}

	header, err := parseKeyValues(f.header)
	if err != nil {
		return nil, err
	}

	cookie, err := parseKeyValues(f.cookie)
	if err != nil {
		return nil, err
	}

	args.Param = lo.Assign(args.Param, param)
	args.Header = lo.Assign(args.Header, header)
	args.Cookie = lo.Assign(args.Cookie, cookie)
	args.Query = hac.DeepMerge(args.Query, query)

	if form != nil {
		args.Form = lo.Assign(args.Form, lo.MapValues(form, func(value, _ string) any {
			return value
		}))
	}

	return args, nil
}
