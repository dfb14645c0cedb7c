package commands

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// callOutput is the rendered result of a call.
type callOutput struct {
	Status    int               `json:"status"               yaml:"status"`
	FromCache bool              `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"    yaml:"headers,omitempty"`
	Body      any               `json:"body,omitempty"       yaml:"body,omitempty"`
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	var (
		flags    argFlags
		method   string
		managed  bool
		name     string
		cacheFor time.Duration
		tag      string
		mode     string
		selector string
	)

	cmd := &cobra.Command{
		Use:   "call <segment>...",
		Short: "Call an API by route chain",
		Long: `Join the segments into a path and send the request.

Segments like ":id" are substituted from --param. With --managed the request
is created and sent through the caching engine.`,
		Example: `  hac call users :id --param id=1
  hac call users --method post --json '{"name":"a"}'
  hac call users --managed --cache-for 5m --select 0.name`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, segments []string) error {
			verb := hac.ParseMethod(method)
			if !verb.Valid() {
				return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			args, err := flags.build()
			if err != nil {
				return err
			}

			root, err := newRoot(cmd.Context(), config, managed)
			if err != nil {
				return err
			}

			node := root.At(segments...)
			if managed {
				node = node.Managed()
			}

			callConfig := &hac.CallConfig{Name: name, CacheFor: cacheFor}
			if tag != "" || mode != "" {
				callConfig.Cache = &hac.CacheDirective{Mode: hac.CacheMode(mode), Tag: tag, Expire: cacheFor}
			}

			result, err := node.Extend(hac.VerbPrefix+strings.ToLower(verb.String())).Invoke(cmd.Context(), args, callConfig)
			if err != nil {
				return err
			}

			resp, err := resolveResponse(cmd, result)
			if err != nil {
				return err
			}

			if selector != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), gjson.GetBytes(resp.Body, selector).String())

				return nil
			}

			return renderResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "get", "HTTP method")
	cmd.Flags().BoolVar(&managed, "managed", false, "send through the managed engine")
	cmd.Flags().StringVar(&name, "name", "", "managed method name")
	cmd.Flags().DurationVar(&cacheFor, "cache-for", 0, "cache GET responses for this long (managed only)")
	cmd.Flags().StringVar(&tag, "cache-tag", "", "tag cached responses (managed only)")
	cmd.Flags().StringVar(&mode, "cache-mode", "", "cache mode: memory, restore or off (managed only)")
	cmd.Flags().StringVar(&selector, "select", "", "print only this gjson path of the body")
	addArgFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.json, "json", "", "JSON request body")
	cmd.Flags().StringArrayVar(&flags.form, "form", nil, "form field key=value (repeatable)")
	cmd.Flags().StringArrayVar(&flags.header, "header", nil, "header key=value (repeatable)")
	cmd.Flags().StringArrayVar(&flags.cookie, "cookie", nil, "cookie key=value (repeatable)")
	cmd.Flags().StringVar(&flags.raw, "args", "", "call arguments as JSON")

	return cmd
}

func addArgFlags(cmd *cobra.Command, flags *argFlags) {
	cmd.Flags().StringArrayVarP(&flags.param, "param", "p", nil, "path parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.query, "query", "q", nil, "query parameter key=value (repeatable)")
}

// resolveResponse sends managed handles and reads fetch responses.
func resolveResponse(cmd *cobra.Command, result *hac.Result) (*hac.Response, error) {
	if handle, ok := result.AsHandle(); ok {
		return handle.Await(cmd.Context())
	}

	httpResp, ok := result.AsResponse()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, result.Kind)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &hac.Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func renderResponse(cmd *cobra.Command, resp *hac.Response) error {
	output := callOutput{
		Status:    resp.StatusCode,
		FromCache: resp.FromCache,
		Headers:   flattenHeader(resp.Header),
		Body:      string(resp.Body),
	}

	if gjson.ValidBytes(resp.Body) {
		output.Body = gjson.ParseBytes(resp.Body).Value()
	}

	return writeOutput(cmd.OutOrStdout(), output, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")
		_ = table.Append("Status", fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		_ = table.Append("From Cache", fmt.Sprint(resp.FromCache))

		keys := make([]string, 0, len(output.Headers))
		for key := range output.Headers {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			_ = table.Append(key, output.Headers[key])
		}

		_ = table.Append("Body", string(resp.Body))

		return nil
	})
}

func flattenHeader(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}
