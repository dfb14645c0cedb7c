// Package urlpath joins, parameterizes and cleans route paths.
package urlpath

import (
	"net/url"
	"regexp"
	"strings"
)

const indexSuffix = "/index"

var (
	paramPattern   = regexp.MustCompile(`(^|/):([^/{?]+)(\{[^/]+\})?\??`)
	hostOnlyPrefix = regexp.MustCompile(`^https?://[^/]+$`)
)

// MergePath joins base and path with exactly one slash between them.
func MergePath(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ReplaceURLParam substitutes every ":name" token that has an entry in params.
// A token may carry a "{regex}" constraint and a "?" optional marker; both are
// consumed. An empty value removes the segment. Tokens without an entry are
// left untouched.
func ReplaceURLParam(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}

	return paramPattern.ReplaceAllStringFunc(rawURL, func(token string) string {
		match := paramPattern.FindStringSubmatch(token)
		prefix, name := match[1], match[2]

		value, ok := params[name]
		if !ok {
			return token
		}

		if value == "" {
			return ""
		}

		return prefix + value
	})
}

// RemoveIndexString strips trailing "index" segments. A URL reduced to its
// host keeps a trailing slash.
func RemoveIndexString(rawURL string) string {
	for {
		switch {
		case rawURL == "index":
			return ""
		case strings.HasSuffix(rawURL, indexSuffix):
			rawURL = strings.TrimSuffix(rawURL, indexSuffix)
			if rawURL == "" || hostOnlyPrefix.MatchString(rawURL) {
				return rawURL + "/"
			}
		default:
			return rawURL
		}
	}
}

// AppendQuery appends the encoded query to rawURL when it is non-empty.
func AppendQuery(rawURL string, query url.Values) string {
	encoded := query.Encode()
	if encoded == "" {
		return rawURL
	}

	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + encoded
	}

	return rawURL + "?" + encoded
}
