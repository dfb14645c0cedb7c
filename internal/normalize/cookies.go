package normalize

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// CookieSeparator joins serialized cookies in the Cookie header.
const CookieSeparator = ","

// SerializeCookies serializes each entry as "name=value; Path=/" in name
// order and joins them with CookieSeparator. Values are percent-encoded.
// Names must be RFC 7230 tokens.
func SerializeCookies(cookies map[string]string) (string, error) {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}

	sort.Strings(names)

	serialized := make([]string, 0, len(names))

	for _, name := range names {
		if !isToken(name) {
			return "", fmt.Errorf("%w: %q", hac.ErrInvalidCookie, name)
		}

		serialized = append(serialized, name+"="+url.PathEscape(cookies[name])+"; Path=/")
	}

	return strings.Join(serialized, CookieSeparator), nil
}

func isToken(name string) bool {
	if name == "" {
		return false
	}

	for _, char := range name {
		switch {
		case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z', char >= '0' && char <= '9':
		case strings.ContainsRune("!#$%&'*+-.^_`|~", char):
		default:
			return false
		}
	}

	return true
}
