package hac

import (
	"net/http"
	"net/url"
)

// ResultKind tags the variant held by a Result.
type ResultKind int

// Result variants.
const (
	// KindName is the outcome of chain.name.toString().
	KindName ResultKind = iota
	// KindDescription is the outcome of toString/valueOf on the chain itself.
	KindDescription
	// KindURL is the outcome of the "$url" command.
	KindURL
	// KindResponse is a fetch executed by the Fetch Executor.
	KindResponse
	// KindHandle is an unexecuted managed request.
	KindHandle
	// KindRequest is a chain invoked without a verb marker.
	KindRequest
)

// String implements fmt.Stringer.
func (k ResultKind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindDescription:
		return "description"
	case KindURL:
		return "url"
	case KindResponse:
		return "response"
	case KindHandle:
		return "handle"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Node.Invoke. Only the fields of Kind are set.
type Result struct {
	Kind ResultKind

	// Text is set for KindName and KindDescription.
	Text string
	// Node is set for KindDescription.
	Node Node
	// URL is set for KindURL.
	URL *url.URL
	// Response is set for KindResponse. The caller closes its body.
	Response *http.Response
	// Handle is set for KindHandle.
	Handle Handle
	// Request is set for KindRequest.
	Request PendingRequest
}

// AsResponse returns the fetch response, if any.
func (r *Result) AsResponse() (*http.Response, bool) {
	if r == nil || r.Kind != KindResponse {
		return nil, false
	}

	return r.Response, true
}

// AsHandle returns the managed handle, if any.
func (r *Result) AsHandle() (Handle, bool) {
	if r == nil || r.Kind != KindHandle {
		return nil, false
	}

	return r.Handle, true
}

// AsURL returns the computed URL, if any.
func (r *Result) AsURL() (*url.URL, bool) {
	if r == nil || r.Kind != KindURL {
		return nil, false
	}

	return r.URL, true
}

// AsText returns the text of a name or description result.
func (r *Result) AsText() (string, bool) {
	if r == nil || (r.Kind != KindName && r.Kind != KindDescription) {
		return "", false
	}

	return r.Text, true
}

// AsRequest returns the pending request of an uncalled chain.
func (r *Result) AsRequest() (PendingRequest, bool) {
	if r == nil || r.Kind != KindRequest {
		return nil, false
	}

	return r.Request, true
}
