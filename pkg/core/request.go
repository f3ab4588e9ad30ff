package core

import "maps"

// Params carries operation-specific parameters from the caller to the
// protocol's request builder.
type Params map[string]any

// Request is the outbound request descriptor handed to the HTTP transport.
// Query values are strings because they participate byte-for-byte in the
// signature base string for private endpoints.
type Request struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	// Query holds the request parameters. For signed non-GET requests they
	// are moved into the form-encoded body instead of the URL.
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	// RequireAuth marks private endpoints that must be signed.
	RequireAuth bool `json:"require_auth"`
}

// NewRequest creates a request descriptor for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(map[string]string),
		Headers: make(map[string]string),
	}
}

// SetQuery sets a single query parameter and returns the request for chaining.
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	r.Query[key] = value
	return r
}

// SetHeader sets a single header and returns the request for chaining.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetRequireAuth marks the request as requiring a signature.
func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

// SetQueryParams merges the given parameters into the query.
func (r *Request) SetQueryParams(params map[string]string) *Request {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	maps.Copy(r.Query, params)
	return r
}
